package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
)

type fakeJSONCache struct {
	data    map[string][]byte
	failGet bool
	failSet bool
	sets    int
}

func newFakeJSONCache() *fakeJSONCache {
	return &fakeJSONCache{data: make(map[string][]byte)}
}

func (f *fakeJSONCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	if f.failGet {
		return errors.New("connection reset")
	}
	raw, ok := f.data[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeJSONCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.failSet {
		return errors.New("read only replica")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.sets++
	f.data[key] = raw
	return nil
}

// countingStore counts schedule reads that reach the store
type countingStore struct {
	*database.MemoryStore
	scheduleGets int
}

func (c *countingStore) GetWeekSchedule(ctx context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error) {
	c.scheduleGets++
	return c.MemoryStore.GetWeekSchedule(ctx, key)
}

func testSchedule() *model.WeekSchedule {
	return &model.WeekSchedule{
		ClassID:             1,
		Week:                2,
		ScheduleFingerprint: "aaaaaaaaaaaaaaaa",
		SyllabusFingerprint: "none",
		WeekStartISO:        "2024-02-26",
		WeekEndISO:          "2024-03-03",
		Model:               "model-a",
	}
}

func TestWeekCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: database.NewMemoryStore()}
	redis := newFakeJSONCache()
	wc := NewWeekCache(store, redis, time.Hour, nil)

	row := testSchedule()
	if _, err := store.MemoryStore.PutWeekScheduleIfAbsent(ctx, row); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got, err := wc.GetWeekSchedule(ctx, row.CacheKey())
		if err != nil || got == nil || got.Model != "model-a" {
			t.Fatalf("get %d = %+v, %v", i, got, err)
		}
	}
	if store.scheduleGets != 1 {
		t.Errorf("store reads = %d, want 1", store.scheduleGets)
	}
}

func TestWeekCacheMissIsNotCached(t *testing.T) {
	ctx := context.Background()
	redis := newFakeJSONCache()
	wc := NewWeekCache(database.NewMemoryStore(), redis, time.Hour, nil)

	got, err := wc.GetWeekRecommendation(ctx, testSchedule().CacheKey())
	if err != nil || got != nil {
		t.Fatalf("miss = %+v, %v", got, err)
	}
	if redis.sets != 0 {
		t.Errorf("a miss was written to the cache")
	}
}

func TestWeekCachePutWritesStoredRow(t *testing.T) {
	ctx := context.Background()
	redis := newFakeJSONCache()
	wc := NewWeekCache(database.NewMemoryStore(), redis, time.Hour, nil)

	if _, err := wc.PutWeekScheduleIfAbsent(ctx, testSchedule()); err != nil {
		t.Fatal(err)
	}
	second := testSchedule()
	second.Model = "model-b"
	stored, err := wc.PutWeekScheduleIfAbsent(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Model != "model-a" {
		t.Errorf("stored model = %q, want model-a", stored.Model)
	}

	var cached model.WeekSchedule
	if err := redis.GetJSON(ctx, scheduleKey(second.CacheKey()), &cached); err != nil || cached.Model != "model-a" {
		t.Errorf("cached = %+v, %v", cached, err)
	}
}

func TestWeekCacheIgnoresCacheFailures(t *testing.T) {
	ctx := context.Background()
	redis := newFakeJSONCache()
	redis.failGet, redis.failSet = true, true
	wc := NewWeekCache(database.NewMemoryStore(), redis, time.Hour, nil)

	if _, err := wc.PutWeekScheduleIfAbsent(ctx, testSchedule()); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := wc.GetWeekSchedule(ctx, testSchedule().CacheKey())
	if err != nil || got == nil {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

func TestWeekCachePassesStoreErrors(t *testing.T) {
	ctx := context.Background()
	wc := NewWeekCache(database.NewMemoryStore().WithoutCacheTables(), newFakeJSONCache(), time.Hour, nil)
	if _, err := wc.GetWeekSchedule(ctx, testSchedule().CacheKey()); !errors.Is(err, database.ErrRelationMissing) {
		t.Errorf("err = %v, want ErrRelationMissing", err)
	}
}
