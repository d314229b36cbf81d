package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
)

// JSONCache is the slice of RedisCache the week cache needs
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// WeekCache puts a read-through JSON cache in front of a database.WeekCacheStore. The
// store stays the source of truth: cache errors are logged and never returned.
type WeekCache struct {
	store database.WeekCacheStore
	cache JSONCache
	ttl   time.Duration
	log   *utils.Logger
}

var _ database.WeekCacheStore = (*WeekCache)(nil)

func NewWeekCache(store database.WeekCacheStore, cache JSONCache, ttl time.Duration, log *utils.Logger) *WeekCache {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &WeekCache{store: store, cache: cache, ttl: ttl, log: log.With("component", "week_cache")}
}

func scheduleKey(key model.WeekCacheKey) string {
	return "week_schedule:" + key.String()
}

func recommendationKey(key model.WeekCacheKey) string {
	return "week_recommendation:" + key.String()
}

func (w *WeekCache) GetWeekSchedule(ctx context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error) {
	var cached model.WeekSchedule
	if w.lookup(ctx, scheduleKey(key), &cached) {
		return &cached, nil
	}
	row, err := w.store.GetWeekSchedule(ctx, key)
	if err != nil || row == nil {
		return row, err
	}
	w.remember(ctx, scheduleKey(key), row)
	return row, nil
}

func (w *WeekCache) PutWeekScheduleIfAbsent(ctx context.Context, row *model.WeekSchedule) (*model.WeekSchedule, error) {
	stored, err := w.store.PutWeekScheduleIfAbsent(ctx, row)
	if err != nil {
		return nil, err
	}
	w.remember(ctx, scheduleKey(stored.CacheKey()), stored)
	return stored, nil
}

func (w *WeekCache) GetWeekRecommendation(ctx context.Context, key model.WeekCacheKey) (*model.WeekRecommendation, error) {
	var cached model.WeekRecommendation
	if w.lookup(ctx, recommendationKey(key), &cached) {
		return &cached, nil
	}
	row, err := w.store.GetWeekRecommendation(ctx, key)
	if err != nil || row == nil {
		return row, err
	}
	w.remember(ctx, recommendationKey(key), row)
	return row, nil
}

func (w *WeekCache) PutWeekRecommendationIfAbsent(ctx context.Context, row *model.WeekRecommendation) (*model.WeekRecommendation, error) {
	stored, err := w.store.PutWeekRecommendationIfAbsent(ctx, row)
	if err != nil {
		return nil, err
	}
	w.remember(ctx, recommendationKey(stored.CacheKey()), stored)
	return stored, nil
}

func (w *WeekCache) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := w.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		w.log.Warn("cache read failed", "key", key, "error", err)
	}
	return false
}

func (w *WeekCache) remember(ctx context.Context, key string, value interface{}) {
	if err := w.cache.SetJSON(ctx, key, value, w.ttl); err != nil {
		w.log.Warn("cache write failed", "key", key, "error", err)
	}
}
