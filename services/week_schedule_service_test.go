package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
)

const scenarioASchedule = "Week 3 10-Mar Lecture 3.1 Discussion 3.2 Quiz: No Quiz\nWeek 4 17-Mar Lecture 4.1"

func newScheduleService(store *database.MemoryStore, completer Completer) *WeekScheduleService {
	svc := NewWeekScheduleService(store, store, NewScheduleReconciler(completer, nil), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC) }
	return svc
}

func weekPtr(w int) *int { return &w }

func TestFingerprint(t *testing.T) {
	if got := Fingerprint(""); got != NoSourceFingerprint {
		t.Errorf("Fingerprint(\"\") = %q", got)
	}
	sum := sha256.Sum256([]byte("abc"))
	if got, want := Fingerprint("abc"), hex.EncodeToString(sum[:])[:16]; got != want || got != "ba7816bf8f01cfea" {
		t.Errorf("Fingerprint(abc) = %q, want %q", got, want)
	}
}

func TestGetWeekScheduleScenarioA(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	completer := &fakeCompleter{answers: []string{"{}"}}
	svc := newScheduleService(store, completer)

	schedule, err := svc.GetWeekSchedule(context.Background(), classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekSchedule: %v", err)
	}
	if schedule == nil {
		t.Fatal("expected a schedule")
	}
	if schedule.WeekStartISO != "2024-03-04" || schedule.WeekEndISO != "2024-03-10" {
		t.Errorf("window = %s..%s", schedule.WeekStartISO, schedule.WeekEndISO)
	}
	if len(schedule.Days) != 7 {
		t.Fatalf("got %d days", len(schedule.Days))
	}
	sunday := schedule.Days[6]
	if sunday.DateISO != "2024-03-10" || !strings.Contains(sunday.Primary, "Lecture") || !strings.Contains(sunday.Primary, "3.1") {
		t.Errorf("Sunday = %+v", sunday)
	}
	for _, day := range schedule.Days {
		if strings.Contains(strings.ToLower(day.Primary), "quiz") {
			t.Errorf("day %s labelled as quiz: %q", day.DateISO, day.Primary)
		}
	}
	if schedule.SyllabusFingerprint != NoSourceFingerprint || schedule.ScheduleFingerprint != Fingerprint(scenarioASchedule) {
		t.Errorf("fingerprints = %s/%s", schedule.ScheduleFingerprint, schedule.SyllabusFingerprint)
	}
	if schedule.Model != "fake-model" {
		t.Errorf("model = %q", schedule.Model)
	}
}

func TestGetWeekScheduleCachedByFingerprint(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	completer := &fakeCompleter{answers: []string{"{}"}}
	svc := newScheduleService(store, completer)
	ctx := context.Background()

	first, err := svc.GetWeekSchedule(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetWeekSchedule(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if completer.calls() != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls())
	}
	if first.ID != second.ID {
		t.Errorf("cached row id changed: %s != %s", first.ID, second.ID)
	}

	// a new document changes the fingerprint and forces regeneration
	store.AddDocument(model.SourceDocument{ClassID: classID, DocType: model.DocumentTypeSyllabus, ExtractedText: textPtr("Week 3 Integration by parts"), Status: model.DocumentStatusDone})
	third, err := svc.GetWeekSchedule(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if completer.calls() != 2 || third.ID == first.ID {
		t.Errorf("expected regeneration, calls=%d", completer.calls())
	}
}

func TestGetWeekScheduleMissingRelation(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	store.WithoutCacheTables()
	completer := &fakeCompleter{answers: []string{"{}"}}
	svc := newScheduleService(store, completer)

	for i := 0; i < 2; i++ {
		schedule, err := svc.GetWeekSchedule(context.Background(), classID, 7, weekPtr(3))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if schedule == nil || len(schedule.Days) != 7 {
			t.Fatalf("call %d: unexpected schedule %+v", i, schedule)
		}
	}
	if completer.calls() != 2 {
		t.Errorf("completer called %d times, want 2", completer.calls())
	}
}

func TestGetWeekScheduleNotPersistedWithoutModel(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	completer := &fakeCompleter{err: errors.New("connection reset")}
	svc := newScheduleService(store, completer)
	ctx := context.Background()

	schedule, err := svc.GetWeekSchedule(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekSchedule: %v", err)
	}
	if schedule.Model != DeterministicModel {
		t.Errorf("model = %q", schedule.Model)
	}
	cached, err := store.GetWeekSchedule(ctx, model.WeekCacheKey{ClassID: classID, Week: 3, ScheduleFingerprint: schedule.ScheduleFingerprint, SyllabusFingerprint: schedule.SyllabusFingerprint})
	if err != nil || cached != nil {
		t.Errorf("deterministic fallback should not be cached: %+v, %v", cached, err)
	}
}

func TestGetWeekScheduleNoDocuments(t *testing.T) {
	store, classID := newFixtureStore("", "")
	completer := &fakeCompleter{}
	schedule, err := newScheduleService(store, completer).GetWeekSchedule(context.Background(), classID, 7, nil)
	if err != nil || schedule != nil {
		t.Fatalf("got %+v, %v", schedule, err)
	}
	if completer.calls() != 0 {
		t.Error("completer should not be called without documents")
	}
}

func TestGetWeekScheduleClassNotOwned(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	_, err := newScheduleService(store, nil).GetWeekSchedule(context.Background(), classID, 99, nil)
	if !errors.Is(err, database.ErrClassNotFound) {
		t.Fatalf("expected ErrClassNotFound, got %v", err)
	}
}

func TestGetWeekScheduleResolvesWeek(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	svc := newScheduleService(store, nil)
	ctx := context.Background()

	// set in week 3 on 2024-03-06; two Mondays later it is week 5
	svc.now = func() time.Time { return time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC) }
	schedule, err := svc.GetWeekSchedule(ctx, classID, 7, nil)
	if err != nil {
		t.Fatalf("GetWeekSchedule: %v", err)
	}
	if schedule.Week != 5 || schedule.WeekStartISO != "2024-03-18" {
		t.Errorf("week %d starting %s", schedule.Week, schedule.WeekStartISO)
	}

	schedule, err = svc.GetWeekSchedule(ctx, classID, 7, weekPtr(42))
	if err != nil {
		t.Fatalf("GetWeekSchedule: %v", err)
	}
	if schedule.Week != model.MaxWeek {
		t.Errorf("week = %d, want %d", schedule.Week, model.MaxWeek)
	}
}

func TestGetWeekScheduleFallsBackToSyllabusRows(t *testing.T) {
	store, classID := newFixtureStore("", "Week 3 5-Mar Lecture 2.4 Midterm\nWeek 4 12-Mar Lecture 3.1")
	schedule, err := newScheduleService(store, nil).GetWeekSchedule(context.Background(), classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekSchedule: %v", err)
	}
	tuesday := schedule.Days[1]
	if tuesday.Primary != "Lecture 2.4" || len(tuesday.Tags) == 0 || tuesday.Tags[0] != "Midterm" {
		t.Errorf("Tuesday = %+v", tuesday)
	}
}

func TestGetWeekScheduleCancelled(t *testing.T) {
	store, classID := newFixtureStore(scenarioASchedule, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newScheduleService(store, blockingCompleter{}).GetWeekSchedule(ctx, classID, 7, weekPtr(3)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCollectSources(t *testing.T) {
	docs := []model.SourceDocument{
		{ID: 1, DocType: model.DocumentTypeSchedule, ExtractedText: textPtr("part one"), Status: model.DocumentStatusDone},
		{ID: 2, DocType: model.DocumentTypeSyllabus, ExtractedText: textPtr("syllabus"), Status: model.DocumentStatusDone},
		{ID: 3, DocType: model.DocumentTypeSchedule, ExtractedText: nil, Status: model.DocumentStatusDone},
		{ID: 4, DocType: model.DocumentTypeSchedule, ExtractedText: textPtr("pending"), Status: model.DocumentStatusPending},
		{ID: 5, DocType: model.DocumentTypeSchedule, ExtractedText: textPtr(" part two "), Status: model.DocumentStatusDone},
	}
	if got := collectSources(docs, model.DocumentTypeSchedule); got != "part one\n\npart two" {
		t.Errorf("got %q", got)
	}
	if got := collectSources(docs, model.DocumentTypeOther); got != "" {
		t.Errorf("got %q", got)
	}
}
