package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
)

const threeResources = `{"concept_title":"Integration by parts","resources":[
{"title":"Integration by Parts","type":"Video","source":"Khan Academy","url":"https://www.khanacademy.org/math/ibp","summary":"Worked examples."},
{"title":"Lecture 12 notes","type":"Course Notes","source":"MIT OCW","url":"https://ocw.mit.edu/18-01/lec12.pdf","summary":"Notes."},
{"title":"Integration by parts","type":"Article","source":"Wikipedia","url":"https://en.wikipedia.org/wiki/Integration_by_parts","summary":"Overview."}]}`

const (
	scenarioBSchedule = "Week 3 10-Mar Section 4.2\nWeek 4 17-Mar Section 5.1"
	scenarioBSyllabus = "Week 3 Integration by parts\nWeek 4 Trigonometric substitution"
)

func newRecommendationService(store *database.MemoryStore, completer Completer) *RecommendationService {
	schedules := newScheduleService(store, completer)
	svc := NewRecommendationService(store, store, schedules, NewResourceCurator(completer, testAllowlist(), nil), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSelectTopicsScenarioB(t *testing.T) {
	got := SelectTopics("Week 3 10-Mar Section 4.2", "Week 3 Integration by parts", scenarioBSyllabus)
	if got == nil {
		t.Fatal("expected a selection")
	}
	if got.Source != model.TopicSourceSyllabus {
		t.Errorf("source = %q", got.Source)
	}
	if !reflect.DeepEqual(got.Topics, []string{"Integration by parts"}) {
		t.Errorf("topics = %q", got.Topics)
	}

	schedule := SelectTopics("Week 3 10-Mar Section 4.2", "", "")
	if schedule == nil || schedule.Source != model.TopicSourceSchedule || !reflect.DeepEqual(schedule.Topics, []string{"Section 4.2"}) {
		t.Errorf("schedule-only selection = %+v", schedule)
	}
}

func TestSelectTopicsCombined(t *testing.T) {
	got := SelectTopics("Week 3 10-Mar Lecture 3.2", "", "3.2 The derivative as a function")
	if got == nil || got.Source != model.TopicSourceCombined {
		t.Fatalf("selection = %+v", got)
	}
	if got.Topics[0] != "Section 3.2: The derivative as a function" {
		t.Errorf("topics = %q", got.Topics)
	}
}

func TestSelectTopicsNone(t *testing.T) {
	if got := SelectTopics("Week 3 10-Mar 3.1", "", ""); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGetWeekRecommendationScenarioB(t *testing.T) {
	store, classID := newFixtureStore(scenarioBSchedule, scenarioBSyllabus)
	completer := &fakeCompleter{answers: []string{threeResources}}
	svc := newRecommendationService(store, completer)
	ctx := context.Background()

	rec, err := svc.GetWeekRecommendation(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekRecommendation: %v", err)
	}
	if rec.TopicSource != model.TopicSourceSyllabus {
		t.Errorf("topic source = %q", rec.TopicSource)
	}
	if !reflect.DeepEqual([]string(rec.Topics), []string{"Integration by parts"}) {
		t.Errorf("topics = %q", rec.Topics)
	}
	if len(rec.Resources) != model.RequiredResourceCount {
		t.Fatalf("got %d resources", len(rec.Resources))
	}
	if rec.TopicSummary != "Integration by parts" {
		t.Errorf("topic summary = %q", rec.TopicSummary)
	}

	again, err := svc.GetWeekRecommendation(ctx, classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if completer.calls() != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls())
	}
	if again.ID != rec.ID {
		t.Errorf("cached id changed")
	}
}

func TestGetWeekRecommendationEmptyResourcesCached(t *testing.T) {
	store, classID := newFixtureStore(scenarioBSchedule, scenarioBSyllabus)
	completer := &fakeCompleter{answers: []string{`{"concept_title":"","resources":[{"title":"x","type":"Video","source":"y","url":"http://example.com"}]}`}}
	svc := newRecommendationService(store, completer)
	ctx := context.Background()

	var first *model.WeekRecommendation
	for i := 0; i < 3; i++ {
		rec, err := svc.GetWeekRecommendation(ctx, classID, 7, weekPtr(3))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if rec == nil || len(rec.Resources) != 0 {
			t.Fatalf("call %d: %+v", i, rec)
		}
		if rec.TopicSummary != "Integration by parts" {
			t.Errorf("topic summary = %q", rec.TopicSummary)
		}
		if first == nil {
			first = rec
		} else if rec.ID != first.ID {
			t.Errorf("call %d: id = %s, want cached %s", i, rec.ID, first.ID)
		}
	}
	if n := completer.promptsFor(resourceSchemaName); n != 1 {
		t.Errorf("curator prompted %d times, want 1", n)
	}
}

func TestGetWeekRecommendationUnparsableAnswerCached(t *testing.T) {
	store, classID := newFixtureStore(scenarioBSchedule, scenarioBSyllabus)
	completer := &fakeCompleter{answers: []string{"I could not find anything useful."}}
	svc := newRecommendationService(store, completer)

	for i := 0; i < 2; i++ {
		rec, err := svc.GetWeekRecommendation(context.Background(), classID, 7, weekPtr(3))
		if err != nil || rec == nil || len(rec.Resources) != 0 {
			t.Fatalf("call %d: rec = %+v, err = %v", i, rec, err)
		}
	}
	if n := completer.promptsFor(resourceSchemaName); n != 1 {
		t.Errorf("curator prompted %d times, want 1", n)
	}
}

func TestGetWeekRecommendationFallsBackToScheduleDays(t *testing.T) {
	store, classID := newFixtureStore("Week 3 10-Mar 3.1\nWeek 4 17-Mar 4.1", "")
	completer := &fakeCompleter{answers: []string{"{}", threeResources}}
	svc := newRecommendationService(store, completer)

	rec, err := svc.GetWeekRecommendation(context.Background(), classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekRecommendation: %v", err)
	}
	if rec.TopicSource != model.TopicSourceSchedule || !reflect.DeepEqual([]string(rec.Topics), []string{"Lecture 3.1"}) {
		t.Errorf("selection = %q %q", rec.TopicSource, rec.Topics)
	}
	if completer.promptsFor(scheduleSchemaKey) != 1 || completer.promptsFor(resourceSchemaName) != 1 {
		t.Errorf("prompts = %+v", completer.prompts)
	}
}

func TestGetWeekRecommendationNoTopics(t *testing.T) {
	store, classID := newFixtureStore("Week 3\nWeek 4 17-Mar Lecture 4.1", "")
	completer := &fakeCompleter{answers: []string{"{}"}}
	rec, err := newRecommendationService(store, completer).GetWeekRecommendation(context.Background(), classID, 7, weekPtr(3))
	if err != nil || rec != nil {
		t.Fatalf("got %+v, %v", rec, err)
	}
	if completer.promptsFor(resourceSchemaName) != 0 {
		t.Error("curator should not run without topics")
	}
}

func TestGetWeekRecommendationWithoutModel(t *testing.T) {
	store, classID := newFixtureStore(scenarioBSchedule, scenarioBSyllabus)
	_, err := newRecommendationService(store, nil).GetWeekRecommendation(context.Background(), classID, 7, weekPtr(3))
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGetWeekRecommendationMissingRelation(t *testing.T) {
	store, classID := newFixtureStore(scenarioBSchedule, scenarioBSyllabus)
	store.WithoutCacheTables()
	rec, err := newRecommendationService(store, &fakeCompleter{answers: []string{threeResources}}).GetWeekRecommendation(context.Background(), classID, 7, weekPtr(3))
	if err != nil {
		t.Fatalf("GetWeekRecommendation: %v", err)
	}
	if len(rec.Resources) != 3 {
		t.Errorf("got %d resources", len(rec.Resources))
	}
}

func TestTopicSummary(t *testing.T) {
	if got := topicSummary("", []string{"Limits", "Continuity"}); got != "Limits; Continuity" {
		t.Errorf("got %q", got)
	}
	if got := topicSummary("Derivatives", []string{"Limits"}); got != "Derivatives" {
		t.Errorf("got %q", got)
	}
}
