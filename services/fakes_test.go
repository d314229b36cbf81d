package services

import (
	"context"
	"sync"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
)

// fakeCompleter answers every prompt with the next queued answer, or err
type fakeCompleter struct {
	mu      sync.Mutex
	answers []string
	err     error
	prompts []Prompt
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", nil
	}
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return answer, nil
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeCompleter) promptsFor(schema string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if p.SchemaName == schema {
			n++
		}
	}
	return n
}

// blockingCompleter waits for the context to end
type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingCompleter) Model() string { return "blocking" }

func mustDate(t interface{ Fatalf(string, ...interface{}) }, s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func textPtr(s string) *string { return &s }

// newFixtureStore creates a memory store with one class owned by user 7 whose week 3
// started on Monday 2024-03-04.
func newFixtureStore(schedule, syllabus string) (*database.MemoryStore, uint) {
	store := database.NewMemoryStore()
	setAt := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	classID := store.AddClass(model.Class{
		OwnerUserID:      7,
		Title:            "Calculus II",
		CurrentWeek:      3,
		CurrentWeekSetAt: &setAt,
		CreatedAt:        setAt,
	})
	if schedule != "" {
		store.AddDocument(model.SourceDocument{ClassID: classID, DocType: model.DocumentTypeSchedule, ExtractedText: textPtr(schedule), Status: model.DocumentStatusDone})
	}
	if syllabus != "" {
		store.AddDocument(model.SourceDocument{ClassID: classID, DocType: model.DocumentTypeSyllabus, ExtractedText: textPtr(syllabus), Status: model.DocumentStatusDone})
	}
	return store, classID
}
