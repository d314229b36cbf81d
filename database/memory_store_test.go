package database

import (
	"context"
	"errors"
	"testing"

	"github.com/sahilchouksey/course-week-planner/model"
)

func TestMemoryStoreCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.PutWeekScheduleIfAbsent(ctx, sampleSchedule("model-a"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.PutWeekScheduleIfAbsent(ctx, sampleSchedule("model-b"))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID || second.Model != "model-a" {
		t.Errorf("second put = %+v, want the first row", second)
	}

	if got, err := store.GetWeekRecommendation(ctx, first.CacheKey()); got != nil || err != nil {
		t.Errorf("recommendation miss = %+v, %v", got, err)
	}
}

func TestMemoryStoreWithoutCacheTables(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().WithoutCacheTables()
	row := sampleSchedule("model-a")

	if _, err := store.GetWeekSchedule(ctx, row.CacheKey()); !errors.Is(err, ErrRelationMissing) {
		t.Errorf("get: err = %v", err)
	}
	if _, err := store.PutWeekRecommendationIfAbsent(ctx, &model.WeekRecommendation{}); !errors.Is(err, ErrRelationMissing) {
		t.Errorf("put: err = %v", err)
	}
}

func TestMemoryStoreSources(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	classID := store.AddClass(model.Class{OwnerUserID: 1, Title: "Physics"})
	text := "Week 1"
	store.AddDocument(model.SourceDocument{ClassID: classID, DocType: model.DocumentTypeSchedule, ExtractedText: &text, Status: model.DocumentStatusDone})
	store.AddDocument(model.SourceDocument{ClassID: classID, DocType: model.DocumentTypeSyllabus, Status: model.DocumentStatusFailed})

	if _, err := store.FindClassForUser(ctx, classID, 2); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("err = %v, want ErrClassNotFound", err)
	}
	docs, err := store.ListReadyDocuments(ctx, classID)
	if err != nil || len(docs) != 1 || docs[0].Text() != "Week 1" {
		t.Errorf("docs = %+v, %v", docs, err)
	}
}
