package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/services/weekparse"
)

// DeterministicModel is recorded on rows generated without a model answer
const DeterministicModel = "deterministic"

// weekContext is the resolved input of one class week request
type weekContext struct {
	class     *model.Class
	week      int
	weekStart time.Time
	weekEnd   time.Time

	// normalized document texts, "" when the document is absent
	scheduleText string
	syllabusText string

	key model.WeekCacheKey
}

func (wc *weekContext) hasSources() bool {
	return wc.scheduleText != "" || wc.syllabusText != ""
}

// scheduleBlock and syllabusBlock return the text of the target week in each document
func (wc *weekContext) scheduleBlock() string {
	return weekparse.WeekBlock(wc.scheduleText, wc.week)
}

func (wc *weekContext) syllabusBlock() string {
	return weekparse.WeekBlock(wc.syllabusText, wc.week)
}

// loadWeekContext authorizes the caller, resolves the target week and fingerprints the
// current documents. week nil means the effective current week.
func loadWeekContext(ctx context.Context, sources database.SourceRepository, classID, userID uint, week *int, now time.Time) (*weekContext, error) {
	class, err := sources.FindClassForUser(ctx, classID, userID)
	if err != nil {
		return nil, err
	}
	docs, err := sources.ListReadyDocuments(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for class %d: %w", classID, err)
	}

	anchor := class.WeekAnchor()
	target := weekparse.EffectiveCurrentWeek(class.CurrentWeek, anchor, now)
	if week != nil {
		target = weekparse.ClampWeek(*week)
	}
	weekStart, weekEnd := weekparse.WeekRange(weekparse.TermStart(anchor, class.CurrentWeek), target)

	scheduleRaw := collectSources(docs, model.DocumentTypeSchedule)
	syllabusRaw := collectSources(docs, model.DocumentTypeSyllabus)

	return &weekContext{
		class:        class,
		week:         target,
		weekStart:    weekStart,
		weekEnd:      weekEnd,
		scheduleText: weekparse.Normalize(scheduleRaw),
		syllabusText: weekparse.Normalize(syllabusRaw),
		key: model.WeekCacheKey{
			ClassID:             class.ID,
			Week:                target,
			ScheduleFingerprint: Fingerprint(scheduleRaw),
			SyllabusFingerprint: Fingerprint(syllabusRaw),
		},
	}, nil
}

// collectSources concatenates the extracted text of every ready document of docType, in
// the order given, separated by a blank line.
func collectSources(docs []model.SourceDocument, docType model.DocumentType) string {
	var parts []string
	for i := range docs {
		if docs[i].DocType != docType || docs[i].Status != model.DocumentStatusDone {
			continue
		}
		if text := strings.TrimSpace(docs[i].Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
