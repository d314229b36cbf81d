package services

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/services/weekparse"
	"github.com/sahilchouksey/course-week-planner/utils"
)

// WeekScheduleService produces the 7-day schedule of a class week
type WeekScheduleService struct {
	sources    database.SourceRepository
	cache      database.WeekCacheStore
	reconciler *ScheduleReconciler
	log        *utils.Logger
	now        func() time.Time
}

// NewWeekScheduleService creates a new week schedule service
func NewWeekScheduleService(sources database.SourceRepository, cache database.WeekCacheStore, reconciler *ScheduleReconciler, log *utils.Logger) *WeekScheduleService {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &WeekScheduleService{
		sources:    sources,
		cache:      cache,
		reconciler: reconciler,
		log:        log.With("component", "week_schedule"),
		now:        time.Now,
	}
}

// GetWeekSchedule returns the schedule of the requested week, or of the effective current
// week when week is nil. A nil schedule without error means the class has neither a
// schedule nor a syllabus document.
func (s *WeekScheduleService) GetWeekSchedule(ctx context.Context, classID, userID uint, week *int) (*model.WeekSchedule, error) {
	wc, err := loadWeekContext(ctx, s.sources, classID, userID, week, s.now())
	if err != nil {
		return nil, err
	}
	if !wc.hasSources() {
		return nil, nil
	}
	return s.scheduleFor(ctx, wc)
}

// scheduleFor serves the cached schedule for wc.key or generates and stores a new one
func (s *WeekScheduleService) scheduleFor(ctx context.Context, wc *weekContext) (*model.WeekSchedule, error) {
	cacheable := true
	cached, err := s.cache.GetWeekSchedule(ctx, wc.key)
	switch {
	case errors.Is(err, database.ErrRelationMissing):
		s.log.Warn("week schedule relation missing, caching disabled for request", "class_id", wc.key.ClassID, "week", wc.week)
		cacheable = false
	case err != nil:
		return nil, err
	case cached != nil:
		s.log.Debug("week schedule cache hit", "key", wc.key.String())
		return cached, nil
	}

	schedule, answered, err := s.generate(ctx, wc)
	if err != nil {
		return nil, err
	}
	if !cacheable || !answered {
		return schedule, nil
	}

	stored, err := s.cache.PutWeekScheduleIfAbsent(ctx, schedule)
	switch {
	case errors.Is(err, database.ErrRelationMissing):
		s.log.Warn("week schedule relation missing, returning unpersisted schedule", "class_id", wc.key.ClassID, "week", wc.week)
		return schedule, nil
	case err != nil:
		s.log.Error("failed to persist week schedule", "key", wc.key.String(), "error", err)
		return schedule, nil
	}
	return stored, nil
}

// generate runs extraction and reconciliation. Rows come from the schedule text when
// there is one, from the syllabus otherwise.
func (s *WeekScheduleService) generate(ctx context.Context, wc *weekContext) (*model.WeekSchedule, bool, error) {
	block := wc.scheduleBlock()
	if wc.scheduleText == "" {
		block = wc.syllabusBlock()
	}
	rows := weekparse.ExtractRows(block, wc.weekStart)

	result, err := s.reconciler.Reconcile(ctx, ReconcileInput{
		Week:          wc.week,
		WeekStart:     wc.weekStart,
		Rows:          rows,
		SyllabusHints: weekparse.HintLines(wc.syllabusText, SyllabusHintLimit),
	})
	if err != nil {
		return nil, false, err
	}

	modelName := result.Model
	if modelName == "" {
		modelName = DeterministicModel
	}
	s.log.Info("week schedule generated",
		"class_id", wc.key.ClassID,
		"week", wc.week,
		"rows", len(rows),
		"upcoming", len(result.Upcoming),
		"model_answered", result.ModelAnswered,
	)

	return &model.WeekSchedule{
		ClassID:             wc.key.ClassID,
		Week:                wc.week,
		ScheduleFingerprint: wc.key.ScheduleFingerprint,
		SyllabusFingerprint: wc.key.SyllabusFingerprint,
		WeekStartISO:        weekparse.FormatISO(wc.weekStart),
		WeekEndISO:          weekparse.FormatISO(wc.weekEnd),
		Days:                result.Days,
		Upcoming:            result.Upcoming,
		GeneratedAt:         s.now().UTC(),
		Model:               modelName,
	}, result.ModelAnswered, nil
}
