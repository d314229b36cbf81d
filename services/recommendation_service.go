package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/services/weekparse"
	"github.com/sahilchouksey/course-week-planner/utils"
)

// TopicSelection is the topic list recommendations are curated for
type TopicSelection struct {
	Source model.TopicSource
	Topics []string
}

// RecommendationService produces curated learning resources for a class week
type RecommendationService struct {
	sources   database.SourceRepository
	cache     database.WeekCacheStore
	schedules *WeekScheduleService
	curator   *ResourceCurator
	log       *utils.Logger
	now       func() time.Time
}

// NewRecommendationService creates a new recommendation service. schedules supplies day
// labels when neither document yields topics for the week.
func NewRecommendationService(sources database.SourceRepository, cache database.WeekCacheStore, schedules *WeekScheduleService, curator *ResourceCurator, log *utils.Logger) *RecommendationService {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &RecommendationService{
		sources:   sources,
		cache:     cache,
		schedules: schedules,
		curator:   curator,
		log:       log.With("component", "recommendation"),
		now:       time.Now,
	}
}

// GetWeekRecommendation returns curated resources for the requested week, or for the
// effective current week when week is nil. A nil recommendation without error means no
// weekly content was found; a recommendation with no resources means none qualified.
func (s *RecommendationService) GetWeekRecommendation(ctx context.Context, classID, userID uint, week *int) (*model.WeekRecommendation, error) {
	wc, err := loadWeekContext(ctx, s.sources, classID, userID, week, s.now())
	if err != nil {
		return nil, err
	}
	if !wc.hasSources() {
		return nil, nil
	}

	cacheable := true
	cached, err := s.cache.GetWeekRecommendation(ctx, wc.key)
	switch {
	case errors.Is(err, database.ErrRelationMissing):
		s.log.Warn("week recommendation relation missing, caching disabled for request", "class_id", wc.key.ClassID, "week", wc.week)
		cacheable = false
	case err != nil:
		return nil, err
	case cached != nil:
		s.log.Debug("week recommendation cache hit", "key", wc.key.String())
		return cached, nil
	}

	selection, err := s.selectTopics(ctx, wc)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		s.log.Info("no weekly topics found", "class_id", wc.key.ClassID, "week", wc.week)
		return nil, nil
	}

	curated, err := s.curator.Curate(ctx, CurateInput{
		ClassTitle:  wc.class.Title,
		Week:        wc.week,
		TopicSource: selection.Source,
		Topics:      selection.Topics,
	})
	if err != nil {
		return nil, err
	}

	rec := &model.WeekRecommendation{
		ClassID:             wc.key.ClassID,
		Week:                wc.week,
		ScheduleFingerprint: wc.key.ScheduleFingerprint,
		SyllabusFingerprint: wc.key.SyllabusFingerprint,
		TopicSource:         selection.Source,
		TopicSummary:        topicSummary(curated.ConceptTitle, selection.Topics),
		Topics:              selection.Topics,
		Resources:           curated.Resources,
		GeneratedAt:         s.now().UTC(),
		Model:               curated.Model,
	}
	s.log.Info("week recommendation generated",
		"class_id", wc.key.ClassID,
		"week", wc.week,
		"topic_source", selection.Source,
		"topics", len(selection.Topics),
		"resources", len(rec.Resources),
	)

	// an answer with nothing usable is cached too, so the same week is not re-curated on every request
	if !cacheable {
		return rec, nil
	}
	stored, err := s.cache.PutWeekRecommendationIfAbsent(ctx, rec)
	switch {
	case errors.Is(err, database.ErrRelationMissing):
		s.log.Warn("week recommendation relation missing, returning unpersisted recommendation", "class_id", wc.key.ClassID, "week", wc.week)
		return rec, nil
	case err != nil:
		s.log.Error("failed to persist week recommendation", "key", wc.key.String(), "error", err)
		return rec, nil
	}
	return stored, nil
}

// selectTopics applies the topic source policy and falls back to the labels of the week
// schedule when neither document block yields topics.
func (s *RecommendationService) selectTopics(ctx context.Context, wc *weekContext) (*TopicSelection, error) {
	if selection := SelectTopics(wc.scheduleBlock(), wc.syllabusBlock(), wc.syllabusText); selection != nil {
		return selection, nil
	}
	if s.schedules == nil {
		return nil, nil
	}

	schedule, err := s.schedules.scheduleFor(ctx, wc)
	if err != nil {
		return nil, err
	}
	if topics := weekparse.TopicsFromDays(schedule.Days); len(topics) > 0 {
		return &TopicSelection{Source: model.TopicSourceSchedule, Topics: topics}, nil
	}
	return nil, nil
}

// SelectTopics picks recommendation topics for a week. Syllabus block topics win; else
// schedule topics are used, labelled "combined" when section titles were taken from the
// syllabus text. It returns nil when no topic is found.
func SelectTopics(scheduleBlock, syllabusBlock, syllabusText string) *TopicSelection {
	if topics := weekparse.TopicsFromBlock(syllabusBlock); len(topics) > 0 {
		return &TopicSelection{Source: model.TopicSourceSyllabus, Topics: topics}
	}

	contextual := weekparse.ContextualizeSections(scheduleBlock, syllabusText)
	topics := weekparse.MergeTopics(contextual, weekparse.TopicsFromBlock(scheduleBlock))
	switch {
	case len(topics) == 0:
		return nil
	case len(contextual) > 0:
		return &TopicSelection{Source: model.TopicSourceCombined, Topics: topics}
	default:
		return &TopicSelection{Source: model.TopicSourceSchedule, Topics: topics}
	}
}

// topicSummary prefers the curated concept title, then the joined topic list
func topicSummary(conceptTitle string, topics []string) string {
	if conceptTitle != "" {
		return conceptTitle
	}
	return truncateRunes(strings.Join(topics, "; "), weekparse.MaxTopicLength)
}
