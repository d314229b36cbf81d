package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/course-week-planner/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var weekKeyColumns = []clause.Column{
	{Name: "class_id"},
	{Name: "week"},
	{Name: "schedule_fingerprint"},
	{Name: "syllabus_fingerprint"},
}

func (s *GORMStore) GetWeekSchedule(ctx context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error) {
	return gormGet[model.WeekSchedule](ctx, s, &s.schedules, key)
}

func (s *GORMStore) PutWeekScheduleIfAbsent(ctx context.Context, row *model.WeekSchedule) (*model.WeekSchedule, error) {
	return gormPutIfAbsent(ctx, s, &s.schedules, row, row.CacheKey())
}

func (s *GORMStore) GetWeekRecommendation(ctx context.Context, key model.WeekCacheKey) (*model.WeekRecommendation, error) {
	return gormGet[model.WeekRecommendation](ctx, s, &s.recommendations, key)
}

func (s *GORMStore) PutWeekRecommendationIfAbsent(ctx context.Context, row *model.WeekRecommendation) (*model.WeekRecommendation, error) {
	return gormPutIfAbsent(ctx, s, &s.recommendations, row, row.CacheKey())
}

func gormGet[T any](ctx context.Context, s *GORMStore, rel *relationCheck, key model.WeekCacheKey) (*T, error) {
	if !s.hasTable(ctx, rel) {
		return nil, fmt.Errorf("%w: %s", ErrRelationMissing, rel.table)
	}

	var row T
	err := s.db.WithContext(ctx).
		Table(rel.table).
		Where("class_id = ? AND week = ? AND schedule_fingerprint = ? AND syllabus_fingerprint = ?",
			key.ClassID, key.Week, key.ScheduleFingerprint, key.SyllabusFingerprint).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(rel, err)
	}
	return &row, nil
}

func gormPutIfAbsent[T any](ctx context.Context, s *GORMStore, rel *relationCheck, row *T, key model.WeekCacheKey) (*T, error) {
	if !s.hasTable(ctx, rel) {
		return nil, fmt.Errorf("%w: %s", ErrRelationMissing, rel.table)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: weekKeyColumns, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return nil, s.classify(rel, err)
	}

	// the first writer wins; read back whatever is stored under the key
	stored, err := gormGet[T](ctx, s, rel, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%s row %s missing after insert", rel.table, key)
	}
	return stored, nil
}

func (s *GORMStore) hasTable(ctx context.Context, rel *relationCheck) bool {
	if rel.ready.Load() {
		return true
	}
	if !s.db.WithContext(ctx).Migrator().HasTable(rel.table) {
		return false
	}
	rel.ready.Store(true)
	return true
}

func (s *GORMStore) classify(rel *relationCheck, err error) error {
	if isUndefinedTable(err) {
		rel.ready.Store(false)
		return fmt.Errorf("%w: %s", ErrRelationMissing, rel.table)
	}
	return fmt.Errorf("%s: %w", rel.table, err)
}
