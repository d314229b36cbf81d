package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/sahilchouksey/course-week-planner/model"
)

const onConflictDoNothing = "ON CONFLICT (class_id, week, schedule_fingerprint, syllabus_fingerprint) DO NOTHING"

var (
	scheduleColumns = []string{
		"id", "class_id", "week", "schedule_fingerprint", "syllabus_fingerprint",
		"week_start_iso", "week_end_iso", "days", "upcoming", "generated_at", "model",
	}
	recommendationColumns = []string{
		"id", "class_id", "week", "schedule_fingerprint", "syllabus_fingerprint",
		"topic_source", "topic_summary", "topics", "resources", "generated_at", "model",
	}
)

func keyWhere(key model.WeekCacheKey) sq.Eq {
	return sq.Eq{
		"class_id":             key.ClassID,
		"week":                 key.Week,
		"schedule_fingerprint": key.ScheduleFingerprint,
		"syllabus_fingerprint": key.SyllabusFingerprint,
	}
}

func (s *PostgreSQLStore) selectWeekSchedule(key model.WeekCacheKey) (string, []interface{}, error) {
	return s.qb.Select(scheduleColumns...).From("week_schedules").Where(keyWhere(key)).Limit(1).ToSql()
}

func (s *PostgreSQLStore) insertWeekSchedule(row *model.WeekSchedule) (string, []interface{}, error) {
	return s.qb.Insert("week_schedules").
		Columns(scheduleColumns...).
		Values(row.ID, row.ClassID, row.Week, row.ScheduleFingerprint, row.SyllabusFingerprint,
			row.WeekStartISO, row.WeekEndISO, row.Days, row.Upcoming, row.GeneratedAt, row.Model).
		Suffix(onConflictDoNothing).
		ToSql()
}

func (s *PostgreSQLStore) GetWeekSchedule(ctx context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error) {
	query, args, err := s.selectWeekSchedule(key)
	if err != nil {
		return nil, err
	}

	var row model.WeekSchedule
	var modelName sql.NullString
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.ClassID, &row.Week, &row.ScheduleFingerprint, &row.SyllabusFingerprint,
		&row.WeekStartISO, &row.WeekEndISO, &row.Days, &row.Upcoming, &row.GeneratedAt, &modelName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, sqlError("week_schedules", err)
	}
	row.Model = modelName.String
	return &row, nil
}

func (s *PostgreSQLStore) PutWeekScheduleIfAbsent(ctx context.Context, row *model.WeekSchedule) (*model.WeekSchedule, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	query, args, err := s.insertWeekSchedule(row)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, sqlError("week_schedules", err)
	}

	stored, err := s.GetWeekSchedule(ctx, row.CacheKey())
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("week_schedules row %s missing after insert", row.CacheKey())
	}
	return stored, nil
}

func (s *PostgreSQLStore) selectWeekRecommendation(key model.WeekCacheKey) (string, []interface{}, error) {
	return s.qb.Select(recommendationColumns...).From("week_recommendations").Where(keyWhere(key)).Limit(1).ToSql()
}

func (s *PostgreSQLStore) insertWeekRecommendation(row *model.WeekRecommendation) (string, []interface{}, error) {
	return s.qb.Insert("week_recommendations").
		Columns(recommendationColumns...).
		Values(row.ID, row.ClassID, row.Week, row.ScheduleFingerprint, row.SyllabusFingerprint,
			row.TopicSource, row.TopicSummary, row.Topics, row.Resources, row.GeneratedAt, row.Model).
		Suffix(onConflictDoNothing).
		ToSql()
}

func (s *PostgreSQLStore) GetWeekRecommendation(ctx context.Context, key model.WeekCacheKey) (*model.WeekRecommendation, error) {
	query, args, err := s.selectWeekRecommendation(key)
	if err != nil {
		return nil, err
	}

	var row model.WeekRecommendation
	var summary, modelName sql.NullString
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.ClassID, &row.Week, &row.ScheduleFingerprint, &row.SyllabusFingerprint,
		&row.TopicSource, &summary, &row.Topics, &row.Resources, &row.GeneratedAt, &modelName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, sqlError("week_recommendations", err)
	}
	row.TopicSummary = summary.String
	row.Model = modelName.String
	return &row, nil
}

func (s *PostgreSQLStore) PutWeekRecommendationIfAbsent(ctx context.Context, row *model.WeekRecommendation) (*model.WeekRecommendation, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	query, args, err := s.insertWeekRecommendation(row)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, sqlError("week_recommendations", err)
	}

	stored, err := s.GetWeekRecommendation(ctx, row.CacheKey())
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("week_recommendations row %s missing after insert", row.CacheKey())
	}
	return stored, nil
}

func sqlError(table string, err error) error {
	if isUndefinedTable(err) {
		return fmt.Errorf("%w: %s", ErrRelationMissing, table)
	}
	return fmt.Errorf("%s: %w", table, err)
}
