package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sahilchouksey/course-week-planner/model"
)

func TestSelectWeekScheduleSQL(t *testing.T) {
	store := NewPostgreSQLStore(nil, nil)
	key := model.WeekCacheKey{ClassID: 7, Week: 3, ScheduleFingerprint: "abc", SyllabusFingerprint: "none"}

	query, args, err := store.selectWeekSchedule(key)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.HasPrefix(query, "SELECT id, class_id, week,") || !strings.Contains(query, "FROM week_schedules WHERE") {
		t.Errorf("query = %q", query)
	}
	for _, fragment := range []string{"class_id = $1", "schedule_fingerprint = $2", "syllabus_fingerprint = $3", "week = $4", "LIMIT 1"} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query %q lacks %q", query, fragment)
		}
	}
	if fmt.Sprint(args) != "[7 abc none 3]" {
		t.Errorf("args = %v", args)
	}
}

func TestInsertWeekRecommendationSQL(t *testing.T) {
	store := NewPostgreSQLStore(nil, nil)
	row := &model.WeekRecommendation{ClassID: 1, Week: 2, ScheduleFingerprint: "a", SyllabusFingerprint: "b", GeneratedAt: time.Now()}

	query, args, err := store.insertWeekRecommendation(row)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO week_recommendations (id,class_id,week,") {
		t.Errorf("query = %q", query)
	}
	if !strings.HasSuffix(query, onConflictDoNothing) || !strings.Contains(query, "$11") {
		t.Errorf("query = %q", query)
	}
	if len(args) != len(recommendationColumns) {
		t.Errorf("got %d args, want %d", len(args), len(recommendationColumns))
	}
}

func TestIsUndefinedTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "42P01"}, true},
		{"pq other", &pq.Error{Code: "23505"}, false},
		{"pgx wrapped", fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"sqlite", errors.New("no such table: week_schedules"), true},
		{"message", errors.New(`ERROR: relation "week_schedules" does not exist (SQLSTATE 42P01)`), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := isUndefinedTable(tt.err); got != tt.want {
			t.Errorf("%s: isUndefinedTable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSQLErrorWrapsRelationMissing(t *testing.T) {
	err := sqlError("week_schedules", &pq.Error{Code: "42P01"})
	if !errors.Is(err, ErrRelationMissing) {
		t.Errorf("err = %v, want ErrRelationMissing", err)
	}
	base := errors.New("boom")
	if err := sqlError("week_schedules", base); !errors.Is(err, base) || errors.Is(err, ErrRelationMissing) {
		t.Errorf("err = %v", err)
	}
}
