package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sahilchouksey/course-week-planner/model"
)

var (
	// ErrRelationMissing reports that a cache relation does not exist in the store. Callers
	// skip caching for the request instead of failing it.
	ErrRelationMissing = errors.New("relation does not exist")
	// ErrClassNotFound is returned when a class does not exist or is not owned by the caller
	ErrClassNotFound = errors.New("class not found")
)

// undefinedTable is the postgres SQLSTATE of "relation does not exist"
const undefinedTable = "42P01"

// WeekCacheStore persists generated week plans keyed by model.WeekCacheKey. Get methods
// return (nil, nil) on a miss. Put methods insert unless a row with the same key exists and
// return whichever row is stored afterwards, so concurrent writers converge on one row.
type WeekCacheStore interface {
	GetWeekSchedule(ctx context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error)
	PutWeekScheduleIfAbsent(ctx context.Context, row *model.WeekSchedule) (*model.WeekSchedule, error)
	GetWeekRecommendation(ctx context.Context, key model.WeekCacheKey) (*model.WeekRecommendation, error)
	PutWeekRecommendationIfAbsent(ctx context.Context, row *model.WeekRecommendation) (*model.WeekRecommendation, error)
}

// SourceRepository reads classes and their uploaded documents.
type SourceRepository interface {
	// FindClassForUser returns ErrClassNotFound unless the class exists and userID owns it.
	FindClassForUser(ctx context.Context, classID, userID uint) (*model.Class, error)
	// ListReadyDocuments lists the class documents whose text extraction is done, by id.
	ListReadyDocuments(ctx context.Context, classID uint) ([]model.SourceDocument, error)
}

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	WeekCacheStore
	SourceRepository
}

// isUndefinedTable recognises "relation does not exist" across the drivers in use.
func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return true
	}

	// Fallback: string match (sqlite, and wrapped errors that lose type info).
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlstate "+strings.ToLower(undefinedTable)) ||
		strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}
