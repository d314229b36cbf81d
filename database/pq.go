package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/sahilchouksey/course-week-planner/config"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
)

// PostgreSQLStore talks to postgres through database/sql and lib/pq, building statements
// with squirrel. It reads the same tables GORMStore migrates.
type PostgreSQLStore struct {
	db  *sql.DB
	log *utils.Logger
	qb  sq.StatementBuilderType
}

func Start(log *utils.Logger) (*PostgreSQLStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME, getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		log.Error("unable to open PostgreSQL", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", "host", getEnv.DB_HOST, "database", getEnv.DB_NAME)
	return NewPostgreSQLStore(db, log), nil
}

// NewPostgreSQLStore wraps an open *sql.DB.
func NewPostgreSQLStore(db *sql.DB, log *utils.Logger) *PostgreSQLStore {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &PostgreSQLStore{
		db:  db,
		log: log.With("component", "sql_store"),
		qb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Init creates the tables if they do not exist yet
func (s *PostgreSQLStore) Init() error {
	s.log.Info("initializing PostgreSQL tables")
	_, err := s.db.Exec(schemaSQL)
	return err
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) FindClassForUser(ctx context.Context, classID, userID uint) (*model.Class, error) {
	query, args, err := s.qb.
		Select("id", "created_at", "updated_at", "owner_user_id", "title", "current_week", "current_week_set_at").
		From("classes").
		Where(sq.Eq{"id": classID, "owner_user_id": userID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var class model.Class
	var setAt sql.NullTime
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&class.ID, &class.CreatedAt, &class.UpdatedAt, &class.OwnerUserID,
		&class.Title, &class.CurrentWeek, &setAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find class %d: %w", classID, err)
	}
	if setAt.Valid {
		class.CurrentWeekSetAt = &setAt.Time
	}
	return &class, nil
}

func (s *PostgreSQLStore) ListReadyDocuments(ctx context.Context, classID uint) ([]model.SourceDocument, error) {
	query, args, err := s.qb.
		Select("id", "created_at", "class_id", "doc_type", "filename", "extracted_text", "status").
		From("source_documents").
		Where(sq.Eq{"class_id": classID, "status": model.DocumentStatusDone, "deleted_at": nil}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents of class %d: %w", classID, err)
	}
	defer rows.Close()

	var docs []model.SourceDocument
	for rows.Next() {
		var doc model.SourceDocument
		var text, filename sql.NullString
		if err := rows.Scan(&doc.ID, &doc.CreatedAt, &doc.ClassID, &doc.DocType, &filename, &text, &doc.Status); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Filename = filename.String
		if text.Valid {
			t := text.String
			doc.ExtractedText = &t
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS classes (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ,
	owner_user_id BIGINT NOT NULL,
	title VARCHAR(255) NOT NULL,
	current_week BIGINT NOT NULL DEFAULT 1,
	current_week_set_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS source_documents (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ,
	class_id BIGINT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
	doc_type VARCHAR(20) NOT NULL,
	filename VARCHAR(255),
	extracted_text TEXT,
	status VARCHAR(20) DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS week_schedules (
	id UUID PRIMARY KEY,
	class_id BIGINT NOT NULL,
	week BIGINT NOT NULL,
	schedule_fingerprint VARCHAR(16) NOT NULL,
	syllabus_fingerprint VARCHAR(16) NOT NULL,
	week_start_iso VARCHAR(10) NOT NULL,
	week_end_iso VARCHAR(10) NOT NULL,
	days JSONB,
	upcoming JSONB,
	generated_at TIMESTAMPTZ NOT NULL,
	model VARCHAR(100)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_week_schedule_key
	ON week_schedules (class_id, week, schedule_fingerprint, syllabus_fingerprint);

CREATE TABLE IF NOT EXISTS week_recommendations (
	id UUID PRIMARY KEY,
	class_id BIGINT NOT NULL,
	week BIGINT NOT NULL,
	schedule_fingerprint VARCHAR(16) NOT NULL,
	syllabus_fingerprint VARCHAR(16) NOT NULL,
	topic_source VARCHAR(20) NOT NULL,
	topic_summary TEXT,
	topics JSONB,
	resources JSONB,
	generated_at TIMESTAMPTZ NOT NULL,
	model VARCHAR(100)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_week_recommendation_key
	ON week_recommendations (class_id, week, schedule_fingerprint, syllabus_fingerprint);
`
