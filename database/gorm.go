package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sahilchouksey/course-week-planner/config"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db  *gorm.DB
	log *utils.Logger

	schedules       relationCheck
	recommendations relationCheck
}

// relationCheck remembers that a relation exists. A missing relation is never remembered,
// so the next call checks again and picks up a late migration.
type relationCheck struct {
	table string
	ready atomic.Bool
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(log *utils.Logger) (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL with GORM", "error", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL with GORM", "host", getEnv.DB_HOST, "database", getEnv.DB_NAME)
	return NewGORMStore(db, log), nil
}

// NewGORMStore wraps an open connection of any GORM dialect.
func NewGORMStore(db *gorm.DB, log *utils.Logger) *GORMStore {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &GORMStore{
		db:              db,
		log:             log.With("component", "gorm_store"),
		schedules:       relationCheck{table: model.WeekSchedule{}.TableName()},
		recommendations: relationCheck{table: model.WeekRecommendation{}.TableName()},
	}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running GORM AutoMigrate")

	err := s.db.AutoMigrate(
		&model.Class{},
		&model.SourceDocument{},
		&model.WeekSchedule{},
		&model.WeekRecommendation{},
	)
	if err != nil {
		s.log.Error("AutoMigrate failed", "error", err)
		return err
	}
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *GORMStore) FindClassForUser(ctx context.Context, classID, userID uint) (*model.Class, error) {
	var class model.Class
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", classID, userID).
		Take(&class).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find class %d: %w", classID, err)
	}
	return &class, nil
}

func (s *GORMStore) ListReadyDocuments(ctx context.Context, classID uint) ([]model.SourceDocument, error) {
	var docs []model.SourceDocument
	err := s.db.WithContext(ctx).
		Where("class_id = ? AND status = ?", classID, model.DocumentStatusDone).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents of class %d: %w", classID, err)
	}
	return docs, nil
}
