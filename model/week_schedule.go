package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// MinWeek and MaxWeek bound every week number in a term
	MinWeek = 1
	MaxWeek = 20

	// NoItemsLabel is the primary label of a day nothing is known about
	NoItemsLabel = "No items"
	// NoClassLabel is the primary label of a day without class
	NoClassLabel = "No class"

	// DaySourceAI marks days produced by the reconciler
	DaySourceAI = "ai"
)

// WeekRawRow is one calendar entry found inside a week block. Rows are keyed by date and
// never persisted.
type WeekRawRow struct {
	DateISO        string `json:"date"`
	DateToken      string `json:"date_token"`
	LectureCell    string `json:"lecture,omitempty"`
	DiscussionCell string `json:"discussion,omitempty"`
	QuizCell       string `json:"quiz,omitempty"`
	SectionCell    string `json:"section,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// WeekScheduleDay is one of the seven entries of a WeekSchedule
type WeekScheduleDay struct {
	DateISO   string   `json:"date"`
	DayOfWeek string   `json:"dow"`
	Primary   string   `json:"primary"`
	Tags      []string `json:"tags,omitempty"`
	Source    string   `json:"source"`
}

// WeekScheduleUpcoming is a due item surfaced next to the weekly grid
type WeekScheduleUpcoming struct {
	Title       string `json:"title"`
	DueDateISO  string `json:"due_date"`
	DueDowLabel string `json:"due_dow_label"`
}

// WeekSchedule is a cached, generated weekly schedule. Rows are append-only: a change of
// either fingerprint produces a new row.
type WeekSchedule struct {
	ID                  uuid.UUID                                 `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID             uint                                      `gorm:"not null;uniqueIndex:idx_week_schedule_key,priority:1" json:"class_id"`
	Week                int                                       `gorm:"not null;uniqueIndex:idx_week_schedule_key,priority:2" json:"week"`
	ScheduleFingerprint string                                    `gorm:"type:varchar(16);not null;uniqueIndex:idx_week_schedule_key,priority:3" json:"schedule_fingerprint"`
	SyllabusFingerprint string                                    `gorm:"type:varchar(16);not null;uniqueIndex:idx_week_schedule_key,priority:4" json:"syllabus_fingerprint"`
	WeekStartISO        string                                    `gorm:"type:varchar(10);not null" json:"week_start"`
	WeekEndISO          string                                    `gorm:"type:varchar(10);not null" json:"week_end"`
	Days                datatypes.JSONSlice[WeekScheduleDay]      `json:"days"`
	Upcoming            datatypes.JSONSlice[WeekScheduleUpcoming] `json:"upcoming"`
	GeneratedAt         time.Time                                 `gorm:"not null" json:"generated_at"`
	Model               string                                    `gorm:"type:varchar(100)" json:"model"`
}

// TableName pins the relation name the cache layer checks for
func (WeekSchedule) TableName() string {
	return "week_schedules"
}

// CacheKey returns the uniqueness key of the row
func (s *WeekSchedule) CacheKey() WeekCacheKey {
	return WeekCacheKey{
		ClassID:             s.ClassID,
		Week:                s.Week,
		ScheduleFingerprint: s.ScheduleFingerprint,
		SyllabusFingerprint: s.SyllabusFingerprint,
	}
}

// BeforeCreate assigns the row id
func (r *WeekSchedule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
