package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TopicSource tells which document the recommendation topics came from
type TopicSource string

const (
	TopicSourceSchedule TopicSource = "schedule"
	TopicSourceSyllabus TopicSource = "syllabus"
	TopicSourceCombined TopicSource = "combined"
)

// ResourceType is the closed set of curated resource kinds
type ResourceType string

const (
	ResourceTypeArticle     ResourceType = "Article"
	ResourceTypeVideo       ResourceType = "Video"
	ResourceTypeCourseNotes ResourceType = "Course Notes"
)

// RequiredResourceCount is the only non-empty size a resource set may have
const RequiredResourceCount = 3

// CuratedResource is an external learning resource that passed validation
type CuratedResource struct {
	Title   string       `json:"title"`
	Type    ResourceType `json:"type"`
	Source  string       `json:"source"`
	URL     string       `json:"url"`
	Summary string       `json:"summary"`
}

// WeekRecommendation is a cached set of curated resources for a class week.
// Resources holds exactly RequiredResourceCount items or none.
type WeekRecommendation struct {
	ID                  uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID             uint                                 `gorm:"not null;uniqueIndex:idx_week_recommendation_key,priority:1" json:"class_id"`
	Week                int                                  `gorm:"not null;uniqueIndex:idx_week_recommendation_key,priority:2" json:"week"`
	ScheduleFingerprint string                               `gorm:"type:varchar(16);not null;uniqueIndex:idx_week_recommendation_key,priority:3" json:"schedule_fingerprint"`
	SyllabusFingerprint string                               `gorm:"type:varchar(16);not null;uniqueIndex:idx_week_recommendation_key,priority:4" json:"syllabus_fingerprint"`
	TopicSource         TopicSource                          `gorm:"type:varchar(20);not null" json:"topic_source"`
	TopicSummary        string                               `gorm:"type:text" json:"topic_summary"`
	Topics              datatypes.JSONSlice[string]          `json:"topics"`
	Resources           datatypes.JSONSlice[CuratedResource] `json:"resources"`
	GeneratedAt         time.Time                            `gorm:"not null" json:"generated_at"`
	Model               string                               `gorm:"type:varchar(100)" json:"model"`
}

// TableName pins the relation name the cache layer checks for
func (WeekRecommendation) TableName() string {
	return "week_recommendations"
}

// CacheKey returns the uniqueness key of the row
func (r *WeekRecommendation) CacheKey() WeekCacheKey {
	return WeekCacheKey{
		ClassID:             r.ClassID,
		Week:                r.Week,
		ScheduleFingerprint: r.ScheduleFingerprint,
		SyllabusFingerprint: r.SyllabusFingerprint,
	}
}

// BeforeCreate assigns the row id
func (r *WeekRecommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
