package model

import (
	"time"

	"gorm.io/gorm"
)

// Class is a course a student follows. CurrentWeek is the week number the owner last set;
// CurrentWeekSetAt is when it was set and anchors the term calendar.
type Class struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	OwnerUserID      uint           `gorm:"not null;index" json:"owner_user_id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	CurrentWeek      int            `gorm:"not null;default:1" json:"current_week"`
	CurrentWeekSetAt *time.Time     `json:"current_week_set_at,omitempty"`

	Documents []SourceDocument `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// WeekAnchor returns the date the stored week number was valid on.
func (c *Class) WeekAnchor() time.Time {
	if c.CurrentWeekSetAt != nil && !c.CurrentWeekSetAt.IsZero() {
		return *c.CurrentWeekSetAt
	}
	return c.CreatedAt
}
