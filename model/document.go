package model

import (
	"time"

	"gorm.io/gorm"
)

// DocumentType represents the role an uploaded document plays for a class
type DocumentType string

const (
	DocumentTypeSyllabus DocumentType = "syllabus"
	DocumentTypeSchedule DocumentType = "schedule"
	DocumentTypeOther    DocumentType = "other"
)

// DocumentStatus tracks text extraction for an uploaded document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusDone       DocumentStatus = "done"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// SourceDocument is an uploaded course document. Only ExtractedText of documents with
// status done is read by the week planner.
type SourceDocument struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	ClassID       uint           `gorm:"not null;index" json:"class_id"`
	DocType       DocumentType   `gorm:"type:varchar(20);not null" json:"doc_type"`
	Filename      string         `gorm:"type:varchar(255)" json:"filename"`
	ExtractedText *string        `gorm:"type:text" json:"-"`
	Status        DocumentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
}

// Text returns the extracted text, or "" when there is none.
func (d *SourceDocument) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}
