package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
	"gorm.io/gorm"
)

// DemoClassTitle names the class the seeder creates
const DemoClassTitle = "Calculus II (demo)"

const demoSchedule = `MATH 1B Spring Schedule
Week 1 15-Jan Lecture 1.1 Discussion 1.2 Quiz: No Quiz
Week 2 22-Jan Lecture 2.1 Discussion 2.2 Quiz 1
Week 3 29-Jan Lecture 3.1 Discussion 3.2 Quiz 2
Week 4 5-Feb Lecture 4.1 Midterm Review
Week 5 12-Feb Holiday Lecture 5.1 Quiz 3
Week 6 19-Feb No class
Week 7 26-Feb Lecture 7.1 Discussion 7.2`

const demoSyllabus = `Course outline
Week 1 Integration by parts
Week 2 Trigonometric integrals
Week 3 Trigonometric substitution
Week 4 Partial fractions
Week 5 Improper integrals
Week 6 Spring break
Week 7 Sequences and series`

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *utils.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *utils.Logger) *Seeder {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &Seeder{db: db, log: log.With("component", "seeder")}
}

// SeedDemoClass creates a demo class owned by ownerUserID with a schedule and a syllabus,
// anchored so that today falls in week 3. It returns the existing class when one is there.
func (s *Seeder) SeedDemoClass(ownerUserID uint, now time.Time) (*model.Class, error) {
	var existing model.Class
	err := s.db.Where("owner_user_id = ? AND title = ?", ownerUserID, DemoClassTitle).First(&existing).Error
	switch {
	case err == nil:
		s.log.Info("demo class already exists, skipping", "class_id", existing.ID)
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	setAt := now.UTC()
	class := &model.Class{
		OwnerUserID:      ownerUserID,
		Title:            DemoClassTitle,
		CurrentWeek:      3,
		CurrentWeekSetAt: &setAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(class).Error; err != nil {
			return fmt.Errorf("failed to create class: %w", err)
		}
		docs := []model.SourceDocument{
			demoDocument(class.ID, model.DocumentTypeSchedule, "schedule.txt", demoSchedule),
			demoDocument(class.ID, model.DocumentTypeSyllabus, "syllabus.txt", demoSyllabus),
		}
		if err := tx.Create(&docs).Error; err != nil {
			return fmt.Errorf("failed to create documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("created demo class", "class_id", class.ID, "owner_user_id", ownerUserID)
	return class, nil
}

func demoDocument(classID uint, docType model.DocumentType, filename, text string) model.SourceDocument {
	return model.SourceDocument{
		ClassID:       classID,
		DocType:       docType,
		Filename:      filename,
		ExtractedText: &text,
		Status:        model.DocumentStatusDone,
	}
}

// RunSeeds seeds the demo class for ownerUserID
func RunSeeds(db *gorm.DB, ownerUserID uint, log *utils.Logger) (*model.Class, error) {
	return NewSeeder(db, log).SeedDemoClass(ownerUserID, time.Now())
}
