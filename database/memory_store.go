package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/course-week-planner/model"
)

// MemoryStore keeps everything in process memory. It backs the CLI and tests.
type MemoryStore struct {
	mu              sync.Mutex
	cacheTables     bool
	nextID          uint
	classes         map[uint]model.Class
	documents       map[uint][]model.SourceDocument
	schedules       map[model.WeekCacheKey]model.WeekSchedule
	recommendations map[model.WeekCacheKey]model.WeekRecommendation
}

// NewMemoryStore returns an empty store with both cache tables present.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cacheTables:     true,
		classes:         make(map[uint]model.Class),
		documents:       make(map[uint][]model.SourceDocument),
		schedules:       make(map[model.WeekCacheKey]model.WeekSchedule),
		recommendations: make(map[model.WeekCacheKey]model.WeekRecommendation),
	}
}

// WithoutCacheTables makes every cache call fail with ErrRelationMissing, the way a store
// whose migrations never ran behaves.
func (m *MemoryStore) WithoutCacheTables() *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheTables = false
	return m
}

func (m *MemoryStore) Init() error        { return nil }
func (m *MemoryStore) Close() error       { return nil }
func (m *MemoryStore) HealthCheck() error { return nil }

// AddClass stores class, assigning an id when it has none, and returns the id.
func (m *MemoryStore) AddClass(class model.Class) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if class.ID == 0 {
		m.nextID++
		class.ID = m.nextID
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	m.classes[class.ID] = class
	return class.ID
}

// AddDocument attaches doc to its class, assigning an id when it has none.
func (m *MemoryStore) AddDocument(doc model.SourceDocument) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == 0 {
		m.nextID++
		doc.ID = m.nextID
	}
	m.documents[doc.ClassID] = append(m.documents[doc.ClassID], doc)
	return doc.ID
}

func (m *MemoryStore) FindClassForUser(_ context.Context, classID, userID uint) (*model.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	class, ok := m.classes[classID]
	if !ok || class.OwnerUserID != userID {
		return nil, ErrClassNotFound
	}
	return &class, nil
}

func (m *MemoryStore) ListReadyDocuments(_ context.Context, classID uint) ([]model.SourceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []model.SourceDocument
	for _, doc := range m.documents[classID] {
		if doc.Status == model.DocumentStatusDone {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *MemoryStore) GetWeekSchedule(_ context.Context, key model.WeekCacheKey) (*model.WeekSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cacheTables {
		return nil, fmt.Errorf("%w: week_schedules", ErrRelationMissing)
	}
	row, ok := m.schedules[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *MemoryStore) PutWeekScheduleIfAbsent(_ context.Context, row *model.WeekSchedule) (*model.WeekSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cacheTables {
		return nil, fmt.Errorf("%w: week_schedules", ErrRelationMissing)
	}
	key := row.CacheKey()
	if existing, ok := m.schedules[key]; ok {
		return &existing, nil
	}
	stored := *row
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.schedules[key] = stored
	return &stored, nil
}

func (m *MemoryStore) GetWeekRecommendation(_ context.Context, key model.WeekCacheKey) (*model.WeekRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cacheTables {
		return nil, fmt.Errorf("%w: week_recommendations", ErrRelationMissing)
	}
	row, ok := m.recommendations[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *MemoryStore) PutWeekRecommendationIfAbsent(_ context.Context, row *model.WeekRecommendation) (*model.WeekRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cacheTables {
		return nil, fmt.Errorf("%w: week_recommendations", ErrRelationMissing)
	}
	key := row.CacheKey()
	if existing, ok := m.recommendations[key]; ok {
		return &existing, nil
	}
	stored := *row
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.recommendations[key] = stored
	return &stored, nil
}
