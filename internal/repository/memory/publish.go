package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/domain"
)

const defaultListLimit = 50

// PublishRepository is an in-memory implementation of PublishRecordRepository
type PublishRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.PublishResult
	order   []string
}

// NewPublishRepository creates a new in-memory publish repository
func NewPublishRepository() *PublishRepository {
	return &PublishRepository{
		records: make(map[string]*domain.PublishResult),
	}
}

// Save creates or updates a record
func (r *PublishRepository) Save(result *domain.PublishResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	if _, exists := r.records[result.ID]; !exists {
		r.order = append(r.order, result.ID)
	}
	stored := *result
	r.records[result.ID] = &stored
	return nil
}

// List returns the most recent records first
func (r *PublishRepository) List(limit int) ([]*domain.PublishResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	results := make([]*domain.PublishResult, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := *r.records[r.order[i]]
		results = append(results, &rec)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetByID returns a record by ID
func (r *PublishRepository) GetByID(id string) (*domain.PublishResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[id]
	if !exists {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

var _ domain.PublishRecordRepository = (*PublishRepository)(nil)
