package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/measurement/model"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu           sync.RWMutex
	measurements []*model.Measurement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Add(ctx context.Context, m *model.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Weight == 0 {
		m.Weight = 1
	}
	if m.TakenAt.IsZero() {
		m.TakenAt = time.Now().UTC()
	}
	m.IsMostRecent = true

	for _, existing := range r.measurements {
		if existing.IdentifierID == m.IdentifierID &&
			existing.DataSource == m.DataSource &&
			existing.Quantity == m.Quantity {
			existing.IsMostRecent = false
		}
	}

	dup := *m
	r.measurements = append(r.measurements, &dup)
	return nil
}

func (r *MemoryRepository) MostRecentFor(ctx context.Context, identifierIDs []int64, quantities []string) ([]model.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wantedID := make(map[int64]bool, len(identifierIDs))
	for _, id := range identifierIDs {
		wantedID[id] = true
	}
	wantedQuantity := make(map[string]bool, len(quantities))
	for _, q := range quantities {
		wantedQuantity[q] = true
	}

	var out []model.Measurement
	for _, m := range r.measurements {
		if m.IsMostRecent && wantedID[m.IdentifierID] && wantedQuantity[m.Quantity] {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *MemoryRepository) SetNormalizedValue(ctx context.Context, id uuid.UUID, normalized float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.measurements {
		if m.ID == id {
			v := normalized
			m.NormalizedValue = &v
			return nil
		}
	}
	return nil
}
