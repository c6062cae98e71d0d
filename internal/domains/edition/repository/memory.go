package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/edition/model"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	editions map[uuid.UUID]*model.Edition
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{editions: make(map[uuid.UUID]*model.Edition)}
}

func dupEdition(e *model.Edition) *model.Edition {
	dup := *e
	return &dup
}

func sortByID(editions []model.Edition) {
	sort.Slice(editions, func(i, j int) bool {
		return editions[i].ID.String() < editions[j].ID.String()
	})
}

func (r *MemoryRepository) GetOrCreate(ctx context.Context, dataSource string, primaryIdentifierID int64) (*model.Edition, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.editions {
		if e.DataSource == dataSource && e.PrimaryIdentifierID == primaryIdentifierID {
			return dupEdition(e), false, nil
		}
	}

	now := time.Now()
	e := &model.Edition{
		ID:                  uuid.New(),
		DataSource:          dataSource,
		PrimaryIdentifierID: primaryIdentifierID,
		Medium:              model.MediumBook,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	r.editions[e.ID] = e
	return dupEdition(e), true, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Edition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.editions[id]
	if !ok {
		return nil, model.ErrEditionNotFound
	}
	return dupEdition(e), nil
}

func (r *MemoryRepository) GetByPrimaryIdentifier(ctx context.Context, primaryIdentifierID int64) ([]model.Edition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Edition
	for _, e := range r.editions {
		if e.PrimaryIdentifierID == primaryIdentifierID {
			out = append(out, *e)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *MemoryRepository) ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.Edition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Edition
	for _, e := range r.editions {
		if e.WorkID != nil && *e.WorkID == workID {
			out = append(out, *e)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *MemoryRepository) ByPermanentWorkID(ctx context.Context, permanentWorkID string, excludeID uuid.UUID) ([]model.Edition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Edition
	for _, e := range r.editions {
		if e.PermanentWorkID == permanentWorkID && e.ID != excludeID {
			out = append(out, *e)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, edition *model.Edition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.editions[edition.ID]; !ok {
		return model.ErrEditionNotFound
	}
	dup := dupEdition(edition)
	dup.UpdatedAt = time.Now()
	r.editions[edition.ID] = dup
	return nil
}

func (r *MemoryRepository) SetWork(ctx context.Context, editionIDs []uuid.UUID, workID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range editionIDs {
		if e, ok := r.editions[id]; ok {
			if workID == nil {
				e.WorkID = nil
			} else {
				w := *workID
				e.WorkID = &w
			}
			e.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *MemoryRepository) SetPrimaryForWork(ctx context.Context, workID, editionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.editions {
		if e.WorkID != nil && *e.WorkID == workID {
			e.IsPrimaryForWork = e.ID == editionID
		}
	}
	return nil
}
