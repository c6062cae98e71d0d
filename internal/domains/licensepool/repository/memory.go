package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/licensepool/model"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	pools  map[uuid.UUID]*model.LicensePool
	events []model.CirculationEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pools: make(map[uuid.UUID]*model.LicensePool)}
}

func dupPool(p *model.LicensePool) *model.LicensePool {
	dup := *p
	return &dup
}

func (r *MemoryRepository) GetOrCreate(ctx context.Context, dataSource string, identifierID int64) (*model.LicensePool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.pools {
		if p.IdentifierID == identifierID {
			return dupPool(p), false, nil
		}
	}

	now := time.Now()
	p := &model.LicensePool{
		ID:           uuid.New(),
		DataSource:   dataSource,
		IdentifierID: identifierID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.pools[p.ID] = p
	return dupPool(p), true, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LicensePool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[id]
	if !ok {
		return nil, model.ErrPoolNotFound
	}
	return dupPool(p), nil
}

func (r *MemoryRepository) GetByIdentifier(ctx context.Context, identifierID int64) (*model.LicensePool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.pools {
		if p.IdentifierID == identifierID {
			return dupPool(p), nil
		}
	}
	return nil, model.ErrPoolNotFound
}

func (r *MemoryRepository) ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.LicensePool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.LicensePool
	for _, p := range r.pools {
		if p.WorkID != nil && *p.WorkID == workID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *MemoryRepository) WithoutWork(ctx context.Context, limit int) ([]model.LicensePool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.LicensePool
	for _, p := range r.pools {
		if p.WorkID == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, pool *model.LicensePool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[pool.ID]; !ok {
		return model.ErrPoolNotFound
	}
	dup := dupPool(pool)
	dup.UpdatedAt = time.Now()
	r.pools[pool.ID] = dup
	return nil
}

func (r *MemoryRepository) SetWork(ctx context.Context, poolIDs []uuid.UUID, workID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range poolIDs {
		if p, ok := r.pools[id]; ok {
			if workID == nil {
				p.WorkID = nil
			} else {
				w := *workID
				p.WorkID = &w
			}
			p.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *MemoryRepository) AddEvent(ctx context.Context, event *model.CirculationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *MemoryRepository) EventsForPool(ctx context.Context, poolID uuid.UUID) ([]model.CirculationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.CirculationEvent
	for _, e := range r.events {
		if e.LicensePoolID == poolID {
			out = append(out, e)
		}
	}
	return out, nil
}
