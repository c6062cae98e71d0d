package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/work/model"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	works  map[uuid.UUID]*model.Work
	genres map[uuid.UUID][]model.WorkGenre
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		works:  make(map[uuid.UUID]*model.Work),
		genres: make(map[uuid.UUID][]model.WorkGenre),
	}
}

func (r *MemoryRepository) Create(ctx context.Context) (*model.Work, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	w := &model.Work{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	r.works[w.ID] = w
	dup := *w
	return &dup, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.works[id]
	if !ok {
		return nil, model.ErrWorkNotFound
	}
	dup := *w
	return &dup, nil
}

func (r *MemoryRepository) Update(ctx context.Context, work *model.Work) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.works[work.ID]; !ok {
		return model.ErrWorkNotFound
	}
	dup := *work
	dup.UpdatedAt = time.Now()
	r.works[work.ID] = &dup
	return nil
}

func (r *MemoryRepository) TouchLastUpdate(ctx context.Context, workID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.works[workID]
	if !ok {
		return model.ErrWorkNotFound
	}
	now := time.Now()
	w.LastUpdateTime = &now
	w.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) ReplaceGenres(ctx context.Context, workID uuid.UUID, genres []model.WorkGenre) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.genres[workID] = append([]model.WorkGenre(nil), genres...)
	return nil
}

func (r *MemoryRepository) GenresFor(ctx context.Context, workID uuid.UUID) ([]model.WorkGenre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.WorkGenre(nil), r.genres[workID]...), nil
}
