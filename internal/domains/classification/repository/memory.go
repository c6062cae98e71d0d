package repository

import (
	"context"
	"sync"
	"time"

	"circulation-backend/internal/domains/classification/model"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu              sync.RWMutex
	subjects        map[int64]*model.Subject
	classifications map[int64]*model.Classification
	nextSubjectID   int64
	nextClassID     int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subjects:        make(map[int64]*model.Subject),
		classifications: make(map[int64]*model.Classification),
	}
}

func (r *MemoryRepository) GetOrCreateSubject(ctx context.Context, subjectType, identifier, name string) (*model.Subject, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subjects {
		if s.Type == subjectType && s.Identifier == identifier {
			dup := *s
			return &dup, false, nil
		}
	}

	r.nextSubjectID++
	s := &model.Subject{
		ID:         r.nextSubjectID,
		Type:       subjectType,
		Identifier: identifier,
		Name:       name,
		CreatedAt:  time.Now(),
	}
	r.subjects[s.ID] = s
	dup := *s
	return &dup, true, nil
}

func (r *MemoryRepository) UpdateSubject(ctx context.Context, subject *model.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subjects[subject.ID]; !ok {
		return model.ErrSubjectNotFound
	}
	dup := *subject
	r.subjects[subject.ID] = &dup
	return nil
}

func (r *MemoryRepository) UpsertClassification(ctx context.Context, identifierID, subjectID int64, dataSource string, weight int) (*model.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.classifications {
		if c.IdentifierID == identifierID && c.SubjectID == subjectID && c.DataSource == dataSource {
			c.Weight = weight
			dup := *c
			return &dup, nil
		}
	}

	r.nextClassID++
	c := &model.Classification{
		ID:           r.nextClassID,
		IdentifierID: identifierID,
		SubjectID:    subjectID,
		DataSource:   dataSource,
		Weight:       weight,
	}
	r.classifications[c.ID] = c
	dup := *c
	return &dup, nil
}

func (r *MemoryRepository) ForIdentifiers(ctx context.Context, identifierIDs []int64) ([]model.WithSubject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[int64]bool, len(identifierIDs))
	for _, id := range identifierIDs {
		wanted[id] = true
	}

	var out []model.WithSubject
	for id := int64(1); id <= r.nextClassID; id++ {
		c, ok := r.classifications[id]
		if !ok || !wanted[c.IdentifierID] {
			continue
		}
		out = append(out, model.WithSubject{
			Classification: *c,
			Subject:        *r.subjects[c.SubjectID],
		})
	}
	return out, nil
}
