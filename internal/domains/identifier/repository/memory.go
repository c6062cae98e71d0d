package repository

import (
	"context"
	"sort"
	"sync"

	"circulation-backend/internal/domains/identifier/model"
)

// MemoryRepository is the in-process store used by tests and fixtures.
type MemoryRepository struct {
	mu            sync.RWMutex
	nextID        int64
	nextEdgeID    int64
	nextResID     int64
	identifiers   map[int64]*model.Identifier
	byTypeValue   map[[2]string]int64
	equivalencies map[int64]*model.Equivalency
	resources     map[int64]*model.Resource
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:        1,
		nextEdgeID:    1,
		nextResID:     1,
		identifiers:   make(map[int64]*model.Identifier),
		byTypeValue:   make(map[[2]string]int64),
		equivalencies: make(map[int64]*model.Equivalency),
		resources:     make(map[int64]*model.Resource),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) GetOrCreate(ctx context.Context, idType, value string) (*model.Identifier, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]string{idType, value}
	if id, ok := m.byTypeValue[key]; ok {
		dup := *m.identifiers[id]
		return &dup, false, nil
	}

	ident := &model.Identifier{ID: m.nextID, Type: idType, Value: value}
	m.nextID++
	m.identifiers[ident.ID] = ident
	m.byTypeValue[key] = ident.ID
	dup := *ident
	return &dup, true, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id int64) (*model.Identifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ident, ok := m.identifiers[id]
	if !ok {
		return nil, model.ErrIdentifierNotFound
	}
	dup := *ident
	return &dup, nil
}

func (m *MemoryRepository) UpsertEquivalency(ctx context.Context, dataSource string, inputID, outputID int64, strength float64) (*model.Equivalency, error) {
	if strength < -1 || strength > 1 {
		return nil, model.ErrInvalidStrength
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, eq := range m.equivalencies {
		if eq.DataSource == dataSource && eq.InputID == inputID && eq.OutputID == outputID {
			total := eq.Strength*float64(eq.Votes) + strength
			eq.Votes++
			eq.Strength = total / float64(eq.Votes)
			dup := *eq
			return &dup, nil
		}
	}

	eq := &model.Equivalency{
		ID:         m.nextEdgeID,
		InputID:    inputID,
		OutputID:   outputID,
		DataSource: dataSource,
		Strength:   strength,
		Votes:      1,
	}
	m.nextEdgeID++
	m.equivalencies[eq.ID] = eq
	dup := *eq
	return &dup, nil
}

func (m *MemoryRepository) EquivalenciesFor(ctx context.Context, identifierIDs []int64, excludeEdgeIDs []int64) ([]model.Equivalency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]bool, len(identifierIDs))
	for _, id := range identifierIDs {
		wanted[id] = true
	}
	excluded := make(map[int64]bool, len(excludeEdgeIDs))
	for _, id := range excludeEdgeIDs {
		excluded[id] = true
	}

	var edges []model.Equivalency
	for _, eq := range m.equivalencies {
		if excluded[eq.ID] {
			continue
		}
		if wanted[eq.InputID] || wanted[eq.OutputID] {
			edges = append(edges, *eq)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

func (m *MemoryRepository) ResourcesFor(ctx context.Context, identifierIDs []int64, rels []string, dataSource string) ([]model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]bool, len(identifierIDs))
	for _, id := range identifierIDs {
		wanted[id] = true
	}
	relSet := make(map[string]bool, len(rels))
	for _, rel := range rels {
		relSet[rel] = true
	}

	var out []model.Resource
	for _, res := range m.resources {
		if !wanted[res.IdentifierID] {
			continue
		}
		if len(relSet) > 0 && !relSet[res.Rel] {
			continue
		}
		if dataSource != "" && res.DataSource != dataSource {
			continue
		}
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool {
		qi, qj := out[i].Quality, out[j].Quality
		switch {
		case qi != nil && qj != nil && *qi != *qj:
			return *qi > *qj
		case qi != nil && qj == nil:
			return true
		case qi == nil && qj != nil:
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) AddResource(ctx context.Context, resource *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resource.ID = m.nextResID
	m.nextResID++
	dup := *resource
	m.resources[resource.ID] = &dup
	return nil
}

func (m *MemoryRepository) SetResourceQuality(ctx context.Context, resourceID int64, quality float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if res, ok := m.resources[resourceID]; ok {
		res.Quality = &quality
	}
	return nil
}
