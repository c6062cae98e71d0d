package repository

import (
	"context"

	"circulation-backend/internal/domains/identifier/model"
)

// Repository is the store of identifiers, equivalency edges, and attached
// resources.
type Repository interface {
	// GetOrCreate finds or creates the identifier for a (type, value) pair.
	GetOrCreate(ctx context.Context, idType, value string) (*model.Identifier, bool, error)

	GetByID(ctx context.Context, id int64) (*model.Identifier, error)

	// UpsertEquivalency records an assertion that input and output denote the
	// same work. Re-assertion by the same source revises strength as a
	// vote-weighted average and increments votes; the row count never shrinks.
	UpsertEquivalency(ctx context.Context, dataSource string, inputID, outputID int64, strength float64) (*model.Equivalency, error)

	// EquivalenciesFor returns all edges touching any of the given
	// identifiers, in either direction, excluding already-consumed edge ids.
	EquivalenciesFor(ctx context.Context, identifierIDs []int64, excludeEdgeIDs []int64) ([]model.Equivalency, error)

	// ResourcesFor returns resources attached to any of the identifiers,
	// optionally restricted by rel and data source.
	ResourcesFor(ctx context.Context, identifierIDs []int64, rels []string, dataSource string) ([]model.Resource, error)

	AddResource(ctx context.Context, resource *model.Resource) error

	SetResourceQuality(ctx context.Context, resourceID int64, quality float64) error
}
