package repository

import (
	"context"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/edition/model"
)

// Repository stores editions. An edition is unique per
// (data_source, primary_identifier).
type Repository interface {
	// GetOrCreate finds or creates the edition for a source's view of an
	// identifier.
	GetOrCreate(ctx context.Context, dataSource string, primaryIdentifierID int64) (*model.Edition, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Edition, error)

	GetByPrimaryIdentifier(ctx context.Context, primaryIdentifierID int64) ([]model.Edition, error)

	// ByWorkID returns the constituent editions of a work.
	ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.Edition, error)

	// ByPermanentWorkID returns editions sharing a permanent work id,
	// excluding the given edition.
	ByPermanentWorkID(ctx context.Context, permanentWorkID string, excludeID uuid.UUID) ([]model.Edition, error)

	Update(ctx context.Context, edition *model.Edition) error

	// SetWork attaches editions to a work. A nil workID detaches.
	SetWork(ctx context.Context, editionIDs []uuid.UUID, workID *uuid.UUID) error

	// SetPrimaryForWork marks one edition as the work's canonical edition
	// and clears the flag on all its siblings.
	SetPrimaryForWork(ctx context.Context, workID, editionID uuid.UUID) error
}
