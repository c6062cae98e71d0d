package repository

import (
	"context"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/licensepool/model"
)

// Repository stores license pools and their circulation event log.
type Repository interface {
	// GetOrCreate finds or creates the pool for an identifier. Only one
	// pool may exist per identifier regardless of source.
	GetOrCreate(ctx context.Context, dataSource string, identifierID int64) (*model.LicensePool, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.LicensePool, error)

	GetByIdentifier(ctx context.Context, identifierID int64) (*model.LicensePool, error)

	ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.LicensePool, error)

	// WithoutWork returns pools not yet assigned to any work.
	WithoutWork(ctx context.Context, limit int) ([]model.LicensePool, error)

	Update(ctx context.Context, pool *model.LicensePool) error

	// SetWork reassigns pools to a work. A nil workID detaches.
	SetWork(ctx context.Context, poolIDs []uuid.UUID, workID *uuid.UUID) error

	AddEvent(ctx context.Context, event *model.CirculationEvent) error

	EventsForPool(ctx context.Context, poolID uuid.UUID) ([]model.CirculationEvent, error)
}
