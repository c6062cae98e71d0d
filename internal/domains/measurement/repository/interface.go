package repository

import (
	"context"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/measurement/model"
)

// Repository stores measurements.
type Repository interface {
	// Add records a new measurement and supersedes the previous most
	// recent one for the same (identifier, source, quantity).
	Add(ctx context.Context, m *model.Measurement) error

	// MostRecentFor returns the current measurements of the given
	// quantities across the identifiers.
	MostRecentFor(ctx context.Context, identifierIDs []int64, quantities []string) ([]model.Measurement, error)

	// SetNormalizedValue persists a lazily computed normalization.
	SetNormalizedValue(ctx context.Context, id uuid.UUID, normalized float64) error
}
