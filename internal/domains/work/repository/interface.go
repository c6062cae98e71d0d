package repository

import (
	"context"

	"github.com/google/uuid"

	"circulation-backend/internal/domains/work/model"
)

// Repository stores works and their genre assignments.
type Repository interface {
	Create(ctx context.Context) (*model.Work, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error)

	Update(ctx context.Context, work *model.Work) error

	// TouchLastUpdate bumps the work's last update time.
	TouchLastUpdate(ctx context.Context, workID uuid.UUID) error

	// ReplaceGenres clears all genre assignments on the work and installs
	// the given set.
	ReplaceGenres(ctx context.Context, workID uuid.UUID, genres []model.WorkGenre) error

	GenresFor(ctx context.Context, workID uuid.UUID) ([]model.WorkGenre, error)
}
