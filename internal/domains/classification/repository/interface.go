package repository

import (
	"context"

	"circulation-backend/internal/domains/classification/model"
)

// Repository stores subjects and the classifications that bind them to
// identifiers.
type Repository interface {
	// GetOrCreateSubject finds or creates a subject for a
	// (type, identifier) pair.
	GetOrCreateSubject(ctx context.Context, subjectType, identifier, name string) (*model.Subject, bool, error)

	UpdateSubject(ctx context.Context, subject *model.Subject) error

	// UpsertClassification records that a source classified an identifier
	// under a subject. Re-classification by the same source replaces the
	// weight.
	UpsertClassification(ctx context.Context, identifierID, subjectID int64, dataSource string, weight int) (*model.Classification, error)

	// ForIdentifiers returns all classifications touching the identifiers,
	// each joined with its subject.
	ForIdentifiers(ctx context.Context, identifierIDs []int64) ([]model.WithSubject, error)
}
