package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/classification/model"
	"circulation-backend/internal/domains/classification/repository"
	"circulation-backend/internal/shared/taxonomy"
)

// ClassifierService is the write path for classifications. Subjects are
// resolved against the genre taxonomy lazily, the first time any
// classification touches them.
type ClassifierService struct {
	repo repository.Repository
}

func NewClassifierService(repo repository.Repository) *ClassifierService {
	return &ClassifierService{repo: repo}
}

// Classify records that dataSource filed the identifier under the subject
// named by (subjectType, subjectIdentifier) with the given weight.
func (s *ClassifierService) Classify(ctx context.Context, identifierID int64, dataSource, subjectType, subjectIdentifier, subjectName string, weight int) (*model.Classification, error) {
	subject, _, err := s.repo.GetOrCreateSubject(ctx, subjectType, subjectIdentifier, subjectName)
	if err != nil {
		return nil, err
	}

	if !subject.Checked {
		if err := s.CheckSubject(ctx, subject); err != nil {
			return nil, err
		}
	}

	return s.repo.UpsertClassification(ctx, identifierID, subject.ID, dataSource, weight)
}

// CheckSubject resolves a subject against the taxonomy and persists the
// outcome. A subject that resolves to nothing is still marked checked so it
// isn't looked up again.
func (s *ClassifierService) CheckSubject(ctx context.Context, subject *model.Subject) error {
	resolved := taxonomy.Classify(subject.Type, subject.Identifier)
	subject.Genre = resolved.Genre
	subject.Audience = resolved.Audience
	subject.Fiction = resolved.Fiction
	subject.Checked = true

	if err := s.repo.UpdateSubject(ctx, subject); err != nil {
		return err
	}

	log.Debug().
		Str("type", subject.Type).
		Str("identifier", subject.Identifier).
		Str("genre", subject.Genre).
		Str("audience", subject.Audience).
		Msg("Subject checked against taxonomy")

	return nil
}
