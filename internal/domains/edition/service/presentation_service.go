package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/edition/model"
	"circulation-backend/internal/domains/edition/repository"
	identifiermodel "circulation-backend/internal/domains/identifier/model"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	identifierservice "circulation-backend/internal/domains/identifier/service"
	"circulation-backend/internal/shared/datasource"
)

// Cover search radius: first the edition's own identifier, then the full
// equivalence neighborhood.
var coverSearchDistances = []int{0, 5}

// PresentationService recomputes an edition's derived display fields.
type PresentationService struct {
	repo        repository.Repository
	identifiers identifierrepo.Repository
	equivalence *identifierservice.EquivalenceService
}

func NewPresentationService(repo repository.Repository, identifiers identifierrepo.Repository, equivalence *identifierservice.EquivalenceService) *PresentationService {
	return &PresentationService{repo: repo, identifiers: identifiers, equivalence: equivalence}
}

// CalculatePresentation fills in the edition's sort title, sort author,
// permanent work id, and cover, then persists the edition.
func (s *PresentationService) CalculatePresentation(ctx context.Context, edition *model.Edition) error {
	// NYT list data carries no real bibliographic detail. Recomputing
	// presentation from it would destroy good data, so skip it entirely.
	if edition.DataSource == datasource.NYT {
		return nil
	}

	if edition.SortTitle == "" && edition.Title != "" {
		edition.SortTitle = model.SortTitleFor(edition.Title)
	}
	if edition.SortAuthor == "" && edition.Author != "" {
		edition.SortAuthor = sortAuthorFor(edition.Author)
	}

	edition.CalculatePermanentWorkID()

	if err := s.chooseCover(ctx, edition); err != nil {
		return err
	}

	log.Debug().
		Str("edition_id", edition.ID.String()).
		Str("title", edition.Title).
		Str("author", edition.Author).
		Str("permanent_work_id", edition.PermanentWorkID).
		Msg("Edition presentation calculated")

	return s.repo.Update(ctx, edition)
}

// chooseCover picks the best image resource for the edition, preferring one
// attached directly to its primary identifier over one reached through the
// equivalence graph.
func (s *PresentationService) chooseCover(ctx context.Context, edition *model.Edition) error {
	for _, distance := range coverSearchDistances {
		ids := []int64{edition.PrimaryIdentifierID}
		if distance > 0 {
			flat, err := s.equivalence.FlatEquivalentIDs(ctx, ids, distance, identifierservice.DefaultThreshold)
			if err != nil {
				return err
			}
			ids = flat
		}

		cover, thumbnail, err := s.bestCoverFor(ctx, ids)
		if err != nil {
			return err
		}
		if cover != "" {
			edition.CoverURL = cover
			edition.CoverThumbnailURL = thumbnail
			return nil
		}
	}
	return nil
}

// bestCoverFor returns the highest-quality image URL among the identifiers,
// plus a thumbnail if one exists.
func (s *PresentationService) bestCoverFor(ctx context.Context, identifierIDs []int64) (cover, thumbnail string, err error) {
	resources, err := s.identifiers.ResourcesFor(ctx, identifierIDs,
		[]string{identifiermodel.RelImage, identifiermodel.RelThumbnail}, "")
	if err != nil {
		return "", "", err
	}

	// ResourcesFor orders by quality, so first hit per rel wins.
	for _, res := range resources {
		switch res.Rel {
		case identifiermodel.RelImage:
			if cover == "" {
				cover = res.URL
			}
		case identifiermodel.RelThumbnail:
			if thumbnail == "" {
				thumbnail = res.URL
			}
		}
	}
	return cover, thumbnail, nil
}

// sortAuthorFor converts "First Last" into "Last, First". Display strings
// already in sort order (containing a comma) pass through unchanged.
func sortAuthorFor(author string) string {
	if strings.Contains(author, ",") {
		return author
	}
	words := strings.Fields(author)
	if len(words) < 2 {
		return author
	}
	last := words[len(words)-1]
	return last + ", " + strings.Join(words[:len(words)-1], " ")
}
