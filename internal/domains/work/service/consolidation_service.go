package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	editionmodel "circulation-backend/internal/domains/edition/model"
	editionrepo "circulation-backend/internal/domains/edition/repository"
	editionservice "circulation-backend/internal/domains/edition/service"
	poolmodel "circulation-backend/internal/domains/licensepool/model"
	poolrepo "circulation-backend/internal/domains/licensepool/repository"
	"circulation-backend/internal/domains/work/model"
	"circulation-backend/internal/domains/work/repository"
)

// ConsolidationService decides which work a license pool belongs to,
// creating, reusing, or merging works.
type ConsolidationService struct {
	works        repository.Repository
	editions     editionrepo.Repository
	editionPres  *editionservice.PresentationService
	pools        poolrepo.Repository
	presentation *PresentationService
}

func NewConsolidationService(
	works repository.Repository,
	editions editionrepo.Repository,
	editionPres *editionservice.PresentationService,
	pools poolrepo.Repository,
	presentation *PresentationService,
) *ConsolidationService {
	return &ConsolidationService{
		works:        works,
		editions:     editions,
		editionPres:  editionPres,
		pools:        pools,
		presentation: presentation,
	}
}

// CalculateWork finds or creates the work for a license pool.
//
// A pool that already has a work keeps it. Open-access pools may join an
// existing open-access work that shares the edition's permanent work id;
// commercial pools always get a dedicated work, so that paid licenses are
// never silently pooled with a possibly mismatched open-access copy.
//
// Ordinarily no work is created for an edition missing title or author,
// but some books genuinely have no known author; pass evenIfNoAuthor for
// those.
func (s *ConsolidationService) CalculateWork(ctx context.Context, poolID uuid.UUID, evenIfNoAuthor bool) (*model.Work, bool, error) {
	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return nil, false, err
	}

	if pool.WorkID != nil {
		// The work has already been done.
		work, err := s.works.GetByID(ctx, *pool.WorkID)
		if err != nil {
			return nil, false, err
		}
		return work, false, nil
	}

	edition, err := s.editionForPool(ctx, pool)
	if err != nil {
		return nil, false, err
	}
	if edition == nil {
		log.Warn().
			Int64("identifier_id", pool.IdentifierID).
			Msg("No edition for license pool, refusing to create work")
		return nil, false, model.ErrNoEdition
	}

	// Better title or author data may be available transitively.
	if edition.Title == "" || edition.Author == "" {
		if err := s.editionPres.CalculatePresentation(ctx, edition); err != nil {
			return nil, false, err
		}
	}

	if edition.WorkID == nil &&
		(edition.Title == "" || (edition.Author == "" && !evenIfNoAuthor)) {
		log.Warn().
			Str("edition_id", edition.ID.String()).
			Str("title", edition.Title).
			Msg("Edition has no title or author, refusing to create work")
		return nil, false, model.ErrInsufficientMetadata
	}

	if edition.PermanentWorkID == "" {
		edition.CalculatePermanentWorkID()
		if err := s.editions.Update(ctx, edition); err != nil {
			return nil, false, err
		}
	}

	var work *model.Work
	created := false

	if edition.WorkID != nil {
		work, err = s.resolveMerges(ctx, *edition.WorkID)
		if err != nil {
			return nil, false, err
		}
	} else if pool.OpenAccess {
		work, err = s.openAccessWorkSharing(ctx, edition)
		if err != nil {
			return nil, false, err
		}
	}

	if work == nil {
		work, err = s.works.Create(ctx)
		if err != nil {
			return nil, false, err
		}
		created = true
		log.Info().
			Str("work_id", work.ID.String()).
			Str("title", edition.Title).
			Msg("New work created")
	}

	if err := s.pools.SetWork(ctx, []uuid.UUID{pool.ID}, &work.ID); err != nil {
		return nil, false, err
	}
	if err := s.editions.SetWork(ctx, []uuid.UUID{edition.ID}, &work.ID); err != nil {
		return nil, false, err
	}

	if err := s.presentation.CalculatePresentation(ctx, work.ID, AllPresentationOptions()); err != nil {
		return nil, false, err
	}

	work, err = s.works.GetByID(ctx, work.ID)
	if err != nil {
		return nil, false, err
	}
	return work, created, nil
}

// ConsolidateWorks assigns a work to every pool that has none, up to
// batchSize pools. Pools that cannot be consolidated yet are skipped, not
// failed; they will be retried on the next sweep.
func (s *ConsolidationService) ConsolidateWorks(ctx context.Context, batchSize int, evenIfNoAuthor bool) (int, error) {
	pools, err := s.pools.WithoutWork(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	consolidated := 0
	for _, pool := range pools {
		_, _, err := s.CalculateWork(ctx, pool.ID, evenIfNoAuthor)
		switch {
		case err == nil:
			consolidated++
		case errors.Is(err, model.ErrNoEdition), errors.Is(err, model.ErrInsufficientMetadata):
			log.Debug().
				Str("pool_id", pool.ID.String()).
				Err(err).
				Msg("Pool not ready for consolidation")
		default:
			return consolidated, err
		}
	}

	log.Info().
		Int("pools", len(pools)).
		Int("consolidated", consolidated).
		Msg("Consolidation sweep finished")

	return consolidated, nil
}

// MergeInto retires the source work into the target. The works must be
// similar to within threshold or nothing happens. All of the source's
// pools and editions move to the target, which is then recalculated.
func (s *ConsolidationService) MergeInto(ctx context.Context, sourceID, targetID uuid.UUID, threshold float64) (bool, float64, error) {
	source, err := s.works.GetByID(ctx, sourceID)
	if err != nil {
		return false, 0, err
	}
	if source.Merged() {
		return false, 0, model.ErrWorkMerged
	}
	target, err := s.works.GetByID(ctx, targetID)
	if err != nil {
		return false, 0, err
	}
	if target.Merged() {
		return false, 0, model.ErrWorkMerged
	}

	sourceEditions, err := s.editions.ByWorkID(ctx, sourceID)
	if err != nil {
		return false, 0, err
	}
	targetEditions, err := s.editions.ByWorkID(ctx, targetID)
	if err != nil {
		return false, 0, err
	}

	similarity := model.Similarity(sourceEditions, targetEditions)
	if similarity < threshold {
		log.Info().
			Str("source", sourceID.String()).
			Str("target", targetID.String()).
			Float64("similarity", similarity).
			Msg("Not merging, similarity below threshold")
		return false, similarity, nil
	}

	sourcePools, err := s.pools.ByWorkID(ctx, sourceID)
	if err != nil {
		return false, 0, err
	}

	poolIDs := make([]uuid.UUID, len(sourcePools))
	for i, p := range sourcePools {
		poolIDs[i] = p.ID
	}
	editionIDs := make([]uuid.UUID, len(sourceEditions))
	for i, e := range sourceEditions {
		editionIDs[i] = e.ID
	}

	if err := s.pools.SetWork(ctx, poolIDs, &target.ID); err != nil {
		return false, 0, err
	}
	if err := s.editions.SetWork(ctx, editionIDs, &target.ID); err != nil {
		return false, 0, err
	}

	source.WasMergedInto = &target.ID
	source.PresentationReady = false
	if err := s.works.Update(ctx, source); err != nil {
		return false, 0, err
	}

	if err := s.presentation.CalculatePresentation(ctx, target.ID, AllPresentationOptions()); err != nil {
		return false, 0, err
	}

	log.Info().
		Str("source", sourceID.String()).
		Str("target", targetID.String()).
		Float64("similarity", similarity).
		Msg("Works merged")

	return true, similarity, nil
}

// editionForPool finds the bibliographic record for a pool's identifier,
// preferring the one from the pool's own source.
func (s *ConsolidationService) editionForPool(ctx context.Context, pool *poolmodel.LicensePool) (*editionmodel.Edition, error) {
	editions, err := s.editions.GetByPrimaryIdentifier(ctx, pool.IdentifierID)
	if err != nil {
		return nil, err
	}
	if len(editions) == 0 {
		return nil, nil
	}
	for i := range editions {
		if editions[i].DataSource == pool.DataSource {
			return &editions[i], nil
		}
	}
	return &editions[0], nil
}

// openAccessWorkSharing looks for an existing open-access work with an
// edition sharing the permanent work id. This is what unifies the same
// public-domain text distributed by two different open-access sources.
func (s *ConsolidationService) openAccessWorkSharing(ctx context.Context, edition *editionmodel.Edition) (*model.Work, error) {
	if edition.PermanentWorkID == "" {
		return nil, nil
	}

	siblings, err := s.editions.ByPermanentWorkID(ctx, edition.PermanentWorkID, edition.ID)
	if err != nil {
		return nil, err
	}

	for _, sibling := range siblings {
		if sibling.WorkID == nil {
			continue
		}
		work, err := s.resolveMerges(ctx, *sibling.WorkID)
		if err != nil {
			return nil, err
		}
		open, err := s.hasOpenAccessLicense(ctx, work.ID)
		if err != nil {
			return nil, err
		}
		if open {
			return work, nil
		}
	}
	return nil, nil
}

// resolveMerges follows the merge chain so a retired work is never revived
// as a consolidation target.
func (s *ConsolidationService) resolveMerges(ctx context.Context, workID uuid.UUID) (*model.Work, error) {
	for {
		work, err := s.works.GetByID(ctx, workID)
		if err != nil {
			return nil, err
		}
		if !work.Merged() {
			return work, nil
		}
		workID = *work.WasMergedInto
	}
}

func (s *ConsolidationService) hasOpenAccessLicense(ctx context.Context, workID uuid.UUID) (bool, error) {
	pools, err := s.pools.ByWorkID(ctx, workID)
	if err != nil {
		return false, err
	}
	for _, p := range pools {
		if p.OpenAccess {
			return true, nil
		}
	}
	return false, nil
}
