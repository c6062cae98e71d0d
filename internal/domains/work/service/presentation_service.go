package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"circulation-backend/internal/config"
	classificationrepo "circulation-backend/internal/domains/classification/repository"
	classificationservice "circulation-backend/internal/domains/classification/service"
	editionmodel "circulation-backend/internal/domains/edition/model"
	editionrepo "circulation-backend/internal/domains/edition/repository"
	editionservice "circulation-backend/internal/domains/edition/service"
	identifiermodel "circulation-backend/internal/domains/identifier/model"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	identifierservice "circulation-backend/internal/domains/identifier/service"
	poolmodel "circulation-backend/internal/domains/licensepool/model"
	poolrepo "circulation-backend/internal/domains/licensepool/repository"
	poolservice "circulation-backend/internal/domains/licensepool/service"
	measurementmodel "circulation-backend/internal/domains/measurement/model"
	measurementservice "circulation-backend/internal/domains/measurement/service"
	"circulation-backend/internal/domains/work/model"
	"circulation-backend/internal/domains/work/repository"
	"circulation-backend/internal/shared/datasource"
	"circulation-backend/internal/shared/summary"
	"circulation-backend/internal/shared/taxonomy"
)

// PresentationOptions selects which parts of a work's presentation to
// recompute.
type PresentationOptions struct {
	ChooseEdition    bool
	Classify         bool
	ChooseSummary    bool
	CalculateQuality bool
}

// AllPresentationOptions recomputes everything.
func AllPresentationOptions() PresentationOptions {
	return PresentationOptions{
		ChooseEdition:    true,
		Classify:         true,
		ChooseSummary:    true,
		CalculateQuality: true,
	}
}

// PresentationService recomputes a work's patron-visible state: primary
// edition, genres, audience, fiction, summary, and quality.
type PresentationService struct {
	works           repository.Repository
	editions        editionrepo.Repository
	editionPres     *editionservice.PresentationService
	pools           poolrepo.Repository
	availability    *poolservice.AvailabilityService
	classifications classificationrepo.Repository
	classifier      *classificationservice.ClassifierService
	quality         *measurementservice.QualityService
	identifiers     identifierrepo.Repository
	equivalence     *identifierservice.EquivalenceService
	newEvaluator    func() summary.Evaluator
	cfg             config.ConsolidationConfig
}

func NewPresentationService(
	works repository.Repository,
	editions editionrepo.Repository,
	editionPres *editionservice.PresentationService,
	pools poolrepo.Repository,
	availability *poolservice.AvailabilityService,
	classifications classificationrepo.Repository,
	classifier *classificationservice.ClassifierService,
	quality *measurementservice.QualityService,
	identifiers identifierrepo.Repository,
	equivalence *identifierservice.EquivalenceService,
	newEvaluator func() summary.Evaluator,
	cfg config.ConsolidationConfig,
) *PresentationService {
	if newEvaluator == nil {
		newEvaluator = func() summary.Evaluator { return summary.NewNounPhraseEvaluator() }
	}
	return &PresentationService{
		works:           works,
		editions:        editions,
		editionPres:     editionPres,
		pools:           pools,
		availability:    availability,
		classifications: classifications,
		classifier:      classifier,
		quality:         quality,
		identifiers:     identifiers,
		equivalence:     equivalence,
		newEvaluator:    newEvaluator,
		cfg:             cfg,
	}
}

// CalculatePresentation recomputes the work's externally visible state and
// persists it, finishing with a presentation readiness check.
func (s *PresentationService) CalculatePresentation(ctx context.Context, workID uuid.UUID, opts PresentationOptions) error {
	work, err := s.works.GetByID(ctx, workID)
	if err != nil {
		return err
	}

	editions, err := s.editions.ByWorkID(ctx, workID)
	if err != nil {
		return err
	}

	primary := primaryEdition(editions)
	if opts.ChooseEdition || primary == nil {
		primary, err = s.SetPrimaryEdition(ctx, workID)
		if err != nil {
			return err
		}
	}

	// The primary edition's source may short-circuit summary selection.
	// Gutenberg text dumps make terrible descriptions, so it is never
	// privileged.
	privilegedSource := ""
	if primary != nil {
		if primary.DataSource != datasource.Gutenberg {
			privilegedSource = primary.DataSource
		}
		if err := s.editionPres.CalculatePresentation(ctx, primary); err != nil {
			return err
		}
	}

	if !opts.Classify && !opts.ChooseSummary && !opts.CalculateQuality {
		return s.finish(ctx, work)
	}

	// Aggregation operates over the full equivalence neighborhood of every
	// edition on the work, not just the work's own identifiers.
	seeds := make([]int64, 0, len(editions))
	for _, e := range editions {
		seeds = append(seeds, e.PrimaryIdentifierID)
	}
	flattened, err := s.equivalence.FlatEquivalentIDs(ctx, seeds,
		s.cfg.EquivalenceLevels, s.cfg.EquivalenceThreshold)
	if err != nil {
		return err
	}

	if opts.Classify {
		if err := s.assignGenres(ctx, work, flattened); err != nil {
			return err
		}
	}

	if opts.ChooseSummary {
		if err := s.chooseSummary(ctx, work, flattened, privilegedSource); err != nil {
			return err
		}
	}

	// For legacy bulk sources the number of equivalent identifiers is
	// itself a popularity signal: roughly, how many independent catalogs
	// list an edition of this book.
	if primary != nil {
		quotient := datasource.EditionCountQuotient(primary.DataSource)
		if quotient > 0 {
			if err := s.quality.AddMeasurement(ctx, &measurementmodel.Measurement{
				IdentifierID: primary.PrimaryIdentifierID,
				DataSource:   datasource.OCLCLinkedData,
				Quantity:     measurementmodel.QuantityPopularity,
				Value:        float64(len(flattened)) / quotient,
			}); err != nil {
				return err
			}
		}
		if primary.DataSource == datasource.Gutenberg {
			// A text with many Gutenberg editions would drag its own
			// quality down, so only the primary edition's signals count.
			flattened = []int64{primary.PrimaryIdentifierID}
		}
	}

	if opts.CalculateQuality {
		quality, err := s.quality.QualityFor(ctx, flattened,
			s.cfg.PopularityWeight, s.cfg.RatingWeight)
		if err != nil {
			return err
		}
		work.Quality = quality
	}

	return s.finish(ctx, work)
}

func (s *PresentationService) finish(ctx context.Context, work *model.Work) error {
	if err := s.works.Update(ctx, work); err != nil {
		return err
	}
	if err := s.works.TouchLastUpdate(ctx, work.ID); err != nil {
		return err
	}
	return s.SetPresentationReadyBasedOnContent(ctx, work.ID)
}

// SetPrimaryEdition runs the tie-break tournament over the work's editions
// and persists the winner. Returns nil when the work has no editions.
func (s *PresentationService) SetPrimaryEdition(ctx context.Context, workID uuid.UUID) (*editionmodel.Edition, error) {
	editions, err := s.editions.ByWorkID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if len(editions) == 0 {
		return nil, nil
	}

	var fallback *editionmodel.Edition
	var champion *editionmodel.Edition
	var championPool *poolmodel.LicensePool

	for i := range editions {
		challenger := &editions[i]
		if fallback == nil {
			fallback = challenger
		}

		// An edition with no license pool is only ever a last resort.
		pool := s.poolFor(ctx, challenger)
		if pool == nil {
			continue
		}

		// An open-access edition with no usable download link loses.
		if pool.OpenAccess {
			link, err := s.availability.BestOpenAccessLink(ctx, pool)
			if err != nil {
				return nil, err
			}
			if link == nil {
				continue
			}
		}

		if champion == nil {
			champion, championPool = challenger, pool
			continue
		}

		if pool.OpenAccess && !championPool.OpenAccess {
			champion, championPool = challenger, pool
			continue
		}
		if championPool.OpenAccess && !pool.OpenAccess {
			continue
		}

		// Later Gutenberg etexts tend to be better proofread than the
		// early ones, so higher numbers win.
		if challenger.DataSource == datasource.Gutenberg &&
			champion.DataSource == datasource.Gutenberg {
			if s.gutenbergNumber(ctx, challenger) > s.gutenbergNumber(ctx, champion) {
				champion, championPool = challenger, pool
				continue
			}
		}

		// 3M books cannot currently be checked out, so anything else wins.
		if champion.DataSource == datasource.ThreeM &&
			challenger.DataSource != datasource.ThreeM {
			champion, championPool = challenger, pool
			continue
		}

		if pool.LicensesOwned > championPool.LicensesOwned {
			champion, championPool = challenger, pool
			continue
		}
		if pool.LicensesAvailable > championPool.LicensesAvailable {
			champion, championPool = challenger, pool
			continue
		}
		if pool.PatronsInHoldQueue < championPool.PatronsInHoldQueue {
			champion, championPool = challenger, pool
			continue
		}
	}

	if champion == nil {
		champion = fallback
	}

	if err := s.editions.SetPrimaryForWork(ctx, workID, champion.ID); err != nil {
		return nil, err
	}
	champion.IsPrimaryForWork = true
	return champion, nil
}

func (s *PresentationService) poolFor(ctx context.Context, edition *editionmodel.Edition) *poolmodel.LicensePool {
	pool, err := s.pools.GetByIdentifier(ctx, edition.PrimaryIdentifierID)
	if err != nil {
		return nil
	}
	return pool
}

func (s *PresentationService) gutenbergNumber(ctx context.Context, edition *editionmodel.Edition) int {
	ident, err := s.identifiers.GetByID(ctx, edition.PrimaryIdentifierID)
	if err != nil {
		return -1
	}
	n, err := strconv.Atoi(ident.Value)
	if err != nil {
		return -1
	}
	return n
}

// assignGenres aggregates weighted classification votes over the flattened
// identifier set into fiction, audience, and genre assignments.
func (s *PresentationService) assignGenres(ctx context.Context, work *model.Work, flattened []int64) error {
	classifications, err := s.classifications.ForIdentifiers(ctx, flattened)
	if err != nil {
		return err
	}

	var fictionVotes, nonfictionVotes float64
	audienceVotes := make(map[string]float64)
	genreVotes := make(map[string]float64)

	for i := range classifications {
		subject := classifications[i].Subject
		if !subject.Checked {
			if err := s.classifier.CheckSubject(ctx, &subject); err != nil {
				return err
			}
		}
		if !subject.HasMeaning() {
			continue
		}

		weight := float64(classifications[i].Weight) *
			datasource.ClassificationWeightMultiplier(classifications[i].DataSource)

		if subject.Fiction != nil {
			if *subject.Fiction {
				fictionVotes += weight
			} else {
				nonfictionVotes += weight
			}
		}

		audienceVotes[subject.Audience] += weight * datasource.AudienceWeightMultiplier(subject.Type)

		if subject.Genre != "" {
			genreVotes[subject.Genre] += weight
		}
	}

	switch {
	case fictionVotes > nonfictionVotes:
		t := true
		work.Fiction = &t
	case nonfictionVotes > fictionVotes:
		f := false
		work.Fiction = &f
	default:
		work.Fiction = nil
	}

	work.Audience = decideAudience(audienceVotes)

	genres := consolidateGenres(work.ID, genreVotes, s.cfg.GenreCutoff)
	if err := s.works.ReplaceGenres(ctx, work.ID, genres); err != nil {
		return err
	}

	log.Debug().
		Str("work_id", work.ID.String()).
		Str("audience", work.Audience).
		Int("genres", len(genres)).
		Msg("Genres assigned")

	return nil
}

// decideAudience applies the strong adult-default bias: to avoid
// mis-shelving adult content, young adult or children's status needs more
// than twice the weight of the adult votes, or of the unmarked votes when
// no adult votes exist.
func decideAudience(votes map[string]float64) string {
	threshold := votes[taxonomy.AudienceAdult]
	if threshold == 0 {
		threshold = votes[""]
	}
	threshold *= 2

	switch {
	case votes[taxonomy.AudienceYoungAdult] > threshold:
		return taxonomy.AudienceYoungAdult
	case votes[taxonomy.AudienceChildren] > threshold:
		return taxonomy.AudienceChildren
	default:
		return taxonomy.AudienceAdult
	}
}

// consolidateGenres rolls subgenre weight up the parent chain, prunes
// genres below the cutoff fraction of total weight, and normalizes the
// survivors' affinities to sum to 1.
func consolidateGenres(workID uuid.UUID, votes map[string]float64, cutoff float64) []model.WorkGenre {
	consolidated := make(map[string]float64, len(votes))
	for genre, weight := range votes {
		consolidated[genre] += weight
		for _, parent := range taxonomy.ParentChain(genre) {
			consolidated[parent] += weight
		}
	}

	var total float64
	for _, weight := range consolidated {
		total += weight
	}
	if total == 0 {
		return nil
	}

	surviving := make(map[string]float64, len(consolidated))
	var survivingTotal float64
	for genre, weight := range consolidated {
		if weight/total < cutoff {
			continue
		}
		surviving[genre] = weight
		survivingTotal += weight
	}

	genres := make([]model.WorkGenre, 0, len(surviving))
	for genre, weight := range surviving {
		genres = append(genres, model.WorkGenre{
			WorkID:   workID,
			Genre:    genre,
			Affinity: weight / survivingTotal,
		})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Affinity != genres[j].Affinity {
			return genres[i].Affinity > genres[j].Affinity
		}
		return genres[i].Genre < genres[j].Genre
	})
	return genres
}

// chooseSummary ranks every description attached to the flattened
// identifier set and installs the best one on the work. The evaluation is
// corpus-based: descriptions sharing the terms most used across all
// candidate descriptions score highest.
func (s *PresentationService) chooseSummary(ctx context.Context, work *model.Work, flattened []int64, privilegedSource string) error {
	champion, err := s.evaluateSummaries(ctx, flattened, privilegedSource)
	if err != nil {
		return err
	}
	if champion == nil && privilegedSource != "" {
		// The privileged source had nothing. Relax the restriction.
		champion, err = s.evaluateSummaries(ctx, flattened, "")
		if err != nil {
			return err
		}
	}

	if champion == nil {
		work.SummaryResourceID = nil
		work.SummaryText = ""
		return nil
	}

	work.SummaryResourceID = &champion.ID
	work.SummaryText = champion.Content
	return nil
}

func (s *PresentationService) evaluateSummaries(ctx context.Context, flattened []int64, dataSource string) (*identifiermodel.Resource, error) {
	rels := []string{identifiermodel.RelDescription, identifiermodel.RelShortDescription}
	resources, err := s.identifiers.ResourcesFor(ctx, flattened, rels, dataSource)
	if err != nil {
		return nil, err
	}

	candidates := resources[:0]
	for _, r := range resources {
		if r.Content != "" {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	evaluator := s.newEvaluator()
	for _, r := range candidates {
		evaluator.Add(r.Content)
	}
	evaluator.Ready()

	var champion *identifiermodel.Resource
	var championQuality float64
	for i := range candidates {
		quality := evaluator.Score(candidates[i].Content)
		if err := s.identifiers.SetResourceQuality(ctx, candidates[i].ID, quality); err != nil {
			return nil, err
		}
		if champion == nil || quality > championQuality {
			champion = &candidates[i]
			championQuality = quality
		}
	}
	return champion, nil
}

// SetPresentationReadyBasedOnContent flips the work's readiness flag from
// its current data. A missing summary or cover image does not block
// readiness; many public domain books have neither, though the absence of
// a cover must be explicit.
func (s *PresentationService) SetPresentationReadyBasedOnContent(ctx context.Context, workID uuid.UUID) error {
	work, err := s.works.GetByID(ctx, workID)
	if err != nil {
		return err
	}

	editions, err := s.editions.ByWorkID(ctx, workID)
	if err != nil {
		return err
	}
	primary := primaryEdition(editions)

	pools, err := s.pools.ByWorkID(ctx, workID)
	if err != nil {
		return err
	}

	genres, err := s.works.GenresFor(ctx, workID)
	if err != nil {
		return err
	}

	ready := primary != nil &&
		len(pools) > 0 &&
		primary.Title != "" &&
		primary.Author != "" &&
		primary.Language != "" &&
		len(genres) > 0 &&
		(primary.CoverThumbnailURL != "" || primary.NoKnownCover)

	if ready == work.PresentationReady {
		return nil
	}
	work.PresentationReady = ready
	return s.works.Update(ctx, work)
}

func primaryEdition(editions []editionmodel.Edition) *editionmodel.Edition {
	for i := range editions {
		if editions[i].IsPrimaryForWork {
			return &editions[i]
		}
	}
	return nil
}
