package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/config"
	identifiermodel "circulation-backend/internal/domains/identifier/model"
	"circulation-backend/internal/shared/datasource"
	"circulation-backend/internal/shared/taxonomy"
)

func testConsolidationConfig() config.ConsolidationConfig {
	return config.ConsolidationConfig{
		EquivalenceLevels:    5,
		EquivalenceThreshold: 0.5,
		GenreCutoff:          0.15,
		MergeThreshold:       0.5,
		PopularityWeight:     0.3,
		RatingWeight:         0.7,
		ClosureCacheTTLHours: 1,
	}
}

func TestOpenAccessEditionBecomesPrimary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, commercialPool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-20",
		"Middlemarch", "George Eliot", false)
	commercialPool.LicensesOwned = 50
	commercialPool.LicensesAvailable = 50
	require.NoError(t, f.pools.Update(ctx, commercialPool))

	work, _, err := f.consolidation.CalculateWork(ctx, commercialPool.ID, false)
	require.NoError(t, err)

	_, openEdition, openPool := f.addBook(t, datasource.Gutenberg, datasource.TypeGutenbergID, "145",
		"Middlemarch", "George Eliot", true)
	require.NoError(t, f.pools.SetWork(ctx, []uuid.UUID{openPool.ID}, &work.ID))
	require.NoError(t, f.editions.SetWork(ctx, []uuid.UUID{openEdition.ID}, &work.ID))

	primary, err := f.presentation.SetPrimaryEdition(ctx, work.ID)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, openEdition.ID, primary.ID)

	// Abundant commercial licenses never outrank an open-access copy.
	editions, err := f.editions.ByWorkID(ctx, work.ID)
	require.NoError(t, err)
	for _, e := range editions {
		assert.Equal(t, e.ID == openEdition.ID, e.IsPrimaryForWork)
	}
}

func TestLaterGutenbergEtextWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, earlyPool := f.addBook(t, datasource.Gutenberg, datasource.TypeGutenbergID, "12",
		"Through the Looking-Glass", "Lewis Carroll", true)
	work, _, err := f.consolidation.CalculateWork(ctx, earlyPool.ID, false)
	require.NoError(t, err)

	_, late, latePool := f.addBook(t, datasource.Gutenberg, datasource.TypeGutenbergID, "12000",
		"Through the Looking-Glass", "Lewis Carroll", true)
	require.NoError(t, f.pools.SetWork(ctx, []uuid.UUID{latePool.ID}, &work.ID))
	require.NoError(t, f.editions.SetWork(ctx, []uuid.UUID{late.ID}, &work.ID))

	primary, err := f.presentation.SetPrimaryEdition(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, late.ID, primary.ID)
}

func TestOpenAccessEditionWithoutLinkLoses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, commercialPool := f.addBook(t, datasource.ThreeM, datasource.TypeThreeMID, "3m-20",
		"Villette", "Charlotte Bronte", false)
	work, _, err := f.consolidation.CalculateWork(ctx, commercialPool.ID, false)
	require.NoError(t, err)

	// An open-access pool with no epub to lend.
	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeGutenbergID, "9999")
	require.NoError(t, err)
	broken, _, err := f.editions.GetOrCreate(ctx, datasource.Gutenberg, ident.ID)
	require.NoError(t, err)
	brokenPool, _, err := f.pools.GetOrCreate(ctx, datasource.Gutenberg, ident.ID)
	require.NoError(t, err)
	brokenPool.OpenAccess = true
	require.NoError(t, f.pools.Update(ctx, brokenPool))
	require.NoError(t, f.pools.SetWork(ctx, []uuid.UUID{brokenPool.ID}, &work.ID))
	require.NoError(t, f.editions.SetWork(ctx, []uuid.UUID{broken.ID}, &work.ID))

	primary, err := f.presentation.SetPrimaryEdition(ctx, work.ID)
	require.NoError(t, err)
	assert.NotEqual(t, broken.ID, primary.ID)
}

func TestMoreAvailableLicensesWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, scarcePool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-30",
		"North and South", "Elizabeth Gaskell", false)
	scarcePool.LicensesOwned = 5
	scarcePool.LicensesAvailable = 3
	require.NoError(t, f.pools.Update(ctx, scarcePool))

	work, _, err := f.consolidation.CalculateWork(ctx, scarcePool.ID, false)
	require.NoError(t, err)

	_, plentiful, plentifulPool := f.addBook(t, datasource.Axis360, datasource.TypeAxis360ID, "ax-30",
		"North and South", "Elizabeth Gaskell", false)
	plentifulPool.LicensesOwned = 5
	plentifulPool.LicensesAvailable = 5
	require.NoError(t, f.pools.Update(ctx, plentifulPool))
	require.NoError(t, f.pools.SetWork(ctx, []uuid.UUID{plentifulPool.ID}, &work.ID))
	require.NoError(t, f.editions.SetWork(ctx, []uuid.UUID{plentiful.ID}, &work.ID))

	primary, err := f.presentation.SetPrimaryEdition(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, plentiful.ID, primary.ID)
}

func TestPooledEditionBeatsPoolless(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-31",
		"Cranford", "Elizabeth Gaskell", false)
	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)

	// A bibliographic record with no licensing at all.
	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeOCLCNumber, "418634")
	require.NoError(t, err)
	poolless, _, err := f.editions.GetOrCreate(ctx, datasource.OCLC, ident.ID)
	require.NoError(t, err)
	poolless.Title = "Cranford"
	poolless.Author = "Elizabeth Gaskell"
	require.NoError(t, f.editions.Update(ctx, poolless))
	require.NoError(t, f.editions.SetWork(ctx, []uuid.UUID{poolless.ID}, &work.ID))

	primary, err := f.presentation.SetPrimaryEdition(ctx, work.ID)
	require.NoError(t, err)
	assert.NotEqual(t, poolless.ID, primary.ID)
}

func TestAudienceDefaultsToAdult(t *testing.T) {
	votes := map[string]float64{
		taxonomy.AudienceAdult:    10,
		taxonomy.AudienceChildren: 19,
	}
	assert.Equal(t, taxonomy.AudienceAdult, decideAudience(votes))

	votes[taxonomy.AudienceChildren] = 21
	assert.Equal(t, taxonomy.AudienceChildren, decideAudience(votes))

	// Without explicit adult votes the unmarked weight is the baseline.
	votes = map[string]float64{
		"":                          5,
		taxonomy.AudienceYoungAdult: 11,
	}
	assert.Equal(t, taxonomy.AudienceYoungAdult, decideAudience(votes))

	assert.Equal(t, taxonomy.AudienceAdult, decideAudience(map[string]float64{}))
}

func TestConsolidateGenresRollsUpAndPrunes(t *testing.T) {
	workID := uuid.New()
	votes := map[string]float64{
		"Space Opera":     10,
		"Science Fiction": 5,
		"Cooking":         1,
	}

	genres := consolidateGenres(workID, votes, 0.15)

	// Subgenre weight counts toward the parent, Cooking falls below the
	// cutoff, and surviving affinities are renormalized.
	require.Len(t, genres, 2)
	assert.Equal(t, "Science Fiction", genres[0].Genre)
	assert.InDelta(t, 0.6, genres[0].Affinity, 1e-9)
	assert.Equal(t, "Space Opera", genres[1].Genre)
	assert.InDelta(t, 0.4, genres[1].Affinity, 1e-9)
}

func TestClassificationFlowsIntoWorkGenres(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-21",
		"The Stars My Destination", "Alfred Bester", false)

	_, err := f.classifier.Classify(ctx, ident.ID, datasource.LibraryStaff,
		taxonomy.SchemeTag, "Space Opera", "Space Opera", 10)
	require.NoError(t, err)

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)

	require.NotNil(t, work.Fiction)
	assert.True(t, *work.Fiction)
	assert.Equal(t, taxonomy.AudienceAdult, work.Audience)

	genres, err := f.works.GenresFor(ctx, work.ID)
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Science Fiction", genres[0].Genre)
	assert.Equal(t, "Space Opera", genres[1].Genre)
}

func TestSummaryComesFromPrivilegedSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-22",
		"Kidnapped", "Robert Louis Stevenson", false)

	privileged := "David Balfour is cheated of his inheritance and shanghaied " +
		"aboard a brig, escaping across the Highlands with Alan Breck."
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: ident.ID,
		DataSource:   datasource.Overdrive,
		Rel:          identifiermodel.RelDescription,
		Content:      privileged,
	}))
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: ident.ID,
		DataSource:   datasource.ContentCafe,
		Rel:          identifiermodel.RelDescription,
		Content: "David Balfour is cheated of his inheritance and shanghaied " +
			"aboard a brig, escaping across the Highlands with Alan Breck " +
			"in Stevenson's celebrated adventure of the Appin murder.",
	}))

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)

	// Only descriptions from the primary edition's source compete when
	// that source has any.
	assert.Equal(t, privileged, work.SummaryText)
	require.NotNil(t, work.SummaryResourceID)
}

func TestSummaryFallsBackWhenPrivilegedSourceIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-23",
		"Catriona", "Robert Louis Stevenson", false)

	fallback := "The sequel to Kidnapped follows David Balfour's efforts to " +
		"clear James Stewart of the Appin murder."
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: ident.ID,
		DataSource:   datasource.ContentCafe,
		Rel:          identifiermodel.RelShortDescription,
		Content:      fallback,
	}))

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)
	assert.Equal(t, fallback, work.SummaryText)
}

func TestPresentationReadinessGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, edition, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-24",
		"Weir of Hermiston", "Robert Louis Stevenson", false)

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)

	// No genres and no cover yet.
	assert.False(t, work.PresentationReady)

	_, err = f.classifier.Classify(ctx, ident.ID, datasource.LibraryStaff,
		taxonomy.SchemeTag, "science fiction", "Science Fiction", 5)
	require.NoError(t, err)

	edition, err = f.editions.GetByID(ctx, edition.ID)
	require.NoError(t, err)
	edition.CoverThumbnailURL = "https://example.org/covers/od-24-thumb.jpg"
	require.NoError(t, f.editions.Update(ctx, edition))

	require.NoError(t, f.presentation.CalculatePresentation(ctx, work.ID, AllPresentationOptions()))

	work, err = f.works.GetByID(ctx, work.ID)
	require.NoError(t, err)
	assert.True(t, work.PresentationReady)
	require.NotNil(t, work.LastUpdateTime)

	// An explicitly coverless book can still be ready.
	edition, err = f.editions.GetByID(ctx, edition.ID)
	require.NoError(t, err)
	edition.CoverThumbnailURL = ""
	edition.NoKnownCover = true
	require.NoError(t, f.editions.Update(ctx, edition))

	require.NoError(t, f.presentation.CalculatePresentation(ctx, work.ID, AllPresentationOptions()))
	work, err = f.works.GetByID(ctx, work.ID)
	require.NoError(t, err)
	assert.True(t, work.PresentationReady)
}

func TestRecalculationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-25",
		"St Ives", "Robert Louis Stevenson", false)
	_, err := f.classifier.Classify(ctx, ident.ID, datasource.LibraryStaff,
		taxonomy.SchemeTag, "space opera", "Space Opera", 3)
	require.NoError(t, err)

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)

	first, err := f.works.GetByID(ctx, work.ID)
	require.NoError(t, err)
	firstGenres, err := f.works.GenresFor(ctx, work.ID)
	require.NoError(t, err)

	require.NoError(t, f.presentation.CalculatePresentation(ctx, work.ID, AllPresentationOptions()))

	second, err := f.works.GetByID(ctx, work.ID)
	require.NoError(t, err)
	secondGenres, err := f.works.GenresFor(ctx, work.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Fiction, second.Fiction)
	assert.Equal(t, first.Audience, second.Audience)
	assert.Equal(t, first.SummaryText, second.SummaryText)
	assert.Equal(t, first.Quality, second.Quality)
	assert.Equal(t, firstGenres, secondGenres)
}
