package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	measurementrepo "circulation-backend/internal/domains/measurement/repository"
	measurementservice "circulation-backend/internal/domains/measurement/service"
	"circulation-backend/internal/domains/work/model"
	"circulation-backend/internal/domains/work/repository"
	"circulation-backend/internal/infrastructure/cache"
	"circulation-backend/internal/shared/datasource"
)

type fixture struct {
	identifiers   identifierrepo.Repository
	editions      editionrepo.Repository
	pools         poolrepo.Repository
	works         repository.Repository
	classifier    *classificationservice.ClassifierService
	presentation  *PresentationService
	consolidation *ConsolidationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	identifiers := identifierrepo.NewMemoryRepository()
	editions := editionrepo.NewMemoryRepository()
	pools := poolrepo.NewMemoryRepository()
	works := repository.NewMemoryRepository()
	classifications := classificationrepo.NewMemoryRepository()
	measurements := measurementrepo.NewMemoryRepository()

	equivalence := identifierservice.NewEquivalenceService(identifiers, cache.NewMemoryCache(), time.Hour)
	editionPres := editionservice.NewPresentationService(editions, identifiers, equivalence)
	availability := poolservice.NewAvailabilityService(pools, identifiers, works)
	classifier := classificationservice.NewClassifierService(classifications)
	quality := measurementservice.NewQualityService(measurements, nil)

	cfg := testConsolidationConfig()
	presentation := NewPresentationService(works, editions, editionPres, pools,
		availability, classifications, classifier, quality, identifiers,
		equivalence, nil, cfg)
	consolidation := NewConsolidationService(works, editions, editionPres, pools, presentation)

	return &fixture{
		identifiers:   identifiers,
		editions:      editions,
		pools:         pools,
		works:         works,
		classifier:    classifier,
		presentation:  presentation,
		consolidation: consolidation,
	}
}

// addBook registers an identifier, an edition with metadata, and a license
// pool for it, the state ingestion leaves behind before consolidation.
func (f *fixture) addBook(t *testing.T, source, idType, idValue, title, author string, openAccess bool) (*identifiermodel.Identifier, *editionmodel.Edition, *poolmodel.LicensePool) {
	t.Helper()
	ctx := context.Background()

	ident, _, err := f.identifiers.GetOrCreate(ctx, idType, idValue)
	require.NoError(t, err)

	edition, _, err := f.editions.GetOrCreate(ctx, source, ident.ID)
	require.NoError(t, err)
	edition.Title = title
	edition.Author = author
	edition.Language = "eng"
	edition.Medium = editionmodel.MediumBook
	require.NoError(t, f.editions.Update(ctx, edition))

	pool, _, err := f.pools.GetOrCreate(ctx, source, ident.ID)
	require.NoError(t, err)
	pool.OpenAccess = openAccess
	if !openAccess {
		pool.LicensesOwned = 1
		pool.LicensesAvailable = 1
	}
	require.NoError(t, f.pools.Update(ctx, pool))

	if openAccess {
		require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
			IdentifierID: ident.ID,
			DataSource:   source,
			Rel:          identifiermodel.RelOpenAccessDownload,
			URL:          "https://example.org/" + idValue + ".epub",
			MediaType:    identifiermodel.EpubMediaType,
		}))
	}

	return ident, edition, pool
}

func TestCalculateWorkCreatesAndReuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, edition, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-1",
		"The Moonstone", "Wilkie Collins", false)

	work, created, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)
	require.NotNil(t, work)
	assert.True(t, created)

	pool, err = f.pools.GetByID(ctx, pool.ID)
	require.NoError(t, err)
	require.NotNil(t, pool.WorkID)
	assert.Equal(t, work.ID, *pool.WorkID)

	edition, err = f.editions.GetByID(ctx, edition.ID)
	require.NoError(t, err)
	require.NotNil(t, edition.WorkID)
	assert.Equal(t, work.ID, *edition.WorkID)
	assert.True(t, edition.IsPrimaryForWork)
	assert.NotEmpty(t, edition.PermanentWorkID)

	again, created, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, work.ID, again.ID)
}

func TestCalculateWorkRefusesWithoutEdition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeISBN, "9780000000001")
	require.NoError(t, err)
	pool, _, err := f.pools.GetOrCreate(ctx, datasource.ThreeM, ident.ID)
	require.NoError(t, err)

	work, created, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	assert.ErrorIs(t, err, model.ErrNoEdition)
	assert.Nil(t, work)
	assert.False(t, created)

	pool, err = f.pools.GetByID(ctx, pool.ID)
	require.NoError(t, err)
	assert.Nil(t, pool.WorkID)
}

func TestCalculateWorkRefusesWithoutAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, pool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-2",
		"Anonymous Pamphlet", "", false)

	work, _, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	assert.ErrorIs(t, err, model.ErrInsufficientMetadata)
	assert.Nil(t, work)

	// Some books genuinely have no author on record.
	work, created, err := f.consolidation.CalculateWork(ctx, pool.ID, true)
	require.NoError(t, err)
	require.NotNil(t, work)
	assert.True(t, created)
}

func TestOpenAccessPoolsShareWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, gutenbergPool := f.addBook(t, datasource.Gutenberg, datasource.TypeGutenbergID, "120",
		"Treasure Island", "Robert Louis Stevenson", true)
	_, _, libraryPool := f.addBook(t, datasource.OpenLibrary, datasource.TypeOpenLibrary, "OL123M",
		"Treasure Island", "Robert Louis Stevenson", true)

	first, created, err := f.consolidation.CalculateWork(ctx, gutenbergPool.ID, false)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.consolidation.CalculateWork(ctx, libraryPool.ID, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestCommercialPoolsNeverShareWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, overdrivePool := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-3",
		"Treasure Island", "Robert Louis Stevenson", false)
	_, _, threeMPool := f.addBook(t, datasource.ThreeM, datasource.TypeThreeMID, "3m-3",
		"Treasure Island", "Robert Louis Stevenson", false)

	first, _, err := f.consolidation.CalculateWork(ctx, overdrivePool.ID, false)
	require.NoError(t, err)
	second, created, err := f.consolidation.CalculateWork(ctx, threeMPool.ID, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestConsolidateWorksSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-4",
		"Bleak House", "Charles Dickens", false)
	f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-5",
		"Hard Times", "Charles Dickens", false)

	// A pool with no edition is skipped, not failed.
	orphan, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeISBN, "9780000000002")
	require.NoError(t, err)
	_, _, err = f.pools.GetOrCreate(ctx, datasource.ThreeM, orphan.ID)
	require.NoError(t, err)

	consolidated, err := f.consolidation.ConsolidateWorks(ctx, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 2, consolidated)

	remaining, err := f.pools.WithoutWork(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestMergeBelowThresholdDoesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, poolA := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-6",
		"A Tale of Two Cities", "Charles Dickens", false)
	_, _, poolB := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-7",
		"On the Origin of Species", "Charles Darwin", false)

	workA, _, err := f.consolidation.CalculateWork(ctx, poolA.ID, false)
	require.NoError(t, err)
	workB, _, err := f.consolidation.CalculateWork(ctx, poolB.ID, false)
	require.NoError(t, err)

	merged, similarity, err := f.consolidation.MergeInto(ctx, workA.ID, workB.ID, 0.5)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Less(t, similarity, 0.5)

	workA, err = f.works.GetByID(ctx, workA.ID)
	require.NoError(t, err)
	assert.False(t, workA.Merged())
}

func TestMergeMovesPoolsAndEditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, poolA := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-8",
		"Jane Eyre", "Charlotte Bronte", false)
	_, _, poolB := f.addBook(t, datasource.ThreeM, datasource.TypeThreeMID, "3m-8",
		"Jane Eyre", "Charlotte Bronte", false)

	source, _, err := f.consolidation.CalculateWork(ctx, poolA.ID, false)
	require.NoError(t, err)
	target, _, err := f.consolidation.CalculateWork(ctx, poolB.ID, false)
	require.NoError(t, err)

	merged, similarity, err := f.consolidation.MergeInto(ctx, source.ID, target.ID, 0.5)
	require.NoError(t, err)
	assert.True(t, merged)
	assert.GreaterOrEqual(t, similarity, 0.5)

	source, err = f.works.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, source.WasMergedInto)
	assert.Equal(t, target.ID, *source.WasMergedInto)
	assert.False(t, source.PresentationReady)

	targetPools, err := f.pools.ByWorkID(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, targetPools, 2)

	targetEditions, err := f.editions.ByWorkID(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, targetEditions, 2)

	sourceEditions, err := f.editions.ByWorkID(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, sourceEditions)

	// A retired work can never be a merge endpoint again.
	_, _, err = f.consolidation.MergeInto(ctx, source.ID, target.ID, 0.0)
	assert.ErrorIs(t, err, model.ErrWorkMerged)
}

func TestMergedWorkIsNeverRevived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, poolA := f.addBook(t, datasource.Gutenberg, datasource.TypeGutenbergID, "84",
		"Frankenstein", "Mary Shelley", true)
	_, _, poolB := f.addBook(t, datasource.Overdrive, datasource.TypeOverdriveID, "od-9",
		"Frankenstein", "Mary Shelley", false)

	source, _, err := f.consolidation.CalculateWork(ctx, poolA.ID, false)
	require.NoError(t, err)
	target, _, err := f.consolidation.CalculateWork(ctx, poolB.ID, false)
	require.NoError(t, err)

	_, _, err = f.consolidation.MergeInto(ctx, source.ID, target.ID, 0.0)
	require.NoError(t, err)

	// A straggler edition still pointing at the retired work resolves
	// through the merge chain instead of reviving it.
	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeOpenLibrary, "OL84M")
	require.NoError(t, err)
	edition, _, err := f.editions.GetOrCreate(ctx, datasource.OpenLibrary, ident.ID)
	require.NoError(t, err)
	edition.Title = "Frankenstein"
	edition.Author = "Mary Shelley"
	edition.Language = "eng"
	edition.Medium = editionmodel.MediumBook
	edition.WorkID = &source.ID
	require.NoError(t, f.editions.Update(ctx, edition))

	pool, _, err := f.pools.GetOrCreate(ctx, datasource.OpenLibrary, ident.ID)
	require.NoError(t, err)

	work, created, err := f.consolidation.CalculateWork(ctx, pool.ID, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, target.ID, work.ID)
}
