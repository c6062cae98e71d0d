package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	editionrepo "circulation-backend/internal/domains/edition/repository"
	identifiermodel "circulation-backend/internal/domains/identifier/model"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	identifierservice "circulation-backend/internal/domains/identifier/service"
	"circulation-backend/internal/infrastructure/cache"
	"circulation-backend/internal/shared/datasource"
)

type fixture struct {
	svc         *PresentationService
	editions    *editionrepo.MemoryRepository
	identifiers identifierrepo.Repository
	equivalence *identifierservice.EquivalenceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	identifiers := identifierrepo.NewMemoryRepository()
	equivalence := identifierservice.NewEquivalenceService(identifiers, cache.NewMemoryCache(), time.Hour)
	editions := editionrepo.NewMemoryRepository()
	return &fixture{
		svc:         NewPresentationService(editions, identifiers, equivalence),
		editions:    editions,
		identifiers: identifiers,
		equivalence: equivalence,
	}
}

func TestCalculatePresentationFillsDerivedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeGutenbergID, "2701")
	require.NoError(t, err)

	edition, _, err := f.editions.GetOrCreate(ctx, datasource.Gutenberg, ident.ID)
	require.NoError(t, err)
	edition.Title = "The Whale"
	edition.Author = "Herman Melville"
	edition.Language = "eng"

	require.NoError(t, f.svc.CalculatePresentation(ctx, edition))

	assert.Equal(t, "Whale, The", edition.SortTitle)
	assert.Equal(t, "Melville, Herman", edition.SortAuthor)
	assert.NotEmpty(t, edition.PermanentWorkID)

	stored, err := f.editions.GetByID(ctx, edition.ID)
	require.NoError(t, err)
	assert.Equal(t, edition.PermanentWorkID, stored.PermanentWorkID)
}

func TestCalculatePresentationSkipsNYT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ident, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeISBN, "9780000000001")
	require.NoError(t, err)

	edition, _, err := f.editions.GetOrCreate(ctx, datasource.NYT, ident.ID)
	require.NoError(t, err)
	edition.Title = "Bestseller"

	require.NoError(t, f.svc.CalculatePresentation(ctx, edition))
	assert.Empty(t, edition.PermanentWorkID)
	assert.Empty(t, edition.SortTitle)
}

func TestChooseCoverPrefersDirectAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	direct, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeISBN, "9780000000002")
	require.NoError(t, err)
	linked, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeOCLCNumber, "12345")
	require.NoError(t, err)
	_, err = f.equivalence.AssertEquivalence(ctx, datasource.OCLC, direct.ID, linked.ID, 1)
	require.NoError(t, err)

	quality := func(q float64) *float64 { return &q }
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: linked.ID,
		DataSource:   datasource.OCLCLinkedData,
		Rel:          identifiermodel.RelImage,
		URL:          "http://covers.example/better.jpg",
		Quality:      quality(0.9),
	}))
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: direct.ID,
		DataSource:   datasource.ContentCafe,
		Rel:          identifiermodel.RelImage,
		URL:          "http://covers.example/direct.jpg",
		Quality:      quality(0.2),
	}))

	edition, _, err := f.editions.GetOrCreate(ctx, datasource.Overdrive, direct.ID)
	require.NoError(t, err)
	edition.Title = "Covered"
	edition.Author = "Someone"

	require.NoError(t, f.svc.CalculatePresentation(ctx, edition))
	assert.Equal(t, "http://covers.example/direct.jpg", edition.CoverURL,
		"a cover on the primary identifier beats a better one a hop away")
}

func TestChooseCoverFallsBackToEquivalents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	direct, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeISBN, "9780000000003")
	require.NoError(t, err)
	linked, _, err := f.identifiers.GetOrCreate(ctx, datasource.TypeOCLCNumber, "67890")
	require.NoError(t, err)
	_, err = f.equivalence.AssertEquivalence(ctx, datasource.OCLC, direct.ID, linked.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: linked.ID,
		DataSource:   datasource.OCLCLinkedData,
		Rel:          identifiermodel.RelImage,
		URL:          "http://covers.example/linked.jpg",
	}))
	require.NoError(t, f.identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: linked.ID,
		DataSource:   datasource.OCLCLinkedData,
		Rel:          identifiermodel.RelThumbnail,
		URL:          "http://covers.example/linked-thumb.jpg",
	}))

	edition, _, err := f.editions.GetOrCreate(ctx, datasource.Overdrive, direct.ID)
	require.NoError(t, err)
	edition.Title = "Covered"
	edition.Author = "Someone"

	require.NoError(t, f.svc.CalculatePresentation(ctx, edition))
	assert.Equal(t, "http://covers.example/linked.jpg", edition.CoverURL)
	assert.Equal(t, "http://covers.example/linked-thumb.jpg", edition.CoverThumbnailURL)
}
