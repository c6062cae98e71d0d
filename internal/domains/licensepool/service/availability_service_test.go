package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identifiermodel "circulation-backend/internal/domains/identifier/model"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	"circulation-backend/internal/domains/licensepool/model"
	"circulation-backend/internal/domains/licensepool/repository"
	"circulation-backend/internal/shared/datasource"
)

type touchRecorder struct {
	touched []uuid.UUID
}

func (t *touchRecorder) TouchLastUpdate(ctx context.Context, workID uuid.UUID) error {
	t.touched = append(t.touched, workID)
	return nil
}

func newAvailabilityFixture(t *testing.T) (*AvailabilityService, *repository.MemoryRepository, identifierrepo.Repository, *touchRecorder) {
	t.Helper()
	pools := repository.NewMemoryRepository()
	identifiers := identifierrepo.NewMemoryRepository()
	toucher := &touchRecorder{}
	return NewAvailabilityService(pools, identifiers, toucher), pools, identifiers, toucher
}

func TestUpdateAvailabilityEmitsEventsPerDelta(t *testing.T) {
	svc, pools, identifiers, _ := newAvailabilityFixture(t)
	ctx := context.Background()

	ident, _, err := identifiers.GetOrCreate(ctx, datasource.TypeOverdriveID, "abc-123")
	require.NoError(t, err)
	pool, _, err := pools.GetOrCreate(ctx, datasource.Overdrive, ident.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateAvailability(ctx, pool.ID, 5, 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.LicensesOwned)
	assert.Equal(t, 3, updated.LicensesAvailable)
	assert.NotNil(t, updated.LastChecked)

	events, err := pools.EventsForPool(ctx, pool.ID)
	require.NoError(t, err)

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	assert.ElementsMatch(t, []string{
		model.EventHoldPlace,
		model.EventCheckIn,
		model.EventAvailabilityNotify,
		model.EventLicenseAdd,
	}, types)

	// Copies get checked out and a hold is released.
	_, err = svc.UpdateAvailability(ctx, pool.ID, 5, 1, 1, 1)
	require.NoError(t, err)

	events, err = pools.EventsForPool(ctx, pool.ID)
	require.NoError(t, err)

	var checkout, holdRelease *model.CirculationEvent
	for i := range events {
		switch events[i].Type {
		case model.EventCheckOut:
			checkout = &events[i]
		case model.EventHoldRelease:
			holdRelease = &events[i]
		}
	}
	require.NotNil(t, checkout)
	assert.Equal(t, 3, checkout.OldValue)
	assert.Equal(t, 1, checkout.NewValue)
	assert.Equal(t, 2, checkout.Delta())
	require.NotNil(t, holdRelease)
}

func TestUpdateAvailabilityNoChangeNoEvents(t *testing.T) {
	svc, pools, identifiers, _ := newAvailabilityFixture(t)
	ctx := context.Background()

	ident, _, err := identifiers.GetOrCreate(ctx, datasource.TypeOverdriveID, "no-change")
	require.NoError(t, err)
	pool, _, err := pools.GetOrCreate(ctx, datasource.Overdrive, ident.ID)
	require.NoError(t, err)

	_, err = svc.UpdateAvailability(ctx, pool.ID, 0, 0, 0, 0)
	require.NoError(t, err)

	events, err := pools.EventsForPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateAvailabilityReservedDrainIsSilent(t *testing.T) {
	svc, pools, identifiers, _ := newAvailabilityFixture(t)
	ctx := context.Background()

	ident, _, err := identifiers.GetOrCreate(ctx, datasource.TypeThreeMID, "res-1")
	require.NoError(t, err)
	pool, _, err := pools.GetOrCreate(ctx, datasource.ThreeM, ident.ID)
	require.NoError(t, err)

	_, err = svc.UpdateAvailability(ctx, pool.ID, 0, 0, 2, 0)
	require.NoError(t, err)
	_, err = svc.UpdateAvailability(ctx, pool.ID, 0, 0, 0, 0)
	require.NoError(t, err)

	events, err := pools.EventsForPool(ctx, pool.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAvailabilityNotify, events[0].Type)
}

func TestUpdateAvailabilityTouchesWork(t *testing.T) {
	svc, pools, identifiers, toucher := newAvailabilityFixture(t)
	ctx := context.Background()

	ident, _, err := identifiers.GetOrCreate(ctx, datasource.TypeOverdriveID, "touch-1")
	require.NoError(t, err)
	pool, _, err := pools.GetOrCreate(ctx, datasource.Overdrive, ident.ID)
	require.NoError(t, err)

	workID := uuid.New()
	pool.WorkID = &workID
	require.NoError(t, pools.Update(ctx, pool))

	_, err = svc.UpdateAvailability(ctx, pool.ID, 1, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{workID}, toucher.touched)
}

func TestBestOpenAccessLinkPrefersFullEpub(t *testing.T) {
	svc, pools, identifiers, _ := newAvailabilityFixture(t)
	ctx := context.Background()

	ident, _, err := identifiers.GetOrCreate(ctx, datasource.TypeGutenbergID, "84")
	require.NoError(t, err)
	pool, _, err := pools.GetOrCreate(ctx, datasource.Gutenberg, ident.ID)
	require.NoError(t, err)

	quality := func(q float64) *float64 { return &q }
	require.NoError(t, identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: ident.ID,
		DataSource:   datasource.Gutenberg,
		Rel:          identifiermodel.RelOpenAccessDownload,
		URL:          "http://gutenberg.example/84.epub.noimages",
		MediaType:    identifiermodel.EpubMediaType,
		Quality:      quality(0.9),
	}))
	require.NoError(t, identifiers.AddResource(ctx, &identifiermodel.Resource{
		IdentifierID: ident.ID,
		DataSource:   datasource.Gutenberg,
		Rel:          identifiermodel.RelOpenAccessDownload,
		URL:          "http://gutenberg.example/84.epub.images",
		MediaType:    identifiermodel.EpubMediaType,
		Quality:      quality(0.5),
	}))

	best, err := svc.BestOpenAccessLink(ctx, pool)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "http://gutenberg.example/84.epub.images", best.URL)
}
