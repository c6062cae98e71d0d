package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	identifiermodel "circulation-backend/internal/domains/identifier/model"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	"circulation-backend/internal/domains/licensepool/model"
	"circulation-backend/internal/domains/licensepool/repository"
)

// WorkToucher lets the pool layer bump a work's last update time without
// depending on the work domain.
type WorkToucher interface {
	TouchLastUpdate(ctx context.Context, workID uuid.UUID) error
}

// AvailabilityService applies availability refreshes from license sources
// and keeps the circulation event log.
type AvailabilityService struct {
	repo        repository.Repository
	identifiers identifierrepo.Repository
	works       WorkToucher
}

func NewAvailabilityService(repo repository.Repository, identifiers identifierrepo.Repository, works WorkToucher) *AvailabilityService {
	return &AvailabilityService{repo: repo, identifiers: identifiers, works: works}
}

// UpdateAvailability applies new counter values to a pool and logs the
// implied circulation events.
//
// Hold-queue growth means holds were placed; available-license growth means
// copies came back. Reserved growth only ever notifies; a reserved copy
// draining away shows up later as a checkout.
func (s *AvailabilityService) UpdateAvailability(ctx context.Context, poolID uuid.UUID, owned, available, reserved, holdQueue int) (*model.LicensePool, error) {
	pool, err := s.repo.GetByID(ctx, poolID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	transitions := []struct {
		oldValue, newValue    int
		moreEvent, fewerEvent string
	}{
		{pool.PatronsInHoldQueue, holdQueue, model.EventHoldPlace, model.EventHoldRelease},
		{pool.LicensesAvailable, available, model.EventCheckIn, model.EventCheckOut},
		{pool.LicensesReserved, reserved, model.EventAvailabilityNotify, ""},
		{pool.LicensesOwned, owned, model.EventLicenseAdd, model.EventLicenseRemove},
	}

	for _, tr := range transitions {
		if tr.oldValue == tr.newValue {
			continue
		}
		eventName := tr.moreEvent
		if tr.oldValue > tr.newValue {
			eventName = tr.fewerEvent
		}
		if eventName == "" {
			continue
		}

		if err := s.repo.AddEvent(ctx, &model.CirculationEvent{
			LicensePoolID: pool.ID,
			Type:          eventName,
			OldValue:      tr.oldValue,
			NewValue:      tr.newValue,
			Start:         now,
		}); err != nil {
			return nil, err
		}
	}

	pool.LicensesOwned = owned
	pool.LicensesAvailable = available
	pool.LicensesReserved = reserved
	pool.PatronsInHoldQueue = holdQueue
	pool.LastChecked = &now

	if err := s.repo.Update(ctx, pool); err != nil {
		return nil, err
	}

	if pool.WorkID != nil && s.works != nil {
		if err := s.works.TouchLastUpdate(ctx, *pool.WorkID); err != nil {
			log.Warn().Err(err).Str("work_id", pool.WorkID.String()).
				Msg("Failed to touch work after availability update")
		}
	}

	log.Info().
		Str("pool_id", pool.ID.String()).
		Int("owned", owned).
		Int("available", available).
		Int("reserved", reserved).
		Int("hold_queue", holdQueue).
		Msg("Availability updated")

	return pool, nil
}

// BestOpenAccessLink finds the best open-access download resource for the
// pool. Epubs are preferred, and a Gutenberg 'noimages' epub is kept only
// as a fallback while the search continues for a better one.
func (s *AvailabilityService) BestOpenAccessLink(ctx context.Context, pool *model.LicensePool) (*identifiermodel.Resource, error) {
	resources, err := s.identifiers.ResourcesFor(ctx, []int64{pool.IdentifierID},
		[]string{identifiermodel.RelOpenAccessDownload}, "")
	if err != nil {
		return nil, err
	}

	var best *identifiermodel.Resource
	for i := range resources {
		res := resources[i]
		if !strings.HasPrefix(res.MediaType, identifiermodel.EpubMediaType) {
			continue
		}
		best = &res
		if !strings.Contains(res.URL, "noimages") {
			break
		}
	}
	return best, nil
}
