package model

import (
	"time"

	"github.com/google/uuid"
)

// Circulation event names.
const (
	EventCheckOut           = "check_out"
	EventCheckIn            = "check_in"
	EventHoldPlace          = "hold_place"
	EventHoldRelease        = "hold_release"
	EventLicenseAdd         = "license_add"
	EventLicenseRemove      = "license_remove"
	EventAvailabilityNotify = "availability_notify"
	EventTitleAdd           = "title_add"
	EventTitleRemove        = "title_remove"
)

// CirculationEvent is an append-only record of a change in a pool's
// availability counters.
type CirculationEvent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LicensePoolID uuid.UUID `json:"license_pool_id" db:"license_pool_id"`
	Type          string    `json:"type" db:"type"`
	OldValue      int       `json:"old_value" db:"old_value"`
	NewValue      int       `json:"new_value" db:"new_value"`
	Start         time.Time `json:"start" db:"start"`
}

// Delta is the magnitude of the change the event records.
func (e *CirculationEvent) Delta() int {
	d := e.NewValue - e.OldValue
	if d < 0 {
		return -d
	}
	return d
}
