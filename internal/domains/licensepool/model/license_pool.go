package model

import (
	"time"

	"github.com/google/uuid"
)

// LicensePool tracks a source's lending capability for one identifier:
// license counts, holds, and open-access status. At most one pool exists
// per identifier.
type LicensePool struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	DataSource   string     `json:"data_source" db:"data_source"`
	IdentifierID int64      `json:"identifier_id" db:"identifier_id"`
	WorkID       *uuid.UUID `json:"work_id,omitempty" db:"work_id"`

	OpenAccess bool `json:"open_access" db:"open_access"`

	LicensesOwned      int `json:"licenses_owned" db:"licenses_owned"`
	LicensesAvailable  int `json:"licenses_available" db:"licenses_available"`
	LicensesReserved   int `json:"licenses_reserved" db:"licenses_reserved"`
	PatronsInHoldQueue int `json:"patrons_in_hold_queue" db:"patrons_in_hold_queue"`

	AvailabilityTime *time.Time `json:"availability_time,omitempty" db:"availability_time"`
	LastChecked      *time.Time `json:"last_checked,omitempty" db:"last_checked"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NeedsCheck reports whether availability data is stale.
func (p *LicensePool) NeedsCheck(maximumStale time.Duration) bool {
	if p.LastChecked == nil {
		return true
	}
	return time.Since(*p.LastChecked) > maximumStale
}
