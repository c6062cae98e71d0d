package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// UpdateAvailabilityRequest carries a fresh availability snapshot from a
// source's circulation feed.
type UpdateAvailabilityRequest struct {
	LicensesOwned      int `json:"licenses_owned"`
	LicensesAvailable  int `json:"licenses_available"`
	LicensesReserved   int `json:"licenses_reserved"`
	PatronsInHoldQueue int `json:"patrons_in_hold_queue"`
}

func (r UpdateAvailabilityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LicensesOwned, validation.Min(0)),
		validation.Field(&r.LicensesAvailable, validation.Min(0)),
		validation.Field(&r.LicensesReserved, validation.Min(0)),
		validation.Field(&r.PatronsInHoldQueue, validation.Min(0)),
	)
}

// CalculateWorkRequest tunes the consolidation of one pool.
type CalculateWorkRequest struct {
	EvenIfNoAuthor bool `json:"even_if_no_author"`
}
