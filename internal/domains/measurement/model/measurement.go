package model

import (
	"time"

	"github.com/google/uuid"
)

// Measured quantities, identified by URI.
const (
	QuantityPopularity = "http://librarysimplified.org/terms/rel/popularity"
	QuantityRating     = "http://schema.org/ratingValue"
	QuantityDownloads  = "https://schema.org/UserDownloads"
	QuantityPageCount  = "https://schema.org/numberOfPages"
)

// Measurement is a numeric observation about an identifier: a star rating,
// a download count, a vendor popularity score. Only the most recent
// measurement of a quantity per (identifier, source) counts toward quality.
type Measurement struct {
	ID           uuid.UUID `json:"id" db:"id"`
	IdentifierID int64     `json:"identifier_id" db:"identifier_id"`
	DataSource   string    `json:"data_source" db:"data_source"`
	Quantity     string    `json:"quantity" db:"quantity"`
	Value        float64   `json:"value" db:"value"`
	Weight       float64   `json:"weight" db:"weight"`
	TakenAt      time.Time `json:"taken_at" db:"taken_at"`
	IsMostRecent bool      `json:"is_most_recent" db:"is_most_recent"`

	// NormalizedValue is the value mapped onto a 0..1 scale, computed
	// lazily and persisted back.
	NormalizedValue *float64 `json:"normalized_value,omitempty" db:"normalized_value"`
}
