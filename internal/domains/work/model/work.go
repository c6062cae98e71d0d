package model

import (
	"time"

	"github.com/google/uuid"
)

// Work is the consolidated, patron-facing entity. Many editions and license
// pools fold into one work; its display metadata comes from a single
// primary edition and its genres, summary, and quality are aggregated over
// the whole equivalence neighborhood.
type Work struct {
	ID uuid.UUID `json:"id" db:"id"`

	Fiction  *bool  `json:"fiction,omitempty" db:"fiction"`
	Audience string `json:"audience,omitempty" db:"audience"`

	SummaryResourceID *int64 `json:"summary_resource_id,omitempty" db:"summary_resource_id"`
	SummaryText       string `json:"summary_text,omitempty" db:"summary_text"`

	// Quality blends popularity and rating into one ranking value.
	Quality float64 `json:"quality" db:"quality"`

	// PresentationReady gates visibility in patron-facing feeds. A work
	// that never reaches readiness simply never appears; absence is the
	// failure signal.
	PresentationReady bool `json:"presentation_ready" db:"presentation_ready"`

	// WasMergedInto retires this work; traffic should follow the pointer.
	WasMergedInto *uuid.UUID `json:"was_merged_into,omitempty" db:"was_merged_into"`

	LastUpdateTime *time.Time `json:"last_update_time,omitempty" db:"last_update_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Merged reports whether this work has been retired by a merge.
func (w *Work) Merged() bool {
	return w.WasMergedInto != nil
}

// WorkGenre is a weighted genre assignment. Affinities on one work sum
// to 1.
type WorkGenre struct {
	WorkID   uuid.UUID `json:"work_id" db:"work_id"`
	Genre    string    `json:"genre" db:"genre"`
	Affinity float64   `json:"affinity" db:"affinity"`
}
