package model

import (
	"time"

	"github.com/google/uuid"
)

// Medium of an edition. The permanent work id folds audio and periodicals
// into "book" so that an audiobook of a text lands on the same work.
const (
	MediumBook       = "Book"
	MediumAudio      = "Audio"
	MediumPeriodical = "Periodical"
	MediumMusic      = "Music"
	MediumVideo      = "Video"
)

// Edition is one data source's view of a book, keyed by
// (data_source, primary_identifier). Re-ingestion from the same source
// mutates the row in place.
type Edition struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	DataSource          string     `json:"data_source" db:"data_source"`
	PrimaryIdentifierID int64      `json:"primary_identifier_id" db:"primary_identifier_id"`
	WorkID              *uuid.UUID `json:"work_id,omitempty" db:"work_id"`
	IsPrimaryForWork    bool       `json:"is_primary_for_work" db:"is_primary_for_work"`

	Title     string `json:"title" db:"title"`
	Subtitle  string `json:"subtitle,omitempty" db:"subtitle"`
	SortTitle string `json:"sort_title,omitempty" db:"sort_title"`

	Author     string `json:"author,omitempty" db:"author"`
	SortAuthor string `json:"sort_author,omitempty" db:"sort_author"`

	Language string `json:"language,omitempty" db:"language"`
	Medium   string `json:"medium" db:"medium"`

	PermanentWorkID string `json:"permanent_work_id,omitempty" db:"permanent_work_id"`

	CoverURL          string `json:"cover_url,omitempty" db:"cover_url"`
	CoverThumbnailURL string `json:"cover_thumbnail_url,omitempty" db:"cover_thumbnail_url"`
	NoKnownCover      bool   `json:"no_known_cover" db:"no_known_cover"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullTitle is the title used for permanent work id computation.
func (e *Edition) FullTitle() string {
	if e.Subtitle != "" {
		return e.Title + ": " + e.Subtitle
	}
	return e.Title
}
