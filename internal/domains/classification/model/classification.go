package model

import "time"

// Subject is a named concept some data source used to classify a book: a
// DDC range, an LCSH heading, a vendor genre tag. Subjects start unchecked
// and get resolved against the genre taxonomy on first use.
type Subject struct {
	ID         int64     `json:"id" db:"id"`
	Type       string    `json:"type" db:"type"`
	Identifier string    `json:"identifier" db:"identifier"`
	Name       string    `json:"name,omitempty" db:"name"`
	Fiction    *bool     `json:"fiction,omitempty" db:"fiction"`
	Audience   string    `json:"audience,omitempty" db:"audience"`
	Genre      string    `json:"genre,omitempty" db:"genre"`
	Checked    bool      `json:"checked" db:"checked"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HasMeaning reports whether resolving this subject produced anything a
// work's presentation can use.
func (s *Subject) HasMeaning() bool {
	return s.Fiction != nil || s.Genre != "" || s.Audience != ""
}

// Classification links an identifier to a subject, weighted by how strongly
// the source asserted it.
type Classification struct {
	ID           int64  `json:"id" db:"id"`
	IdentifierID int64  `json:"identifier_id" db:"identifier_id"`
	SubjectID    int64  `json:"subject_id" db:"subject_id"`
	DataSource   string `json:"data_source" db:"data_source"`
	Weight       int    `json:"weight" db:"weight"`
}

// WithSubject pairs a classification with its resolved subject for
// aggregation.
type WithSubject struct {
	Classification
	Subject Subject `json:"subject"`
}
