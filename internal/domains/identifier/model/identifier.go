package model

import "fmt"

// Identifier is a typed external key for a book: ISBN, ASIN, OCLC Number, or
// a vendor-specific id. Identity is (type, value); rows are never deleted
// once referenced.
type Identifier struct {
	ID    int64  `json:"id" db:"id"`
	Type  string `json:"type" db:"type"`
	Value string `json:"value" db:"value"`
}

const URNSchemePrefix = "urn:librarysimplified.org/terms/id/"

func (i *Identifier) URN() string {
	if i.Type == "ISBN" {
		return "urn:isbn:" + i.Value
	}
	return fmt.Sprintf("%s%s/%s", URNSchemePrefix, i.Type, i.Value)
}

// Equivalency is a directed assertion by one data source that two
// identifiers denote the same work. Strength is in [-1, 1]; a negative
// strength asserts NON-equivalence. Votes counts how many distinct
// observations back the assertion.
type Equivalency struct {
	ID         int64   `json:"id" db:"id"`
	InputID    int64   `json:"input_id" db:"input_id"`
	OutputID   int64   `json:"output_id" db:"output_id"`
	DataSource string  `json:"data_source" db:"data_source"`
	Strength   float64 `json:"strength" db:"strength"`
	Votes      int     `json:"votes" db:"votes"`
}

// Resource is a piece of content (description, cover image, download link)
// attached to an Identifier by a data source.
type Resource struct {
	ID           int64    `json:"id" db:"id"`
	IdentifierID int64    `json:"identifier_id" db:"identifier_id"`
	DataSource   string   `json:"data_source" db:"data_source"`
	Rel          string   `json:"rel" db:"rel"`
	URL          string   `json:"url" db:"url"`
	MediaType    string   `json:"media_type" db:"media_type"`
	Content      string   `json:"content" db:"content"`
	Quality      *float64 `json:"quality" db:"quality"`
}

// Resource rels.
const (
	RelDescription        = "http://schema.org/description"
	RelShortDescription   = "http://librarysimplified.org/terms/rel/short-description"
	RelImage              = "http://opds-spec.org/image"
	RelThumbnail          = "http://opds-spec.org/image/thumbnail"
	RelOpenAccessDownload = "http://opds-spec.org/acquisition/open-access"
)

const EpubMediaType = "application/epub+zip"

// Equivalent is one entry in a computed closure: how confident we are that
// two identifiers denote the same work, and how many votes back the chain.
type Equivalent struct {
	Confidence float64 `json:"confidence"`
	Votes      int     `json:"votes"`
}

// SelfVotes is the vote-weight sentinel for an identifier's trivial
// equivalence to itself.
const SelfVotes = 1000000

// ClosureMap maps each seed identifier id to its equivalents.
type ClosureMap map[int64]map[int64]Equivalent

// Flatten collapses the closure into the set of all reachable identifier
// ids, seeds included.
func (c ClosureMap) Flatten() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, equivalents := range c {
		for id := range equivalents {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
