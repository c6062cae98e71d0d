// Package taxonomy holds the genre tree and the subject-to-genre rules the
// presentation calculator consults. The tables are fixed at build time; the
// upstream classification schemes (DDC, LCC, vendor headings) change rarely
// enough that a redeploy is acceptable.
package taxonomy

import "strings"

// Audience values.
const (
	AudienceAdult      = "Adult"
	AudienceYoungAdult = "Young Adult"
	AudienceChildren   = "Children"
)

// Subject scheme types.
const (
	SchemeDDC       = "DDC"
	SchemeLCC       = "LCC"
	SchemeLCSH      = "LCSH"
	SchemeOverdrive = "Overdrive"
	SchemeThreeM    = "3M"
	SchemeTag       = "tag"
	SchemeAudience  = "schema:audience"
)

// Genre is a node in the genre tree.
type Genre struct {
	Name    string
	Parent  string // empty for top-level genres
	Fiction *bool
}

func boolPtr(b bool) *bool { return &b }

var genres = map[string]Genre{
	"Science Fiction":    {Name: "Science Fiction", Fiction: boolPtr(true)},
	"Space Opera":        {Name: "Space Opera", Parent: "Science Fiction", Fiction: boolPtr(true)},
	"Dystopian":          {Name: "Dystopian", Parent: "Science Fiction", Fiction: boolPtr(true)},
	"Fantasy":            {Name: "Fantasy", Fiction: boolPtr(true)},
	"Urban Fantasy":      {Name: "Urban Fantasy", Parent: "Fantasy", Fiction: boolPtr(true)},
	"Epic Fantasy":       {Name: "Epic Fantasy", Parent: "Fantasy", Fiction: boolPtr(true)},
	"Mystery":            {Name: "Mystery", Fiction: boolPtr(true)},
	"Police Procedural":  {Name: "Police Procedural", Parent: "Mystery", Fiction: boolPtr(true)},
	"Romance":            {Name: "Romance", Fiction: boolPtr(true)},
	"Historical Fiction": {Name: "Historical Fiction", Fiction: boolPtr(true)},
	"Horror":             {Name: "Horror", Fiction: boolPtr(true)},
	"Adventure":          {Name: "Adventure", Fiction: boolPtr(true)},
	"Literary Fiction":   {Name: "Literary Fiction", Fiction: boolPtr(true)},
	"Biography":          {Name: "Biography", Fiction: boolPtr(false)},
	"History":            {Name: "History", Fiction: boolPtr(false)},
	"Military History":   {Name: "Military History", Parent: "History", Fiction: boolPtr(false)},
	"Science":            {Name: "Science", Fiction: boolPtr(false)},
	"Cooking":            {Name: "Cooking", Fiction: boolPtr(false)},
	"Self-Help":          {Name: "Self-Help", Fiction: boolPtr(false)},
	"Travel":             {Name: "Travel", Fiction: boolPtr(false)},
	"Religion":           {Name: "Religion", Fiction: boolPtr(false)},
	"Poetry":             {Name: "Poetry", Fiction: boolPtr(true)},
	"Drama":              {Name: "Drama", Fiction: boolPtr(true)},
}

// Lookup returns a genre by name.
func Lookup(name string) (Genre, bool) {
	g, ok := genres[name]
	return g, ok
}

// ParentChain returns the ancestors of a genre, nearest first.
func ParentChain(name string) []string {
	var chain []string
	g, ok := genres[name]
	for ok && g.Parent != "" {
		chain = append(chain, g.Parent)
		g, ok = genres[g.Parent]
	}
	return chain
}

// Classification is the outcome of classifying one subject heading.
type Classification struct {
	Genre    string
	Audience string
	Fiction  *bool
}

type rule struct {
	scheme     string
	identifier string // exact match, lowercased
	out        Classification
}

var exactRules = []rule{
	{SchemeOverdrive, "science fiction", Classification{Genre: "Science Fiction", Fiction: boolPtr(true)}},
	{SchemeOverdrive, "fantasy", Classification{Genre: "Fantasy", Fiction: boolPtr(true)}},
	{SchemeOverdrive, "romance", Classification{Genre: "Romance", Fiction: boolPtr(true)}},
	{SchemeOverdrive, "mystery", Classification{Genre: "Mystery", Fiction: boolPtr(true)}},
	{SchemeOverdrive, "juvenile fiction", Classification{Audience: AudienceChildren, Fiction: boolPtr(true)}},
	{SchemeOverdrive, "young adult fiction", Classification{Audience: AudienceYoungAdult, Fiction: boolPtr(true)}},
	{SchemeOverdrive, "biography & autobiography", Classification{Genre: "Biography", Fiction: boolPtr(false)}},
	{SchemeOverdrive, "cooking & food", Classification{Genre: "Cooking", Fiction: boolPtr(false)}},
	{SchemeThreeM, "science fiction/fantasy", Classification{Genre: "Science Fiction", Fiction: boolPtr(true)}},
	{SchemeThreeM, "mystery", Classification{Genre: "Mystery", Fiction: boolPtr(true)}},
	{SchemeThreeM, "biography", Classification{Genre: "Biography", Fiction: boolPtr(false)}},
	{SchemeTag, "science fiction", Classification{Genre: "Science Fiction", Fiction: boolPtr(true)}},
	{SchemeTag, "space opera", Classification{Genre: "Space Opera", Fiction: boolPtr(true)}},
	{SchemeTag, "detective and mystery stories", Classification{Genre: "Mystery", Fiction: boolPtr(true)}},
	{SchemeAudience, "adult", Classification{Audience: AudienceAdult}},
	{SchemeAudience, "young adult", Classification{Audience: AudienceYoungAdult}},
	{SchemeAudience, "children", Classification{Audience: AudienceChildren}},
}

// Classify maps a subject heading to genre/audience/fiction hints. A zero
// Classification means the scheme told us nothing.
func Classify(scheme, identifier string) Classification {
	ident := strings.ToLower(strings.TrimSpace(identifier))

	for _, r := range exactRules {
		if r.scheme == scheme && r.identifier == ident {
			return r.out
		}
	}

	switch scheme {
	case SchemeDDC:
		return classifyDDC(ident)
	case SchemeLCC:
		return classifyLCC(ident)
	}
	return Classification{}
}

// classifyDDC interprets Dewey Decimal numbers. Everything in Dewey except
// the 800s literature ranges is nonfiction.
func classifyDDC(ident string) Classification {
	ident = strings.TrimPrefix(ident, "ddc ")
	if ident == "" {
		return Classification{}
	}
	switch {
	case strings.HasPrefix(ident, "813"), strings.HasPrefix(ident, "823"):
		return Classification{Fiction: boolPtr(true)}
	case strings.HasPrefix(ident, "811"), strings.HasPrefix(ident, "821"):
		return Classification{Genre: "Poetry", Fiction: boolPtr(true)}
	case strings.HasPrefix(ident, "5"):
		return Classification{Genre: "Science", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "641"):
		return Classification{Genre: "Cooking", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "9"):
		return Classification{Genre: "History", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "2"):
		return Classification{Genre: "Religion", Fiction: boolPtr(false)}
	case ident[0] >= '0' && ident[0] <= '9':
		return Classification{Fiction: boolPtr(false)}
	}
	return Classification{}
}

// classifyLCC interprets Library of Congress call-number prefixes.
func classifyLCC(ident string) Classification {
	switch {
	case strings.HasPrefix(ident, "pz"):
		return Classification{Audience: AudienceChildren, Fiction: boolPtr(true)}
	case strings.HasPrefix(ident, "ps"), strings.HasPrefix(ident, "pr"):
		return Classification{Fiction: boolPtr(true)}
	case strings.HasPrefix(ident, "q"):
		return Classification{Genre: "Science", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "d"), strings.HasPrefix(ident, "e"), strings.HasPrefix(ident, "f"):
		return Classification{Genre: "History", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "ct"):
		return Classification{Genre: "Biography", Fiction: boolPtr(false)}
	case strings.HasPrefix(ident, "g"):
		return Classification{Genre: "Travel", Fiction: boolPtr(false)}
	}
	return Classification{}
}
