package model

import (
	"regexp"
	"strings"

	editionmodel "circulation-backend/internal/domains/edition/model"
)

// Work-level similarity compares distributions rather than single values:
// with many editions attached to each work, overlap in the title, author,
// and language histograms is a much stronger signal than any one edition
// pair. Used as the merge gate.

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

type histogram map[string]float64

func (h histogram) add(key string, amount float64) {
	h[key] += amount
}

// normalize scales the histogram so its values sum to 1.
func (h histogram) normalize() histogram {
	var total float64
	for _, v := range h {
		total += v
	}
	if total == 0 {
		return histogram{}
	}
	out := make(histogram, len(h))
	for k, v := range h {
		out[k] = v / total
	}
	return out
}

// distance is the total variation distance between two normalized
// histograms: 0 for identical distributions, 1 for disjoint ones.
func distance(a, b histogram) float64 {
	var total float64
	for k, v := range a {
		d := v - b[k]
		if d < 0 {
			d = -d
		}
		total += d
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			total += v
		}
	}
	return total / 2
}

func titleHistogram(editions []editionmodel.Edition) histogram {
	h := histogram{}
	for _, e := range editions {
		for _, w := range wordRe.FindAllString(strings.ToLower(e.Title), -1) {
			h.add(w, 1)
		}
	}
	return h.normalize()
}

func authorHistogram(editions []editionmodel.Edition) histogram {
	h := histogram{}
	for _, e := range editions {
		if e.Author != "" {
			h.add(strings.ToLower(e.Author), 1)
		}
	}
	return h.normalize()
}

func languageHistogram(editions []editionmodel.Edition) histogram {
	h := histogram{}
	for _, e := range editions {
		if e.Language != "" {
			h.add(e.Language, 1)
		}
	}
	return h.normalize()
}

// Similarity scores how likely two sets of editions describe the same book,
// on a 0..1 scale. Title overlap is weighted most heavily; a missing
// language distribution on either side is not penalized.
func Similarity(mine, others []editionmodel.Edition) float64 {
	titleQuotient := 1 - distance(titleHistogram(mine), titleHistogram(others))
	authorQuotient := 1 - distance(authorHistogram(mine), authorHistogram(others))

	languageFactor := 1.0
	myLanguages := languageHistogram(mine)
	otherLanguages := languageHistogram(others)
	if len(myLanguages) > 0 && len(otherLanguages) > 0 {
		languageFactor = 1 - distance(myLanguages, otherLanguages)
	}

	return languageFactor * (titleQuotient*0.80 + authorQuotient*0.20)
}
