package model

import (
	"strings"

	"github.com/google/uuid"
)

// Similarity between two editions: how likely is it that they describe the
// same book? 1 is a near-certain match, 0 is none at all. Word overlap in
// titles and author names is good enough here because there is usually a
// preexisting reason to compare the two records at all (an equivalency
// edge said they were related).

var titleStopwords = map[string]bool{
	"the": true, "a": true, "an": true,
}

func wordbag(s string) map[string]bool {
	bag := make(map[string]bool)
	for _, w := range strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(s), " ")) {
		bag[w] = true
	}
	return bag
}

// wordOverlap is the Jaccard quotient of two word bags after removing
// stopwords.
func wordOverlap(a, b map[string]bool, stopwords map[string]bool) float64 {
	intersection, union := 0, 0
	for w := range a {
		if stopwords[w] {
			continue
		}
		union++
		if b[w] {
			intersection++
		}
	}
	for w := range b {
		if stopwords[w] || a[w] {
			continue
		}
		union++
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TitleSimilarity compares two titles by word overlap.
func TitleSimilarity(title1, title2 string) float64 {
	return wordOverlap(wordbag(title1), wordbag(title2), titleStopwords)
}

// AuthorSimilarity compares two author display strings by word overlap.
func AuthorSimilarity(author1, author2 string) float64 {
	return wordOverlap(wordbag(author1), wordbag(author2), nil)
}

// SimilarityTo scores this edition against another.
//
// Title is weighted more heavily than author because one author writing two
// different books is far more common than two books sharing a title across
// different authors. Conflicting languages disqualify outright, and so does
// zero author overlap. An unlabeled language gets a smaller penalty when the
// labeled side is English, since most unlabeled records are English.
func (e *Edition) SimilarityTo(other *Edition) float64 {
	if other == nil {
		return 0
	}
	if e.ID != uuid.Nil && e.ID == other.ID {
		return 1
	}

	var languageFactor float64
	switch {
	case e.Language == other.Language:
		languageFactor = 1
	case e.Language != "" && other.Language != "":
		return 0
	case e.Language == "eng" || other.Language == "eng":
		languageFactor = 0.80
	default:
		languageFactor = 0.50
	}

	authorQuotient := AuthorSimilarity(e.Author, other.Author)
	if authorQuotient == 0 {
		return 0
	}

	titleQuotient := TitleSimilarity(e.FullTitle(), other.FullTitle())
	return languageFactor * (titleQuotient*0.80 + authorQuotient*0.20)
}
