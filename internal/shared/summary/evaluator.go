// Package summary scores candidate descriptions for a work against each
// other. The idea: phrases that recur across independently-written
// descriptions of the same book are the ones that actually describe it, so a
// summary that uses them is probably on topic.
package summary

import (
	"strings"
	"unicode"
)

// Evaluator ranks description texts against a shared corpus. Add every
// candidate, call Ready, then Score each one.
type Evaluator interface {
	Add(text string)
	Ready()
	Score(text string) float64
}

// NounPhraseEvaluator approximates noun-phrase overlap with term frequency
// over the pooled corpus.
type NounPhraseEvaluator struct {
	termCounts map[string]int
	docs       int
	ready      bool
}

func NewNounPhraseEvaluator() *NounPhraseEvaluator {
	return &NounPhraseEvaluator{termCounts: make(map[string]int)}
}

func (e *NounPhraseEvaluator) Add(text string) {
	seen := make(map[string]bool)
	for _, term := range terms(text) {
		if !seen[term] {
			e.termCounts[term]++
			seen[term] = true
		}
	}
	e.docs++
}

func (e *NounPhraseEvaluator) Ready() {
	e.ready = true
}

// Score is the mean cross-document frequency of the text's terms. Terms that
// only this text uses contribute nothing.
func (e *NounPhraseEvaluator) Score(text string) float64 {
	if !e.ready || e.docs == 0 {
		return 0
	}
	tt := terms(text)
	if len(tt) == 0 {
		return 0
	}
	var shared float64
	seen := make(map[string]bool)
	for _, term := range tt {
		if seen[term] {
			continue
		}
		seen[term] = true
		if n := e.termCounts[term]; n > 1 {
			shared += float64(n-1) / float64(e.docs)
		}
	}
	return shared / float64(len(seen))
}

var stopwords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "from": true,
	"this": true, "that": true, "his": true, "her": true, "their": true,
	"has": true, "have": true, "was": true, "are": true, "but": true,
	"not": true, "into": true, "when": true, "who": true, "will": true,
}

func terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := words[:0]
	for _, w := range words {
		if len(w) > 2 && !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}
