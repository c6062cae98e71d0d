package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSimilarityToSelf(t *testing.T) {
	e := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	assert.Equal(t, 1.0, e.SimilarityTo(e))
}

func TestSimilarityIdenticalMetadata(t *testing.T) {
	a := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	b := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	assert.InDelta(t, 1.0, a.SimilarityTo(b), 1e-9)
}

func TestSimilarityConflictingLanguagesDisqualifies(t *testing.T) {
	a := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	b := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "fre"}
	assert.Equal(t, 0.0, a.SimilarityTo(b))
}

func TestSimilarityNoAuthorOverlapDisqualifies(t *testing.T) {
	a := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	b := &Edition{ID: uuid.New(), Title: "Emma", Author: "Charlotte Bronte", Language: "eng"}
	assert.Equal(t, 0.0, a.SimilarityTo(b))
}

func TestSimilarityMissingLanguagePenalty(t *testing.T) {
	a := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "eng"}
	b := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen"}
	assert.InDelta(t, 0.80, a.SimilarityTo(b), 1e-9)

	c := &Edition{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Language: "fre"}
	assert.InDelta(t, 0.50, c.SimilarityTo(b), 1e-9)
}

func TestSimilarityWeightsTitleOverAuthor(t *testing.T) {
	base := &Edition{ID: uuid.New(), Title: "Pride and Prejudice", Author: "Jane Austen", Language: "eng"}
	sameTitle := &Edition{ID: uuid.New(), Title: "Pride and Prejudice", Author: "Jane Austen Estate", Language: "eng"}
	sameAuthor := &Edition{ID: uuid.New(), Title: "Persuasion", Author: "Jane Austen", Language: "eng"}

	assert.Greater(t, base.SimilarityTo(sameTitle), base.SimilarityTo(sameAuthor))
}
