package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "moby dick", NormalizeTitle("Moby-Dick"))
	assert.Equal(t, "left hand of darkness", NormalizeTitle("The Left Hand of Darkness"))
	assert.Equal(t, "wrinkle in time", NormalizeTitle("A  Wrinkle in Time!"))
}

func TestNormalizeAuthorIgnoresNameOrder(t *testing.T) {
	assert.Equal(t, NormalizeAuthor("Tolstoy, Leo"), NormalizeAuthor("Leo Tolstoy"))
	assert.Equal(t, "herman melville", NormalizeAuthor("Melville, Herman"))
}

func TestPermanentWorkIDStableAcrossSources(t *testing.T) {
	a := PermanentWorkID("Moby-Dick", "Herman Melville", MediumBook)
	b := PermanentWorkID("moby dick", "Melville, Herman", MediumAudio)
	assert.Equal(t, a, b, "audio and text of the same title by the same author share a work id")

	c := PermanentWorkID("Moby-Dick", "Herman Melville", MediumVideo)
	assert.NotEqual(t, a, c, "the film is a different work")

	d := PermanentWorkID("Moby-Dick", "Someone Else", MediumBook)
	assert.NotEqual(t, a, d)
}

func TestCalculatePermanentWorkIDUsesSubtitle(t *testing.T) {
	e := &Edition{Title: "Frankenstein", Author: "Mary Shelley", Medium: MediumBook}
	e.CalculatePermanentWorkID()
	withoutSubtitle := e.PermanentWorkID
	assert.NotEmpty(t, withoutSubtitle)

	e.Subtitle = "The Modern Prometheus"
	e.CalculatePermanentWorkID()
	assert.NotEqual(t, withoutSubtitle, e.PermanentWorkID)
}

func TestCalculatePermanentWorkIDRequiresTitle(t *testing.T) {
	e := &Edition{Author: "Anonymous", Medium: MediumBook}
	e.CalculatePermanentWorkID()
	assert.Empty(t, e.PermanentWorkID)
}

func TestSortTitleFor(t *testing.T) {
	assert.Equal(t, "Left Hand of Darkness, The", SortTitleFor("The Left Hand of Darkness"))
	assert.Equal(t, "Wrinkle in Time, A", SortTitleFor("A Wrinkle in Time"))
	assert.Equal(t, "Moby-Dick", SortTitleFor("Moby-Dick"))
}
