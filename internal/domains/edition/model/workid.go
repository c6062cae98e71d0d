package model

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// The permanent work id is a stable hash over normalized
// (title, author, medium). Two sources describing the same book should
// arrive at the same id even when their metadata differs in case,
// punctuation, article placement, or author name order.

var (
	nonWordRe    = regexp.MustCompile(`[^a-z0-9 ]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	leadingArticles = []string{"the ", "a ", "an "}
)

// NormalizeTitle lowercases, strips punctuation and a leading article, and
// collapses whitespace.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, article := range leadingArticles {
		if strings.HasPrefix(t, article) {
			t = t[len(article):]
			break
		}
	}
	t = nonWordRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
}

// NormalizeAuthor lowercases, strips punctuation, and sorts the name words
// so that "Tolstoy, Leo" and "Leo Tolstoy" normalize identically.
func NormalizeAuthor(author string) string {
	a := strings.ToLower(strings.TrimSpace(author))
	a = nonWordRe.ReplaceAllString(a, " ")
	words := strings.Fields(a)
	sort.Strings(words)
	return strings.Join(words, " ")
}

// workIDMedium collapses delivery formats that carry the same text.
func workIDMedium(medium string) string {
	switch medium {
	case MediumBook, MediumAudio, MediumPeriodical:
		return "book"
	case MediumMusic:
		return "music"
	case MediumVideo:
		return "movie"
	default:
		return "book"
	}
}

// PermanentWorkID derives the work-matching key for an edition.
func PermanentWorkID(title, author, medium string) string {
	normTitle := NormalizeTitle(title)
	normAuthor := NormalizeAuthor(author)
	h := sha1.Sum([]byte(normTitle + "|" + normAuthor + "|" + workIDMedium(medium)))
	return fmt.Sprintf("%x", h)
}

// CalculatePermanentWorkID fills in the edition's permanent work id from its
// current title, subtitle, author, and medium.
func (e *Edition) CalculatePermanentWorkID() {
	if e.Title == "" {
		return
	}
	e.PermanentWorkID = PermanentWorkID(e.FullTitle(), e.Author, e.Medium)
}

// SortTitleFor moves a leading article to the end: "The Left Hand of
// Darkness" sorts as "Left Hand of Darkness, The".
func SortTitleFor(title string) string {
	for _, article := range []string{"The ", "A ", "An "} {
		if strings.HasPrefix(title, article) {
			return strings.TrimSpace(title[len(article):]) + ", " + strings.TrimSpace(article)
		}
	}
	return title
}
