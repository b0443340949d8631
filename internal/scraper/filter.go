package scraper

import (
	"iter"
	"slices"
	"strings"

	"github.com/handiism/math-downloader/internal/model"
)

// Criteria are the inclusion rules applied to parsed entries.
type Criteria struct {
	// Extensions is the allowlist of URL path extensions, with the dot.
	// Empty allows every extension.
	Extensions []string

	// Keywords, when set, require the title or summary to contain one of
	// them, ignoring case.
	Keywords []string

	// Categories, when set, require the entry category to be listed.
	Categories []string
}

// DefaultCriteria returns the criteria used for source. Only PDFs are
// accepted; arXiv entries must also read like teaching material.
func DefaultCriteria(source model.Source) Criteria {
	c := Criteria{Extensions: []string{".pdf"}}
	if source == model.SourceArxiv {
		c.Keywords = []string{"textbook", "lecture notes", "course notes", "introduction to"}
	}
	return c
}

// Match reports whether e satisfies every rule of c.
func (c Criteria) Match(e model.DocumentEntry) bool {
	if len(c.Extensions) > 0 {
		ext := extension(e.URL)
		if !slices.ContainsFunc(c.Extensions, func(allowed string) bool {
			return strings.EqualFold(allowed, ext)
		}) {
			return false
		}
	}

	if len(c.Keywords) > 0 {
		text := strings.ToLower(e.Title + "\n" + e.Summary)
		if !slices.ContainsFunc(c.Keywords, func(k string) bool {
			return strings.Contains(text, strings.ToLower(k))
		}) {
			return false
		}
	}

	if len(c.Categories) > 0 && !slices.Contains(c.Categories, e.Category) {
		return false
	}

	return true
}

// Filter yields the entries of entries that match c, in order. It has no
// side effects; the result is as restartable as entries.
func Filter(entries iter.Seq[model.DocumentEntry], c Criteria) iter.Seq[model.DocumentEntry] {
	return func(yield func(model.DocumentEntry) bool) {
		for e := range entries {
			if c.Match(e) && !yield(e) {
				return
			}
		}
	}
}
