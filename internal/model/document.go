package model

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/math-downloader/internal/io"
)

// maxFileNameLength limits the file name stem (without ".pdf").
const maxFileNameLength = 200

// DocumentEntry is a single document found on a listing page.
//
// Entries are created by the source parsers and consumed once by the
// download Manager. They are plain values: copying an entry never shares
// state, and the helper methods return modified copies.
//
// Example:
//
//	entry := NewDocumentEntry(SourceMITOCW, "Lecture 1: Limits", "18.01", pdfURL, "")
//	// entry.DestinationPath = "mit_ocw/mit_Lecture 1_ Limits.pdf"
type DocumentEntry struct {
	// Title is the document title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Category is an optional grouping such as an arXiv category ("math.AG")
	// or the course or search term the document was found under.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Source is where the document comes from.
	Source Source `json:"source" yaml:"source"`

	// URL is the absolute URL of the document body.
	URL string `json:"url" yaml:"url"`

	// DestinationPath is relative to the run's output directory.
	DestinationPath string `json:"destination_path" yaml:"destination_path"`

	// Mirrors are further URLs of the same document, tried in order when
	// URL cannot be downloaded.
	Mirrors []string `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`

	// Summary holds the abstract when the source provides one.
	Summary string `json:"-" yaml:"-"`
}

// NewDocumentEntry creates an entry and computes its destination path.
//
// The file name depends on the source:
//   - arXiv: {category}_{title}.pdf
//   - MIT OCW: mit_{title}.pdf
//   - Gutenberg: gutenberg_{title}.pdf
func NewDocumentEntry(source Source, title, category, url, summary string) DocumentEntry {
	e := DocumentEntry{
		Title:    CleanText(title),
		Category: CleanText(category),
		Source:   source,
		URL:      strings.TrimSpace(url),
		Summary:  CleanText(summary),
	}
	e.DestinationPath = filepath.Join(source.Dir(), e.fileStem()+".pdf")
	return e
}

// FileName returns the base name of the destination path.
func (e DocumentEntry) FileName() string {
	return filepath.Base(e.DestinationPath)
}

// WithURLSuffix returns a copy whose destination path carries a short hash
// of the URL before the extension. It is used to keep destination paths
// unique when two different documents produce the same file name.
func (e DocumentEntry) WithURLSuffix() DocumentEntry {
	sum := sha256.Sum256([]byte(e.URL))
	ext := filepath.Ext(e.DestinationPath)
	stem := strings.TrimSuffix(e.DestinationPath, ext)
	e.DestinationPath = fmt.Sprintf("%s_%x%s", stem, sum[:4], ext)
	return e
}

// fileStem computes the sanitized file name without extension.
func (e DocumentEntry) fileStem() string {
	var name string
	switch {
	case e.Source == SourceArxiv && e.Category != "":
		name = e.Category + "_" + e.Title
	case e.Source.Prefix() != "":
		name = e.Source.Prefix() + "_" + e.Title
	default:
		name = e.Title
	}

	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".PDF")
	name = ioutils.SanitizeFileName(name)
	name = truncate(name, maxFileNameLength)
	if name == "" {
		name = "unnamed"
	}
	return name
}

// CleanText trims s and collapses internal whitespace (titles from feeds
// often contain line breaks).
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return strings.TrimRight(s[:cut], " .")
}
