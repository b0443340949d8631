package model

import (
	"fmt"
	"strings"
)

// Source identifies one of the fixed document sources.
type Source string

const (
	// SourceArxiv is the arXiv preprint server (export API).
	SourceArxiv Source = "arxiv"

	// SourceMITOCW is MIT OpenCourseWare.
	SourceMITOCW Source = "mit_ocw"

	// SourceGutenberg is Project Gutenberg.
	SourceGutenberg Source = "gutenberg"
)

// AllSources returns every source in processing order.
func AllSources() []Source {
	return []Source{SourceArxiv, SourceMITOCW, SourceGutenberg}
}

// ParseSource converts a user-supplied name to a Source.
//
// Besides the canonical names it accepts a few short aliases:
//   - "mit", "ocw" → SourceMITOCW
//   - "pg" → SourceGutenberg
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "arxiv":
		return SourceArxiv, nil
	case "mit_ocw", "mit-ocw", "mit", "ocw":
		return SourceMITOCW, nil
	case "gutenberg", "pg":
		return SourceGutenberg, nil
	}
	return "", fmt.Errorf("unknown source %q (want arxiv, mit_ocw or gutenberg)", name)
}

// String returns the canonical source name.
func (s Source) String() string {
	return string(s)
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	return s.Order() >= 0
}

// Order returns the position of the source in processing order, or -1.
func (s Source) Order() int {
	for i, src := range AllSources() {
		if src == s {
			return i
		}
	}
	return -1
}

// Dir returns the sub-directory of the output directory used for the source.
func (s Source) Dir() string {
	return string(s)
}

// Prefix returns the file name prefix used for documents of this source.
//
// arXiv has no fixed prefix; its files are named after the category instead.
func (s Source) Prefix() string {
	switch s {
	case SourceMITOCW:
		return "mit"
	case SourceGutenberg:
		return "gutenberg"
	}
	return ""
}

// DisplayName returns a human readable source name.
func (s Source) DisplayName() string {
	switch s {
	case SourceArxiv:
		return "arXiv"
	case SourceMITOCW:
		return "MIT OpenCourseWare"
	case SourceGutenberg:
		return "Project Gutenberg"
	}
	return string(s)
}
