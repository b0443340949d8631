package scraper

import (
	"fmt"
	"iter"

	"github.com/handiism/math-downloader/internal/model"
)

// Page is a page to fetch: a seed listing, or a course or book page found
// on one.
type Page struct {
	// URL is the absolute URL of the page.
	URL string

	// Title is the human readable name of the page (category description,
	// course name or book title).
	Title string

	// Category is carried into the entries parsed from the page.
	Category string
}

// Strategy extracts document entries from the pages of one source.
//
// Strategies are stateless. Every sequence they return re-parses its input
// when ranged over, so a sequence can be consumed any number of times and
// two calls never share state.
type Strategy interface {
	// Source returns the source this strategy parses.
	Source() model.Source

	// Seeds returns the entry pages of the source in fetch order.
	Seeds() []Page

	// ParseListing yields the document entries found in raw, the body of
	// page. Entries without a title or a resolvable link are skipped.
	ParseListing(raw []byte, page Page) iter.Seq[model.DocumentEntry]

	// Check returns a *model.ParseError when raw is not a document the
	// strategy can read at all. A readable page without entries is fine.
	Check(raw []byte, page Page) error
}

// Discoverer is implemented by strategies whose seed pages list further
// pages (courses, books) rather than documents.
type Discoverer interface {
	// Discover yields the pages linked from the seed page raw.
	Discover(raw []byte, seed Page) iter.Seq[Page]
}

// Options configures the strategies. The zero value of a field selects the
// default.
type Options struct {
	// MaxResults is the arXiv max_results parameter per category.
	MaxResults int

	// ArxivAPI is the arXiv export API query endpoint.
	ArxivAPI string

	// MITBase is the MIT OpenCourseWare site root.
	MITBase string

	// GutenbergSearch is the Project Gutenberg search URL the escaped query
	// is appended to.
	GutenbergSearch string
}

// DefaultOptions returns the production endpoints.
func DefaultOptions() Options {
	return Options{
		MaxResults:      50,
		ArxivAPI:        "http://export.arxiv.org/api/query",
		MITBase:         "https://ocw.mit.edu",
		GutenbergSearch: "https://www.gutenberg.org/ebooks/search/?query=",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxResults <= 0 {
		o.MaxResults = def.MaxResults
	}
	if o.ArxivAPI == "" {
		o.ArxivAPI = def.ArxivAPI
	}
	if o.MITBase == "" {
		o.MITBase = def.MITBase
	}
	if o.GutenbergSearch == "" {
		o.GutenbergSearch = def.GutenbergSearch
	}
	return o
}

// For returns the strategy of source with the default options.
func For(source model.Source) (Strategy, error) {
	return New(source, DefaultOptions())
}

// New returns the strategy of source.
func New(source model.Source, opts Options) (Strategy, error) {
	opts = opts.withDefaults()
	switch source {
	case model.SourceArxiv:
		return newArxiv(opts), nil
	case model.SourceMITOCW:
		return newMITOCW(opts), nil
	case model.SourceGutenberg:
		return newGutenberg(opts), nil
	}
	return nil, fmt.Errorf("no parser for source %q", source)
}
