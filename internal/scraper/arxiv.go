package scraper

import (
	"fmt"
	"iter"

	"github.com/handiism/math-downloader/internal/model"
	"github.com/handiism/math-downloader/internal/scraper/dto"
)

// Category is an arXiv subject class.
type Category struct {
	Code        string
	Description string
}

// ArxivCategories are the mathematics categories searched, in order.
var ArxivCategories = []Category{
	{"math.AG", "Algebraic Geometry"},
	{"math.AT", "Algebraic Topology"},
	{"math.RA", "Rings and Algebras"},
	{"math.GT", "Geometric Topology"},
	{"math.NT", "Number Theory"},
	{"math.FA", "Functional Analysis"},
	{"math.CA", "Classical Analysis"},
	{"math.OA", "Operator Algebras"},
	{"math.RT", "Representation Theory"},
	{"math.QA", "Quantum Algebra"},
	{"math.DG", "Differential Geometry"},
	{"math.AP", "Analysis of PDEs"},
	{"math.PR", "Probability Theory"},
	{"math.ST", "Statistics Theory"},
	{"math.LO", "Logic"},
}

// arxivQuery restricts a category search to textbook-like submissions.
const arxivQuery = `cat:%s+AND+%%28%%22textbook%%22+OR+%%22lecture+notes%%22%%29`

// arxiv reads the Atom feeds of the arXiv export API. One seed is queried
// per category; every feed is a complete listing, so there is no discovery
// step.
type arxiv struct {
	api        string
	maxResults int
}

func newArxiv(opts Options) *arxiv {
	return &arxiv{api: opts.ArxivAPI, maxResults: opts.MaxResults}
}

func (a *arxiv) Source() model.Source { return model.SourceArxiv }

func (a *arxiv) Seeds() []Page {
	seeds := make([]Page, 0, len(ArxivCategories))
	for _, c := range ArxivCategories {
		seeds = append(seeds, Page{
			URL: fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance",
				a.api, fmt.Sprintf(arxivQuery, c.Code), a.maxResults),
			Title:    c.Description,
			Category: c.Code,
		})
	}
	return seeds
}

// ParseListing yields one entry per feed entry that has a title and a PDF
// link. The abstract is kept as the entry summary for keyword filtering.
func (a *arxiv) ParseListing(raw []byte, page Page) iter.Seq[model.DocumentEntry] {
	return func(yield func(model.DocumentEntry) bool) {
		for entry := range dto.Entries(raw) {
			title := model.CleanText(entry.Title)
			if title == "" {
				continue
			}
			pdfURL, ok := resolve(page.URL, entry.PDFURL())
			if !ok {
				continue
			}

			category := page.Category
			if category == "" && len(entry.Categories) > 0 {
				category = entry.Categories[0].Term
			}

			doc := model.NewDocumentEntry(model.SourceArxiv, title, category, pdfURL, model.CleanText(entry.Summary))
			if !yield(doc) {
				return
			}
		}
	}
}

func (a *arxiv) Check(raw []byte, page Page) error {
	if err := dto.CheckFeed(raw); err != nil {
		return &model.ParseError{Source: model.SourceArxiv, URL: page.URL, Err: err}
	}
	return nil
}
