package scraper

import (
	"iter"
	"net/url"
	"slices"

	"github.com/handiism/math-downloader/internal/model"
)

// GutenbergQueries are the catalogue searches run, in order.
var GutenbergQueries = []string{
	"mathematics textbook",
	"geometry textbook",
	"algebra textbook",
	"calculus textbook",
}

// gutenberg walks Project Gutenberg: search result pages list books, book
// pages offer the formats of one book.
type gutenberg struct {
	search string
}

func newGutenberg(opts Options) *gutenberg {
	return &gutenberg{search: opts.GutenbergSearch}
}

func (g *gutenberg) Source() model.Source { return model.SourceGutenberg }

func (g *gutenberg) Seeds() []Page {
	seeds := make([]Page, 0, len(GutenbergQueries))
	for _, q := range GutenbergQueries {
		seeds = append(seeds, Page{URL: g.search + url.PathEscape(q), Title: q, Category: q})
	}
	return seeds
}

// Discover yields the book pages of a search result page. A result needs
// both a .title and a link.
func (g *gutenberg) Discover(raw []byte, seed Page) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		doc, err := parseHTML(raw)
		if err != nil {
			return
		}

		seen := make(map[string]bool)
		books := doc.Find(".booklink")
		for i := range books.Length() {
			book := books.Eq(i)
			title := model.CleanText(book.Find(".title").First().Text())
			if title == "" {
				continue
			}
			href, _ := book.Find("a[href]").First().Attr("href")
			bookURL, ok := resolve(seed.URL, href)
			if !ok || seen[bookURL] {
				continue
			}
			seen[bookURL] = true

			if !yield(Page{URL: bookURL, Title: title, Category: seed.Category}) {
				return
			}
		}
	}
}

// ParseListing yields one entry per book page, named after the book. The
// first PDF link becomes the entry URL and the other PDF links its
// mirrors.
func (g *gutenberg) ParseListing(raw []byte, page Page) iter.Seq[model.DocumentEntry] {
	return func(yield func(model.DocumentEntry) bool) {
		doc, err := parseHTML(raw)
		if err != nil {
			return
		}

		var (
			urls  []string
			title = page.Title
		)
		links := doc.Find("a[href]")
		for i := range links.Length() {
			a := links.Eq(i)
			href, _ := a.Attr("href")
			pdfURL, ok := resolve(page.URL, href)
			if !ok || extension(pdfURL) != ".pdf" || slices.Contains(urls, pdfURL) {
				continue
			}
			if title == "" {
				title = model.CleanText(a.Text())
			}
			urls = append(urls, pdfURL)
		}
		if len(urls) == 0 || title == "" {
			return
		}

		entry := model.NewDocumentEntry(model.SourceGutenberg, title, page.Category, urls[0], "")
		entry.Mirrors = urls[1:]
		yield(entry)
	}
}

func (g *gutenberg) Check(raw []byte, page Page) error {
	return checkHTML(model.SourceGutenberg, raw, page)
}
