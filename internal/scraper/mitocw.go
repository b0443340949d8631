package scraper

import (
	"iter"
	"strings"

	"github.com/handiism/math-downloader/internal/model"
)

// mitTopics select the course links followed from a department page.
var mitTopics = []string{"calculus", "algebra", "analysis", "topology", "geometry"}

// mitDepartments are the department listings searched, in order.
var mitDepartments = []string{
	"/courses/mathematics/",
	"/courses/electrical-engineering-and-computer-science/",
}

// mitOCW walks MIT OpenCourseWare: department pages list courses, course
// pages link the PDFs.
type mitOCW struct {
	base string
}

func newMITOCW(opts Options) *mitOCW {
	return &mitOCW{base: strings.TrimRight(opts.MITBase, "/")}
}

func (m *mitOCW) Source() model.Source { return model.SourceMITOCW }

func (m *mitOCW) Seeds() []Page {
	seeds := make([]Page, 0, len(mitDepartments))
	for _, dept := range mitDepartments {
		seeds = append(seeds, Page{
			URL:      m.base + dept,
			Title:    strings.Trim(strings.TrimPrefix(dept, "/courses/"), "/"),
			Category: strings.Trim(strings.TrimPrefix(dept, "/courses/"), "/"),
		})
	}
	return seeds
}

// Discover yields the course pages whose link text names one of the topics.
func (m *mitOCW) Discover(raw []byte, seed Page) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		doc, err := parseHTML(raw)
		if err != nil {
			return
		}

		seen := make(map[string]bool)
		links := doc.Find("a[href]")
		for i := range links.Length() {
			a := links.Eq(i)
			href, _ := a.Attr("href")
			if !strings.Contains(href, "/courses/") {
				continue
			}
			text := model.CleanText(a.Text())
			if !containsAny(strings.ToLower(text), mitTopics) {
				continue
			}
			courseURL, ok := resolve(seed.URL, href)
			if !ok || seen[courseURL] {
				continue
			}
			seen[courseURL] = true

			if !yield(Page{URL: courseURL, Title: text, Category: seed.Category}) {
				return
			}
		}
	}
}

// ParseListing yields every PDF linked from a course page. The link text
// names the document; links without text fall back to the file name.
func (m *mitOCW) ParseListing(raw []byte, page Page) iter.Seq[model.DocumentEntry] {
	return func(yield func(model.DocumentEntry) bool) {
		doc, err := parseHTML(raw)
		if err != nil {
			return
		}

		seen := make(map[string]bool)
		links := doc.Find("a[href]")
		for i := range links.Length() {
			a := links.Eq(i)
			href, _ := a.Attr("href")
			pdfURL, ok := resolve(page.URL, href)
			if !ok || extension(pdfURL) != ".pdf" || seen[pdfURL] {
				continue
			}

			title := model.CleanText(a.Text())
			if title == "" {
				title = model.CleanText(baseName(pdfURL))
			}
			if title == "" {
				continue
			}
			seen[pdfURL] = true

			if !yield(model.NewDocumentEntry(model.SourceMITOCW, title, page.Title, pdfURL, "")) {
				return
			}
		}
	}
}

func (m *mitOCW) Check(raw []byte, page Page) error {
	return checkHTML(model.SourceMITOCW, raw, page)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
