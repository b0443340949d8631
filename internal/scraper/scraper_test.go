package scraper

import (
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/handiism/math-downloader/internal/model"
)

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2101.00001v2</id>
    <title>Lecture Notes on
      Schemes</title>
    <summary>These lecture notes give an introduction to schemes.</summary>
    <link href="http://arxiv.org/abs/2101.00001v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2101.00001v2" rel="related" type="application/pdf"/>
    <category term="math.AG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2101.00002v1</id>
    <title>A Research Result</title>
    <summary>We prove a theorem.</summary>
    <link title="pdf" href="http://arxiv.org/pdf/2101.00002v1.pdf" rel="related"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2101.00003v1</id>
    <title>No PDF Link</title>
    <summary>A textbook without a pdf link.</summary>
    <link href="http://arxiv.org/abs/2101.00003v1" rel="alternate"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2101.00004v1</id>
    <title>   </title>
    <summary>A textbook without a title.</summary>
    <link title="pdf" href="http://arxiv.org/pdf/2101.00004v1" rel="related"/>
  </entry>
</feed>`

const mitDepartment = `<html><body>
  <a href="/courses/18-01-single-variable-calculus-fall-2006/">Single Variable Calculus</a>
  <a href="/courses/18-06-linear-algebra-spring-2010/">Linear Algebra</a>
  <a href="/courses/18-06-linear-algebra-spring-2010/">Linear Algebra</a>
  <a href="/courses/21m-301-harmony/">Harmony and Counterpoint</a>
  <a href="/about/">About OCW: topology of the site</a>
</body></html>`

const mitCourse = `<html><body>
  <a href="/courses/18-01/resources/lec1.pdf">Lecture 1: Limits</a>
  <a href="https://ocw.mit.edu/courses/18-01/resources/Problem%20Set%201.PDF"></a>
  <a href="/courses/18-01/resources/syllabus/">Syllabus</a>
  <a href="">Broken link</a>
  <a>Missing href</a>
  <a href="/courses/18-01/resources/lec1.pdf">Lecture 1 again</a>
</body></html>`

const gutenbergSearch = `<html><body><ul>
  <li class="booklink"><a href="/ebooks/33283"><span class="title">Calculus Made Easy</span></a></li>
  <li class="booklink"><a href="/ebooks/17001"><span class="subtitle">untitled</span></a></li>
  <li class="booklink"><span class="title">No Link Here</span></li>
  <li class="booklink"><a href="/ebooks/13700"><span class="title">An Elementary Treatise
     on Algebra</span></a></li>
</ul></body></html>`

const gutenbergBook = `<html><body><table>
  <tr><td><a href="/ebooks/33283.epub.images">EPUB</a></td></tr>
  <tr><td><a href="/files/33283/33283-pdf.pdf">PDF</a></td></tr>
  <tr><td><a href="/files/33283/33283-t.pdf">PDF (TeX)</a></td></tr>
</table></body></html>`

func collect(t *testing.T, source model.Source, raw string, page Page) []model.DocumentEntry {
	t.Helper()
	s, err := For(source)
	if err != nil {
		t.Fatal(err)
	}
	return slices.Collect(s.ParseListing([]byte(raw), page))
}

func assertWellFormed(t *testing.T, entries []model.DocumentEntry) {
	t.Helper()
	for _, e := range entries {
		if e.Title == "" {
			t.Errorf("entry %q has an empty title", e.URL)
		}
		u, err := url.Parse(e.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			t.Errorf("entry %q has a malformed URL", e.URL)
		}
	}
}

func TestArxiv_ParseListing(t *testing.T) {
	page := Page{URL: "http://export.arxiv.org/api/query?search_query=x", Category: "math.AG"}
	entries := collect(t, model.SourceArxiv, arxivFeed, page)

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	assertWellFormed(t, entries)

	first := entries[0]
	if first.Title != "Lecture Notes on Schemes" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.URL != "http://arxiv.org/pdf/2101.00001v2.pdf" {
		t.Errorf("URL = %q, want the rewritten pdf link", first.URL)
	}
	if first.Category != "math.AG" {
		t.Errorf("Category = %q", first.Category)
	}
	if !strings.Contains(first.Summary, "lecture notes") {
		t.Errorf("Summary not carried: %q", first.Summary)
	}
	if entries[1].URL != "http://arxiv.org/pdf/2101.00002v1.pdf" {
		t.Errorf("URL = %q, .pdf must not be doubled", entries[1].URL)
	}
}

func TestArxiv_Seeds(t *testing.T) {
	s, _ := For(model.SourceArxiv)
	seeds := s.Seeds()
	if len(seeds) != len(ArxivCategories) {
		t.Fatalf("got %d seeds, want %d", len(seeds), len(ArxivCategories))
	}
	want := "http://export.arxiv.org/api/query?search_query=cat:math.AG+AND+%28%22textbook%22+OR+%22lecture+notes%22%29&start=0&max_results=50&sortBy=relevance"
	if seeds[0].URL != want {
		t.Errorf("seed URL = %q\nwant %q", seeds[0].URL, want)
	}
	if seeds[0].Category != "math.AG" || seeds[0].Title != "Algebraic Geometry" {
		t.Errorf("seed = %+v", seeds[0])
	}
}

func TestArxiv_TruncatedFeed(t *testing.T) {
	cut := strings.Index(arxivFeed, "<entry>\n    <id>http://arxiv.org/abs/2101.00002v1")
	entries := collect(t, model.SourceArxiv, arxivFeed[:cut+30], Page{URL: "http://export.arxiv.org/api/query", Category: "math.AG"})
	if len(entries) != 1 {
		t.Errorf("got %d entries from a truncated feed, want 1", len(entries))
	}
}

func TestMITOCW_Discover(t *testing.T) {
	s, _ := For(model.SourceMITOCW)
	d, ok := s.(Discoverer)
	if !ok {
		t.Fatal("MIT OCW strategy does not implement Discoverer")
	}

	seed := s.Seeds()[0]
	pages := slices.Collect(d.Discover([]byte(mitDepartment), seed))

	want := []string{
		"https://ocw.mit.edu/courses/18-01-single-variable-calculus-fall-2006/",
		"https://ocw.mit.edu/courses/18-06-linear-algebra-spring-2010/",
	}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d: %+v", len(pages), len(want), pages)
	}
	for i, p := range pages {
		if p.URL != want[i] {
			t.Errorf("page[%d].URL = %q, want %q", i, p.URL, want[i])
		}
		if p.Title == "" {
			t.Errorf("page[%d] has no title", i)
		}
	}
}

func TestMITOCW_ParseListing(t *testing.T) {
	page := Page{URL: "https://ocw.mit.edu/courses/18-01/", Title: "Single Variable Calculus"}
	entries := collect(t, model.SourceMITOCW, mitCourse, page)

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	assertWellFormed(t, entries)

	if entries[0].Title != "Lecture 1: Limits" || entries[0].URL != "https://ocw.mit.edu/courses/18-01/resources/lec1.pdf" {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Title != "Problem Set 1.PDF" {
		t.Errorf("entry[1].Title = %q, want the file name fallback", entries[1].Title)
	}
	if entries[1].FileName() != "mit_Problem Set 1.pdf" {
		t.Errorf("entry[1].FileName() = %q", entries[1].FileName())
	}
}

func TestGutenberg_Discover(t *testing.T) {
	s, _ := For(model.SourceGutenberg)
	d := s.(Discoverer)

	seed := s.Seeds()[0]
	if seed.URL != "https://www.gutenberg.org/ebooks/search/?query=mathematics%20textbook" {
		t.Errorf("seed URL = %q", seed.URL)
	}

	pages := slices.Collect(d.Discover([]byte(gutenbergSearch), seed))
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2: %+v", len(pages), pages)
	}
	if pages[0].URL != "https://www.gutenberg.org/ebooks/33283" || pages[0].Title != "Calculus Made Easy" {
		t.Errorf("page[0] = %+v", pages[0])
	}
	if pages[1].Title != "An Elementary Treatise on Algebra" {
		t.Errorf("page[1].Title = %q", pages[1].Title)
	}
}

func TestGutenberg_ParseListing_OneEntryPerBook(t *testing.T) {
	page := Page{URL: "https://www.gutenberg.org/ebooks/33283", Title: "Calculus Made Easy", Category: "calculus textbook"}
	entries := collect(t, model.SourceGutenberg, gutenbergBook, page)

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.URL != "https://www.gutenberg.org/files/33283/33283-pdf.pdf" {
		t.Errorf("URL = %q", e.URL)
	}
	if e.FileName() != "gutenberg_Calculus Made Easy.pdf" {
		t.Errorf("FileName() = %q", e.FileName())
	}
	want := []string{"https://www.gutenberg.org/files/33283/33283-t.pdf"}
	if !slices.Equal(e.Mirrors, want) {
		t.Errorf("Mirrors = %q, want %q", e.Mirrors, want)
	}
}

func TestParseListing_Restartable(t *testing.T) {
	s, _ := For(model.SourceMITOCW)
	seq := s.ParseListing([]byte(mitCourse), Page{URL: "https://ocw.mit.edu/courses/18-01/"})

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) == 0 || !slices.Equal(first, second) {
		t.Errorf("ranging twice gave different results:\n%v\n%v", first, second)
	}

	// Stopping early must not leak state into the next range.
	for range seq {
		break
	}
	if third := slices.Collect(seq); !slices.Equal(first, third) {
		t.Error("early stop changed later results")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		source  model.Source
		raw     string
		wantErr bool
	}{
		{"arxiv feed", model.SourceArxiv, arxivFeed, false},
		{"arxiv html error page", model.SourceArxiv, "<html><body>Rate limited</body></html>", true},
		{"arxiv empty", model.SourceArxiv, "", true},
		{"mit page", model.SourceMITOCW, mitCourse, false},
		{"mit empty", model.SourceMITOCW, "   ", true},
		{"gutenberg no results", model.SourceGutenberg, "<html><body><p>No results</p></body></html>", false},
		{"gutenberg blank document", model.SourceGutenberg, "<html></html>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := For(tt.source)
			err := s.Check([]byte(tt.raw), Page{URL: "https://example.org/"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFor_UnknownSource(t *testing.T) {
	if _, err := For("jstor"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestFilter(t *testing.T) {
	entries := []model.DocumentEntry{
		model.NewDocumentEntry(model.SourceArxiv, "Lecture Notes on Sheaves", "math.AG", "https://arxiv.org/pdf/1.pdf", ""),
		model.NewDocumentEntry(model.SourceArxiv, "A Theorem", "math.AG", "https://arxiv.org/pdf/2.pdf", "We prove it."),
		model.NewDocumentEntry(model.SourceArxiv, "A Survey", "math.NT", "https://arxiv.org/pdf/3.pdf", "An Introduction to modular forms."),
		model.NewDocumentEntry(model.SourceArxiv, "Textbook Slides", "math.NT", "https://arxiv.org/ps/4.ps", ""),
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"arxiv defaults", DefaultCriteria(model.SourceArxiv), []string{"Lecture Notes on Sheaves", "A Survey"}},
		{"extension only", DefaultCriteria(model.SourceMITOCW), []string{"Lecture Notes on Sheaves", "A Theorem", "A Survey"}},
		{"category", Criteria{Categories: []string{"math.NT"}}, []string{"A Survey", "Textbook Slides"}},
		{"no rules", Criteria{}, []string{"Lecture Notes on Sheaves", "A Theorem", "A Survey", "Textbook Slides"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := Filter(slices.Values(entries), tt.criteria)
			for range 2 {
				var got []string
				for e := range seq {
					got = append(got, e.Title)
				}
				if !slices.Equal(got, tt.want) {
					t.Errorf("Filter() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
