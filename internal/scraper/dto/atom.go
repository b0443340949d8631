// Package dto holds the wire structures of the listing feeds.
package dto

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"iter"
	"strings"
)

// ErrNotAtomFeed is returned by CheckFeed for documents whose root element
// is not an Atom feed.
var ErrNotAtomFeed = errors.New("document is not an Atom feed")

// AtomEntry is one <entry> of an arXiv API response.
type AtomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Authors    []AtomAuthor   `xml:"author"`
	Links      []AtomLink     `xml:"link"`
	Categories []AtomCategory `xml:"category"`
}

// AtomAuthor is an entry author.
type AtomAuthor struct {
	Name string `xml:"name"`
}

// AtomLink is an entry link. arXiv marks the PDF link with title="pdf".
type AtomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// AtomCategory is an entry category term such as "math.AG".
type AtomCategory struct {
	Term string `xml:"term,attr"`
}

// PDFLink returns the href of the link titled "pdf", or "".
func (e AtomEntry) PDFLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" && l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// PDFURL returns the PDF link normalised to a direct .pdf URL: abstract
// page links are rewritten to the /pdf/ path and the extension added when
// missing. Returns "" when the entry has no PDF link.
func (e AtomEntry) PDFURL() string {
	link := e.PDFLink()
	if link == "" {
		return ""
	}
	if strings.HasSuffix(link, ".pdf") {
		return link
	}
	return strings.Replace(link, "/abs/", "/pdf/", 1) + ".pdf"
}

// Entries decodes the feed in raw one <entry> at a time.
//
// Entries that fail to decode are skipped. A syntax error in the document
// ends the sequence after the entries decoded so far. Every range over the
// returned sequence decodes raw again.
func Entries(raw []byte) iter.Seq[AtomEntry] {
	return func(yield func(AtomEntry) bool) {
		dec := xml.NewDecoder(bytes.NewReader(raw))
		dec.Strict = false

		for {
			tok, err := dec.Token()
			if err != nil {
				return
			}
			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != "entry" {
				continue
			}

			var entry AtomEntry
			if err := dec.DecodeElement(&entry, &start); err != nil {
				var syntaxErr *xml.SyntaxError
				if errors.As(err, &syntaxErr) {
					return
				}
				continue
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// CheckFeed reports whether raw is an Atom feed document.
func CheckFeed(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ErrNotAtomFeed
		}
		if err != nil {
			return err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "feed" {
				return ErrNotAtomFeed
			}
			return nil
		}
	}
}
