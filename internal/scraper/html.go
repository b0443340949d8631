package scraper

import (
	"bytes"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/handiism/math-downloader/internal/model"
)

var errEmptyPage = errors.New("page has no content")

// parseHTML parses raw with the lenient HTML5 parser.
func parseHTML(raw []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(raw))
}

// checkHTML rejects bodies that carry no HTML content at all.
func checkHTML(source model.Source, raw []byte, page Page) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &model.ParseError{Source: source, URL: page.URL, Err: errEmptyPage}
	}
	doc, err := parseHTML(raw)
	if err != nil {
		return &model.ParseError{Source: source, URL: page.URL, Err: err}
	}
	if doc.Find("body").Children().Length() == 0 && strings.TrimSpace(doc.Find("body").Text()) == "" {
		return &model.ParseError{Source: source, URL: page.URL, Err: errEmptyPage}
	}
	return nil
}

// resolve resolves href against base and reports whether the result is an
// absolute http(s) URL. The fragment is dropped.
func resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	u := b.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// extension returns the lower-cased extension of the URL path.
func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

// baseName returns the unescaped last path element of rawURL.
func baseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
