// Package scraper turns the listing pages of the supported sources into
// document entries.
//
// Each source has a Strategy selected with For:
//
//	s, err := scraper.For(model.SourceArxiv)
//	if err != nil {
//	    return err
//	}
//	for _, seed := range s.Seeds() {
//	    raw, err := session.Fetch(ctx, seed.URL)
//	    ...
//	    for entry := range s.ParseListing(raw, seed) {
//	        fmt.Println(entry.Title, entry.URL)
//	    }
//	}
//
// # Two-Level Sources
//
// MIT OpenCourseWare and Project Gutenberg list courses or books on their
// seed pages, not documents. Their strategies also implement Discoverer:
// Discover yields the pages to fetch next and ParseListing is applied to
// those pages.
//
// # Filtering
//
// Filter applies Criteria (extension allowlist, keywords, categories) to a
// sequence of entries. DefaultCriteria gives the rules used by the
// downloader.
//
// # Markup Drift
//
// The sites' markup is an unversioned contract. Parsers skip any link they
// cannot resolve or name instead of failing the listing, and Check tells an
// unreadable page apart from one that simply lists nothing.
package scraper
