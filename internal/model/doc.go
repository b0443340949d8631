// Package model defines the core data structures used throughout
// the math-downloader application.
//
// # Sources
//
// Source names one of the three fixed document sources. Sources are always
// processed in the same order:
//
//	for _, src := range model.AllSources() {
//	    fmt.Println(src.Dir()) // arxiv, mit_ocw, gutenberg
//	}
//
// # DocumentEntry
//
// DocumentEntry is one downloadable document found on a listing page, with
// its destination path already computed:
//
//	entry := model.NewDocumentEntry(model.SourceArxiv, "Lecture Notes on Sheaves", "math.AG", pdfURL, "")
//	fmt.Println(entry.DestinationPath) // arxiv/math.AG_Lecture Notes on Sheaves.pdf
//
// # Results
//
// DownloadResult records the outcome of one attempted entry and Summary
// aggregates the results of a run:
//
//	var s model.Summary
//	s.Add(model.DownloadResult{Entry: entry, Status: model.StatusSuccess})
//	fmt.Println(s.Success, s.Processed())
//
// # Errors
//
// NetworkError, ParseError and FilesystemError classify failures. Describe
// turns any of them into a one-line message suitable for the user.
package model
