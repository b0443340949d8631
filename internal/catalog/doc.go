// Package catalog writes an index of the documents saved in an output
// directory.
//
// The index lists every document of a run that exists on disk, grouped by
// source, with links relative to the output directory:
//
//	creator := catalog.NewCreator(catalog.FormatHTML, "")
//	path, err := creator.Write(ctx, "math_books", summary.Results)
//
// Supported formats are Markdown (index.md) and HTML (index.html).
package catalog
