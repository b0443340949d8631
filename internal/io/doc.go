// Package ioutils provides file system utilities for the math-downloader.
//
// This package contains functions for:
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation and writability checks
//   - Atomic file writes (temporary file, then link or rename)
//   - PDF verification of downloaded files
//
// # Atomic Writes
//
// Downloads are streamed into a temporary file next to their destination
// and committed only once complete, so a partially written file never
// appears under its final name:
//
//	tmp, _ := ioutils.CreateTemp(dir)
//	io.Copy(tmp, body)
//	tmp.Close()
//	err := ioutils.CommitFile(tmp.Name(), dest, false) // fails if dest exists
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Lecture 1: Limits") // Returns "Lecture 1_ Limits"
//
// # PDF Verification
//
//	pages, err := ioutils.VerifyPDF("/docs/arxiv/notes.pdf", true)
package ioutils
