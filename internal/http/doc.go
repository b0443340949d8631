// Package http provides the HTTP session shared by a download run.
//
// The Session in this package handles:
//   - User-Agent and Accept headers sent with every request
//   - A cookie jar scoped by public suffix
//   - Listing page fetches with typed network errors
//   - File downloads through a temporary file with progress tracking
//   - robots.txt policies cached per host
//
// # Basic Usage
//
//	s, err := http.NewSession(http.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	// Fetch a listing page
//	page, err := s.Fetch(ctx, "https://ocw.mit.edu/courses/mathematics/")
//
//	// Download a document with a progress callback
//	n, err := s.DownloadFile(ctx, pdfURL, "/path/to/file.pdf", http.DownloadOptions{
//	    VerifyPDF: true,
//	    OnProgress: func(written, total int64) {
//	        fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	    },
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
