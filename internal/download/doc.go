// Package download provides the orchestration logic that turns the
// selected sources into files on disk.
//
// # Manager
//
// The Manager drives a run through the sources in their fixed order
// (arXiv, MIT OpenCourseWare, Project Gutenberg):
//
//  1. Fetch the seed listings of the source
//  2. Follow course or book pages for two-level sources
//  3. Parse and filter the document entries
//  4. Give every entry a unique destination path
//  5. Download each entry to a temporary file and move it into place
//  6. Write the run report and the catalog index (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, session, logger)
//
//	h, err := manager.Start(settings.RunConfiguration(), func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// later, e.g. on Ctrl+C
//	manager.Cancel(h)
//
//	summary, err := h.Wait()
//
// # Run States
//
// A run moves Idle → Running → Completed, Cancelled or Failed. Cancellation
// is cooperative and checked between entries, never during a write. Only
// an unusable output directory fails a run; every other error is recorded
// in the result of the entry and the run continues.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Kind    EventKind     // Log, Entry, Summary
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    ...
//	}
//
// One KindEntry event follows every attempted entry and one KindSummary
// event ends the run.
//
// # Retry Logic
//
// Failed requests are retried with exponential backoff,
// configurable via settings.MaxRetries, settings.RetryCooldown and
// settings.RetryExponent. Client errors such as 404 are not retried.
package download
