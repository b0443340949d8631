package model

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"syscall"
)

// ErrOutputDir marks errors about the output directory itself. These are
// the only errors that abort a run.
var ErrOutputDir = errors.New("output directory is not usable")

// NetworkError is returned by the fetcher for connection failures,
// timeouts and non-2xx responses.
type NetworkError struct {
	URL        string
	StatusCode int  // 0 when no response was received
	Timeout    bool // the request hit its deadline
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("GET %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Timeout:
		return fmt.Sprintf("GET %s: timeout: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed. Client errors
// other than 408 and 429 are permanent.
func (e *NetworkError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= 500
}

// ParseError is returned when a page cannot be understood.
type ParseError struct {
	Source Source
	URL    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s page %s: %v", e.Source, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FilesystemError wraps a failed file operation on a single document.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable()
	}
	return false
}

// Describe returns a short, user-facing description of err.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		host := netErr.URL
		if u, perr := url.Parse(netErr.URL); perr == nil && u.Host != "" {
			host = u.Host
		}
		switch {
		case netErr.StatusCode != 0:
			return fmt.Sprintf("%s answered HTTP %d (%s)", host, netErr.StatusCode, http.StatusText(netErr.StatusCode))
		case netErr.Timeout:
			return fmt.Sprintf("timed out talking to %s", host)
		default:
			return fmt.Sprintf("could not reach %s", host)
		}
	}

	var fsErr *FilesystemError
	if errors.As(err, &fsErr) {
		reason := "file system error"
		switch {
		case errors.Is(err, fs.ErrPermission):
			reason = "permission denied"
		case errors.Is(err, syscall.ENOSPC):
			reason = "disk full"
		case errors.Is(err, fs.ErrExist):
			reason = "file already exists"
		case errors.Is(err, fs.ErrNotExist):
			reason = "no such file or directory"
		}
		if errors.Is(err, ErrOutputDir) {
			return fmt.Sprintf("output directory %s is not usable: %s", fsErr.Path, reason)
		}
		return fmt.Sprintf("cannot %s %s: %s", fsErr.Op, fsErr.Path, reason)
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("unexpected page layout on %s", parseErr.Source.DisplayName())
	}

	return err.Error()
}
