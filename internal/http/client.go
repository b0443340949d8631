package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"

	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/model"
)

const (
	// DefaultUserAgent is a desktop browser string; some of the sites serve
	// reduced pages to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultAccept is sent with every request.
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.9,*/*;q=0.8"

	// DefaultTimeout bounds connecting, the wait for response headers and
	// every pause between two reads of a download. Fetch also uses it as
	// the limit for the whole request.
	DefaultTimeout = 15 * time.Second

	// maxPageSize bounds listing pages read into memory.
	maxPageSize = 32 << 20
)

// ErrEmptyBody is returned when a download produced zero bytes.
var ErrEmptyBody = errors.New("empty response body")

// Options configures a Session.
type Options struct {
	UserAgent string
	Accept    string
	Timeout   time.Duration

	// RobotsAgent is the product token matched against robots.txt groups.
	RobotsAgent string
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		UserAgent:   DefaultUserAgent,
		Accept:      DefaultAccept,
		Timeout:     DefaultTimeout,
		RobotsAgent: "mathdl",
	}
}

// Session is the caller-owned HTTP state shared by all requests of a run:
// the client with its connection pool and cookie jar, and the headers to
// send.
//
// Create one with NewSession and release it with Close:
//
//	s, err := NewSession(DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	page, err := s.Fetch(ctx, "https://ocw.mit.edu/courses/mathematics/")
type Session struct {
	httpClient *http.Client
	userAgent  string
	accept     string
	timeout    time.Duration
	robots     *Robots
}

// NewSession creates a Session. Zero fields in opts take their defaults.
func NewSession(opts Options) (*Session, error) {
	def := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Accept == "" {
		opts.Accept = def.Accept
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RobotsAgent == "" {
		opts.RobotsAgent = def.RobotsAgent
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	// Each step is bounded on its own. A Client.Timeout would also cap the
	// body transfer of large PDFs.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = opts.Timeout
	transport.ResponseHeaderTimeout = opts.Timeout

	s := &Session{
		httpClient: &http.Client{Jar: jar, Transport: transport},
		userAgent:  opts.UserAgent,
		accept:     opts.Accept,
		timeout:    opts.Timeout,
	}
	s.robots = newRobots(s, opts.RobotsAgent)
	return s, nil
}

// Close releases the idle connections held by the session.
func (s *Session) Close() {
	s.httpClient.CloseIdleConnections()
}

// Robots returns the robots.txt policy cache of the session.
func (s *Session) Robots() *Robots {
	return s.robots
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header, -1 if unknown).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// idleReader cancels a transfer once no data arrived for timeout.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	ir := &idleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.fired.Store(true)
		cancel()
	})
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.timeout)
	}
	return n, err
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}

// get performs a GET request and checks the status. The caller closes the
// body of a non-nil response.
func (s *Session) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", s.accept)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &model.NetworkError{URL: url, Timeout: isTimeout(ctx, err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &model.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// Fetch performs a GET request and returns the response body.
//
// Returns a *model.NetworkError if:
//   - The connection fails or the request times out
//   - The response status is not 2xx
//   - Reading the body fails
//
// The whole request, body included, must finish within the session timeout.
func (s *Session) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, &model.NetworkError{URL: url, Timeout: isTimeout(ctx, err), Err: err}
	}
	return body, nil
}

// DownloadOptions controls DownloadFile.
type DownloadOptions struct {
	// Overwrite replaces an existing destination file.
	Overwrite bool

	// VerifyPDF rejects bodies that do not carry the PDF signature.
	VerifyPDF bool

	// StrictPDF additionally parses the document structure.
	StrictPDF bool

	// OnProgress is called with (bytesWritten, totalBytes); may be nil.
	OnProgress func(written, total int64)
}

// DownloadFile streams url into destPath and returns the number of bytes
// written.
//
// The body is written to a temporary file in the destination directory
// and only moved to destPath once it is complete, non-empty and, when
// requested, verified as a PDF. Without opts.Overwrite an existing
// destPath is never replaced.
//
// The transfer has no overall deadline; it is abandoned once the body
// stalls for longer than the session timeout.
//
// Network failures are returned as *model.NetworkError, file failures as
// *model.FilesystemError.
func (s *Session) DownloadFile(ctx context.Context, url, destPath string, opts DownloadOptions) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := s.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := newIdleReader(resp.Body, s.timeout, cancel)
	defer body.stop()

	tmp, err := ioutils.CreateTemp(filepath.Dir(destPath))
	if err != nil {
		return 0, &model.FilesystemError{Op: "create", Path: destPath, Err: err}
	}
	tmpPath := tmp.Name()

	var writer io.Writer = tmp
	if opts.OnProgress != nil {
		writer = &ProgressWriter{Writer: tmp, Total: resp.ContentLength, OnUpdate: opts.OnProgress}
	}

	written, copyErr := io.Copy(writer, body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		var pathErr *os.PathError
		if errors.As(copyErr, &pathErr) {
			return written, &model.FilesystemError{Op: "write", Path: destPath, Err: copyErr}
		}
		timedOut := body.fired.Load() || isTimeout(ctx, copyErr)
		return written, &model.NetworkError{URL: url, Timeout: timedOut, Err: copyErr}
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return written, &model.FilesystemError{Op: "write", Path: destPath, Err: closeErr}
	}

	if written == 0 {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%s: %w", url, ErrEmptyBody)
	}

	if opts.VerifyPDF || opts.StrictPDF {
		if _, err := ioutils.VerifyPDF(tmpPath, opts.StrictPDF); err != nil {
			os.Remove(tmpPath)
			return written, fmt.Errorf("%s: %w", url, err)
		}
	}

	if err := ioutils.CommitFile(tmpPath, destPath, opts.Overwrite); err != nil {
		return written, &model.FilesystemError{Op: "save", Path: destPath, Err: err}
	}
	return written, nil
}

// isTimeout reports whether err is a deadline error.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
