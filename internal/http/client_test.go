package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/model"
)

const fakePDF = "%PDF-1.4\n%fake body\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-UA", r.UserAgent())
		w.Write([]byte("<html>listing</html>"))
	})
	mux.HandleFunc("/doc.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fakePDF))
	})
	mux.HandleFunc("/empty.pdf", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/html.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>moved</html>"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestFetch(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)

	body, err := s.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "<html>listing</html>", string(body))
}

func TestFetch_HTTPError(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)

	_, err := s.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr), "want *model.NetworkError, got %T", err)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.False(t, netErr.Retryable())
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := newTestSession(t)
	_, err := s.Fetch(context.Background(), url)

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.True(t, model.Retryable(err))
}

func TestDownloadFile(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)
	dest := filepath.Join(t.TempDir(), "doc.pdf")

	var lastWritten int64
	n, err := s.DownloadFile(context.Background(), srv.URL+"/doc.pdf", dest, DownloadOptions{
		VerifyPDF:  true,
		OnProgress: func(written, total int64) { lastWritten = written },
	})
	require.NoError(t, err)
	assert.EqualValues(t, len(fakePDF), n)
	assert.Equal(t, n, lastWritten)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))
}

func TestDownloadFile_KeepsExisting(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)
	dest := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(dest, []byte("keep me"), 0o644))

	_, err := s.DownloadFile(context.Background(), srv.URL+"/doc.pdf", dest, DownloadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	var fsErr *model.FilesystemError
	assert.True(t, errors.As(err, &fsErr))

	data, _ := os.ReadFile(dest)
	assert.Equal(t, "keep me", string(data))

	_, err = s.DownloadFile(context.Background(), srv.URL+"/doc.pdf", dest, DownloadOptions{Overwrite: true})
	require.NoError(t, err)
	data, _ = os.ReadFile(dest)
	assert.Equal(t, fakePDF, string(data))
}

func TestDownloadFile_Rejected(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)

	tests := []struct {
		name    string
		path    string
		opts    DownloadOptions
		wantErr error
	}{
		{"empty body", "/empty.pdf", DownloadOptions{}, ErrEmptyBody},
		{"html instead of pdf", "/html.pdf", DownloadOptions{VerifyPDF: true}, ioutils.ErrNotPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dest := filepath.Join(dir, "out.pdf")

			_, err := s.DownloadFile(context.Background(), srv.URL+tt.path, dest, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)

			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries, "nothing may be left in the destination directory")
		})
	}
}

func TestRobots_Allowed(t *testing.T) {
	srv := newTestServer(t)
	s := newTestSession(t)
	ctx := context.Background()

	assert.True(t, s.Robots().Allowed(ctx, srv.URL+"/doc.pdf"))
	assert.False(t, s.Robots().Allowed(ctx, srv.URL+"/private/notes.pdf"))
}

// newSlowServer serves bodies that arrive in pieces. /slow.pdf sends a
// chunk every 60ms for about half a second, /stalled.pdf stops after the
// first chunk and /no-headers never answers.
func newSlowServer(t *testing.T) *httptest.Server {
	t.Helper()
	wait := func(r *http.Request, d time.Duration) bool {
		select {
		case <-r.Context().Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/slow.pdf", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte("%PDF-1.4\n"))
		flusher.Flush()
		for range 8 {
			if !wait(r, 60*time.Millisecond) {
				return
			}
			w.Write([]byte("%chunk\n"))
			flusher.Flush()
		}
	})
	mux.HandleFunc("/stalled.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4\n"))
		w.(http.Flusher).Flush()
		wait(r, 5*time.Second)
	})
	mux.HandleFunc("/no-headers", func(w http.ResponseWriter, r *http.Request) {
		wait(r, 5*time.Second)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTimeoutSession(t *testing.T, timeout time.Duration) *Session {
	t.Helper()
	opts := DefaultOptions()
	opts.Timeout = timeout
	s, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func requireTimeout(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr), "want *model.NetworkError, got %T", err)
	assert.True(t, netErr.Timeout, "error %v should be a timeout", err)
	assert.True(t, model.Retryable(err))
}

func TestFetch_Timeout(t *testing.T) {
	srv := newSlowServer(t)
	s := newTimeoutSession(t, 100*time.Millisecond)

	start := time.Now()
	_, err := s.Fetch(context.Background(), srv.URL+"/no-headers")
	requireTimeout(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetch_TimeoutCoversBody(t *testing.T) {
	srv := newSlowServer(t)
	s := newTimeoutSession(t, 200*time.Millisecond)

	_, err := s.Fetch(context.Background(), srv.URL+"/slow.pdf")
	requireTimeout(t, err)
}

func TestDownloadFile_SlowBodyOutlastsTimeout(t *testing.T) {
	srv := newSlowServer(t)
	s := newTimeoutSession(t, 200*time.Millisecond)
	dest := filepath.Join(t.TempDir(), "slow.pdf")

	n, err := s.DownloadFile(context.Background(), srv.URL+"/slow.pdf", dest, DownloadOptions{VerifyPDF: true})
	require.NoError(t, err)

	want := "%PDF-1.4\n" + strings.Repeat("%chunk\n", 8)
	assert.EqualValues(t, len(want), n)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestDownloadFile_StalledBody(t *testing.T) {
	srv := newSlowServer(t)
	s := newTimeoutSession(t, 100*time.Millisecond)
	dir := t.TempDir()
	dest := filepath.Join(dir, "stalled.pdf")

	start := time.Now()
	_, err := s.DownloadFile(context.Background(), srv.URL+"/stalled.pdf", dest, DownloadOptions{})
	requireTimeout(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temporary file may remain")
}

func TestDownloadFile_CancelIsNotTimeout(t *testing.T) {
	srv := newSlowServer(t)
	s := newTimeoutSession(t, time.Second)
	dest := filepath.Join(t.TempDir(), "stalled.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := s.DownloadFile(ctx, srv.URL+"/stalled.pdf", dest, DownloadOptions{})
	require.Error(t, err)
	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.False(t, netErr.Timeout)
}
