package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDocumentEntry_DestinationPath(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		title    string
		category string
		want     string
	}{
		{"arxiv uses category", SourceArxiv, "Lecture Notes on Sheaves", "math.AG", filepath.Join("arxiv", "math.AG_Lecture Notes on Sheaves.pdf")},
		{"arxiv collapses whitespace", SourceArxiv, "An Introduction\n   to Topology", "math.GT", filepath.Join("arxiv", "math.GT_An Introduction to Topology.pdf")},
		{"mit prefix", SourceMITOCW, "Lecture 1: Limits", "", filepath.Join("mit_ocw", "mit_Lecture 1_ Limits.pdf")},
		{"gutenberg prefix", SourceGutenberg, "A Treatise on Algebra", "algebra textbook", filepath.Join("gutenberg", "gutenberg_A Treatise on Algebra.pdf")},
		{"pdf suffix not doubled", SourceMITOCW, "notes.pdf", "", filepath.Join("mit_ocw", "mit_notes.pdf")},
		{"slashes replaced", SourceGutenberg, "Algebra/Geometry", "", filepath.Join("gutenberg", "gutenberg_Algebra_Geometry.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewDocumentEntry(tt.source, tt.title, tt.category, "https://example.com/x.pdf", "")
			if e.DestinationPath != tt.want {
				t.Errorf("DestinationPath = %q, want %q", e.DestinationPath, tt.want)
			}
		})
	}
}

func TestNewDocumentEntry_Truncation(t *testing.T) {
	title := strings.Repeat("é", 300)
	e := NewDocumentEntry(SourceGutenberg, title, "", "https://example.com/x.pdf", "")

	stem := strings.TrimSuffix(e.FileName(), ".pdf")
	if len(stem) > maxFileNameLength {
		t.Errorf("stem length = %d, want <= %d", len(stem), maxFileNameLength)
	}
	if !strings.HasPrefix(stem, "gutenberg_") {
		t.Errorf("stem %q lost its prefix", stem)
	}
	if strings.ContainsRune(stem, '�') {
		t.Errorf("stem %q was cut inside a rune", stem)
	}
}

func TestDocumentEntry_WithURLSuffix(t *testing.T) {
	a := NewDocumentEntry(SourceArxiv, "Notes", "math.AG", "https://arxiv.org/pdf/1.pdf", "")
	b := NewDocumentEntry(SourceArxiv, "Notes", "math.AG", "https://arxiv.org/pdf/2.pdf", "")

	if a.DestinationPath != b.DestinationPath {
		t.Fatalf("expected identical base paths, got %q and %q", a.DestinationPath, b.DestinationPath)
	}

	a2, b2 := a.WithURLSuffix(), b.WithURLSuffix()
	if a2.DestinationPath == b2.DestinationPath {
		t.Errorf("suffixed paths collide: %q", a2.DestinationPath)
	}
	if a2.DestinationPath != a.WithURLSuffix().DestinationPath {
		t.Error("suffix is not deterministic")
	}
	if filepath.Ext(a2.DestinationPath) != ".pdf" {
		t.Errorf("suffix broke the extension: %q", a2.DestinationPath)
	}
	if a.DestinationPath == a2.DestinationPath {
		t.Error("WithURLSuffix modified the original entry")
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"arxiv", SourceArxiv, false},
		{"ArXiv", SourceArxiv, false},
		{"mit_ocw", SourceMITOCW, false},
		{"mit", SourceMITOCW, false},
		{"ocw", SourceMITOCW, false},
		{"gutenberg", SourceGutenberg, false},
		{"pg", SourceGutenberg, false},
		{"jstor", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSource(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSource(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewRunConfiguration_OrdersAndDedups(t *testing.T) {
	cfg := NewRunConfiguration([]Source{SourceGutenberg, SourceArxiv, SourceGutenberg, "bogus"}, "out/")

	want := []Source{SourceArxiv, SourceGutenberg}
	if len(cfg.Sources) != len(want) {
		t.Fatalf("Sources = %v, want %v", cfg.Sources, want)
	}
	for i := range want {
		if cfg.Sources[i] != want[i] {
			t.Errorf("Sources[%d] = %q, want %q", i, cfg.Sources[i], want[i])
		}
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "out")
	}
	if !cfg.Has(SourceArxiv) || cfg.Has(SourceMITOCW) {
		t.Error("Has() does not match the selection")
	}
}

func TestRunConfiguration_Validate(t *testing.T) {
	if err := NewRunConfiguration(nil, "out").Validate(); err == nil {
		t.Error("expected error for empty source set")
	}
	if err := NewRunConfiguration([]Source{SourceArxiv}, "").Validate(); err == nil {
		t.Error("expected error for empty output dir")
	}
	if err := NewRunConfiguration([]Source{SourceArxiv}, "out").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	e := NewDocumentEntry(SourceArxiv, "T", "math.AG", "https://example.com/t.pdf", "")
	s.Add(DownloadResult{Entry: e, Status: StatusSuccess})
	s.Add(DownloadResult{Entry: e, Status: StatusSkipped})
	s.Add(DownloadResult{Entry: e, Status: StatusFailed})
	s.Add(DownloadResult{Entry: e, Status: StatusFailed})

	if s.Success != 1 || s.Skipped != 1 || s.Failed != 2 {
		t.Errorf("counters = %d/%d/%d, want 1/1/2", s.Success, s.Skipped, s.Failed)
	}
	if s.Processed() != 4 || len(s.Results) != 4 {
		t.Errorf("Processed() = %d, results = %d, want 4", s.Processed(), len(s.Results))
	}
	if !s.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestRunState_IsFinished(t *testing.T) {
	for _, st := range []RunState{StateCompleted, StateCancelled, StateFailed} {
		if !st.IsFinished() {
			t.Errorf("%s.IsFinished() = false", st)
		}
	}
	for _, st := range []RunState{StateIdle, StateRunning} {
		if st.IsFinished() {
			t.Errorf("%s.IsFinished() = true", st)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"http status", &NetworkError{URL: "https://ocw.mit.edu/x", StatusCode: 404}, "ocw.mit.edu answered HTTP 404 (Not Found)"},
		{"timeout", &NetworkError{URL: "https://arxiv.org/x", Timeout: true, Err: errors.New("deadline")}, "timed out talking to arxiv.org"},
		{"connection", &NetworkError{URL: "https://www.gutenberg.org/", Err: errors.New("refused")}, "could not reach www.gutenberg.org"},
		{"permission", &FilesystemError{Op: "write", Path: "/x/a.pdf", Err: os.ErrPermission}, "cannot write /x/a.pdf: permission denied"},
		{"output dir", &FilesystemError{Op: "create", Path: "/x", Err: fmt.Errorf("%w: %w", ErrOutputDir, os.ErrPermission)}, "output directory /x is not usable: permission denied"},
		{"parse", &ParseError{Source: SourceGutenberg, URL: "u", Err: errors.New("bad")}, "unexpected page layout on Project Gutenberg"},
		{"wrapped", fmt.Errorf("attempt 3: %w", &NetworkError{URL: "https://arxiv.org/x", StatusCode: 503}), "arxiv.org answered HTTP 503 (Service Unavailable)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&NetworkError{URL: "u", StatusCode: 500}, true},
		{&NetworkError{URL: "u", StatusCode: 429}, true},
		{&NetworkError{URL: "u", StatusCode: 404}, false},
		{&NetworkError{URL: "u", Err: errors.New("reset")}, true},
		{&FilesystemError{Op: "write", Path: "p", Err: os.ErrPermission}, false},
		{errors.New("plain"), false},
	}

	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
