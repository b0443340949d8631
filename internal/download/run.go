package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/math-downloader/internal/http"
	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/model"
	"github.com/handiism/math-downloader/internal/scraper"
)

// run holds the state of one run. It is only touched by the worker.
type run struct {
	m      *Manager
	h      *Handle
	cfg    model.RunConfiguration
	sink   func(ProgressEvent)
	logger zerolog.Logger

	started time.Time
	summary model.Summary
	total   int

	// seen holds the URLs handled so far; paths maps each lower-cased
	// destination path to the URL that owns it.
	seen  map[string]bool
	paths map[string]string
}

func newRun(m *Manager, h *Handle, cfg model.RunConfiguration, sink func(ProgressEvent)) *run {
	return &run{
		m:       m,
		h:       h,
		cfg:     cfg,
		sink:    sink,
		logger:  m.logger.With().Str("run_id", h.ID.String()).Logger(),
		summary: model.Summary{RunID: h.ID.String(), State: model.StateRunning},
		seen:    make(map[string]bool),
		paths:   make(map[string]string),
	}
}

func (r *run) execute(ctx context.Context) (model.Summary, error) {
	r.started = time.Now()
	r.log(LevelInfo, "", "Starting run %s into %s", r.h.ID, r.cfg.OutputDir)

	if err := r.prepareOutputDir(); err != nil {
		return r.fail(ctx, err)
	}

	stopped := false
sources:
	for _, src := range r.cfg.Sources {
		if r.cancelled(ctx) {
			stopped = true
			break
		}
		if err := r.prepareSourceDir(src); err != nil {
			return r.fail(ctx, err)
		}

		entries, ok := r.collect(ctx, src)
		if !ok {
			r.summary.NotAttempted += len(entries)
			stopped = true
			break
		}
		r.total += len(entries)
		r.log(LevelInfo, src, "%s: %d documents to process", src.DisplayName(), len(entries))

		for i, entry := range entries {
			if i > 0 {
				r.pause(ctx, r.m.settings.RequestDelayDuration())
			}
			if r.cancelled(ctx) {
				r.summary.NotAttempted += len(entries) - i
				stopped = true
				break sources
			}

			result, fatal := r.process(ctx, entry)
			r.record(result)
			if fatal != nil {
				return r.fail(ctx, fatal)
			}
		}
	}

	if stopped {
		return r.finish(ctx, model.StateCancelled), nil
	}
	return r.finish(ctx, model.StateCompleted), nil
}

// collect lists, parses and filters one source and assigns unique
// destination paths. It reports false when the run was cancelled while
// listing.
func (r *run) collect(ctx context.Context, src model.Source) ([]model.DocumentEntry, bool) {
	strategy, err := scraper.New(src, r.m.scraperOptions())
	if err != nil {
		r.log(LevelError, src, "%v", err)
		return nil, true
	}
	criteria := scraper.DefaultCriteria(src)
	discoverer, twoLevel := strategy.(scraper.Discoverer)
	listingDelay := r.m.settings.ListingDelayDuration()

	r.log(LevelInfo, src, "Searching %s", src.DisplayName())

	var entries []model.DocumentEntry
	for i, seed := range strategy.Seeds() {
		if i > 0 {
			r.pause(ctx, listingDelay)
		}
		if r.cancelled(ctx) {
			return r.assignPaths(entries), false
		}

		raw, ok := r.fetchPage(ctx, src, seed)
		if !ok {
			continue
		}
		if !twoLevel {
			entries = append(entries, r.parse(strategy, raw, seed, criteria)...)
			continue
		}
		if err := strategy.Check(raw, seed); err != nil {
			r.parseFailed(src, err)
			continue
		}

		for page := range discoverer.Discover(raw, seed) {
			r.pause(ctx, listingDelay)
			if r.cancelled(ctx) {
				return r.assignPaths(entries), false
			}
			pageRaw, ok := r.fetchPage(ctx, src, page)
			if !ok {
				continue
			}
			entries = append(entries, r.parse(strategy, pageRaw, page, criteria)...)
		}
	}

	return r.assignPaths(entries), true
}

func (r *run) fetchPage(ctx context.Context, src model.Source, page scraper.Page) ([]byte, bool) {
	if r.m.settings.RespectRobots && !r.m.session.Robots().Allowed(ctx, page.URL) {
		r.log(LevelWarning, src, "Skipping %s: %s", page.URL, model.DetailRobots)
		return nil, false
	}

	name := page.Title
	if name == "" {
		name = page.URL
	}
	r.log(LevelVerbose, src, "Fetching %s", name)

	var raw []byte
	_, err := r.withRetry(ctx, src, name, func() error {
		var err error
		raw, err = r.m.session.Fetch(ctx, page.URL)
		return err
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("source", src.String()).Str("url", page.URL).Msg("listing fetch failed")
		r.log(LevelWarning, src, "Could not fetch %s: %s", name, model.Describe(err))
		return nil, false
	}
	return raw, true
}

func (r *run) parse(strategy scraper.Strategy, raw []byte, page scraper.Page, criteria scraper.Criteria) []model.DocumentEntry {
	if err := strategy.Check(raw, page); err != nil {
		r.parseFailed(strategy.Source(), err)
		return nil
	}

	found := slices.Collect(scraper.Filter(strategy.ParseListing(raw, page), criteria))
	name := page.Title
	if name == "" {
		name = page.URL
	}
	r.log(LevelVerbose, strategy.Source(), "%s: %d matching documents", name, len(found))
	return found
}

func (r *run) parseFailed(src model.Source, err error) {
	r.logger.Warn().Err(err).Str("source", src.String()).Msg("unreadable listing page")
	r.log(LevelWarning, src, "%s", model.Describe(err))
}

// assignPaths keeps destination paths unique within the run. An entry
// whose path is taken by a different URL gets a URL hash suffix; entries
// sharing a URL keep the same path and are skipped as duplicates later.
// Paths are compared case-insensitively.
func (r *run) assignPaths(entries []model.DocumentEntry) []model.DocumentEntry {
	for i, e := range entries {
		key := strings.ToLower(e.DestinationPath)
		if owner, taken := r.paths[key]; taken && owner != e.URL {
			e = e.WithURLSuffix()
			key = strings.ToLower(e.DestinationPath)
			r.log(LevelVerbose, e.Source, "Name clash for %q, saving as %s", e.Title, e.FileName())
		}
		if _, taken := r.paths[key]; !taken {
			r.paths[key] = e.URL
		}
		entries[i] = e
	}
	return entries
}

// process attempts one entry. The returned error is non-nil only when the
// output directory became unusable.
func (r *run) process(ctx context.Context, entry model.DocumentEntry) (model.DownloadResult, error) {
	result := model.DownloadResult{Entry: entry}
	settings := r.m.settings

	if r.seen[entry.URL] {
		result.Status, result.Detail = model.StatusSkipped, model.DetailDuplicate
		return result, nil
	}
	r.seen[entry.URL] = true

	dest := filepath.Join(r.cfg.OutputDir, entry.DestinationPath)
	if !settings.Overwrite && ioutils.Exists(dest) {
		if settings.SkipExisting {
			result.Status, result.Detail = model.StatusSkipped, model.DetailExists
			return result, nil
		}
		err := &model.FilesystemError{Op: "create", Path: dest, Err: fs.ErrExist}
		result.Status, result.Detail = model.StatusFailed, model.Describe(err)
		return result, nil
	}

	if settings.RespectRobots && !r.m.session.Robots().Allowed(ctx, entry.URL) {
		result.Status, result.Detail = model.StatusSkipped, model.DetailRobots
		return result, nil
	}

	opts := http.DownloadOptions{
		Overwrite: settings.Overwrite,
		VerifyPDF: settings.VerifyPDF,
		StrictPDF: settings.StrictPDF,
	}

	// Mirrors are only tried after the entry URL failed for a reason that
	// lies with the remote side.
	var err error
	for i, u := range append([]string{entry.URL}, entry.Mirrors...) {
		if i > 0 {
			r.log(LevelVerbose, entry.Source, "Trying another link for %s: %s", entry.Title, u)
		}
		attempts, dlErr := r.withRetry(ctx, entry.Source, entry.Title, func() error {
			n, err := r.m.session.DownloadFile(ctx, u, dest, opts)
			result.Bytes = n
			return err
		})
		result.Attempts += attempts
		err = dlErr
		if err == nil {
			result.Entry.URL = u
			result.Status = model.StatusSuccess
			return result, nil
		}
		var fsErr *model.FilesystemError
		if ctx.Err() != nil || errors.As(err, &fsErr) {
			break
		}
	}

	result.Status, result.Bytes = model.StatusFailed, 0
	result.Detail = model.Describe(err)
	if ctx.Err() != nil {
		result.Detail = "interrupted"
	}
	r.logger.Debug().Err(err).Str("url", entry.URL).Msg("download failed")

	var fsErr *model.FilesystemError
	if errors.As(err, &fsErr) {
		dir := filepath.Dir(dest)
		if cerr := ioutils.CheckWritable(dir); cerr != nil {
			return result, outputDirError("write", dir, cerr)
		}
	}
	return result, nil
}

// withRetry calls fn until it succeeds, fails with a permanent error, or
// 1+max_retries attempts were made.
func (r *run) withRetry(ctx context.Context, src model.Source, name string, fn func() error) (int, error) {
	maxRetries := r.m.settings.MaxRetries

	var err error
	attempts := 0
	for tries := 0; tries <= maxRetries; tries++ {
		if tries > 0 {
			r.log(LevelWarning, src, "Retry %d/%d for %s: %s", tries, maxRetries, name, model.Describe(err))
			r.m.waitForRetry(ctx, tries-1)
		}
		attempts++
		err = fn()
		if err == nil || !model.Retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return attempts, err
}

func (r *run) record(result model.DownloadResult) {
	r.summary.Add(result)

	var msg string
	switch result.Status {
	case model.StatusSuccess:
		msg = fmt.Sprintf("Downloaded: %s", result.Entry.FileName())
	case model.StatusSkipped:
		msg = fmt.Sprintf("Skipped (%s): %s", result.Detail, result.Entry.FileName())
	default:
		msg = fmt.Sprintf("Failed: %s: %s", result.Entry.Title, result.Detail)
	}

	r.logger.Info().
		Str("source", result.Entry.Source.String()).
		Str("status", result.Status.String()).
		Str("path", result.Entry.DestinationPath).
		Int64("bytes", result.Bytes).
		Int("attempts", result.Attempts).
		Str("detail", result.Detail).
		Msg(result.Entry.Title)

	r.send(ProgressEvent{
		Kind:      KindEntry,
		Message:   msg,
		Level:     levelFor(result.Status),
		Source:    result.Entry.Source,
		Entry:     result.Entry,
		Status:    result.Status,
		Detail:    result.Detail,
		Processed: r.summary.Processed(),
	})
}

func (r *run) prepareOutputDir() error {
	dir := r.cfg.OutputDir
	if err := ioutils.EnsureDir(dir); err != nil {
		return outputDirError("create", dir, err)
	}
	if err := ioutils.CheckWritable(dir); err != nil {
		return outputDirError("write", dir, err)
	}
	return nil
}

func (r *run) prepareSourceDir(src model.Source) error {
	dir := filepath.Join(r.cfg.OutputDir, src.Dir())
	if err := ioutils.EnsureDir(dir); err != nil {
		return outputDirError("create", dir, err)
	}
	if n, err := ioutils.RemoveStaleTemps(dir); err == nil && n > 0 {
		r.log(LevelVerbose, src, "Removed %d unfinished downloads from %s", n, dir)
	}
	return nil
}

func outputDirError(op, dir string, err error) error {
	return &model.FilesystemError{Op: op, Path: dir, Err: fmt.Errorf("%w: %w", model.ErrOutputDir, err)}
}

func (r *run) fail(ctx context.Context, err error) (model.Summary, error) {
	r.summary.Err = err
	r.logger.Error().Err(err).Msg("run aborted")
	r.log(LevelError, "", "Run aborted: %s", model.Describe(err))
	return r.finish(ctx, model.StateFailed), err
}

// finish sets the final state, writes the run outputs and emits the
// summary event.
func (r *run) finish(ctx context.Context, state model.RunState) model.Summary {
	r.summary.State = state
	r.h.setState(state)

	if state == model.StateCompleted && r.summary.Processed() == r.summary.Failed {
		r.hintNothingDownloaded()
	}
	if state != model.StateFailed {
		r.writeOutputs(context.WithoutCancel(ctx))
	}

	s := r.summary
	r.send(ProgressEvent{
		Kind: KindSummary,
		Message: fmt.Sprintf("Finished (%s): %d downloaded, %d skipped, %d failed, %d not attempted",
			state, s.Success, s.Skipped, s.Failed, s.NotAttempted),
		Level:     summaryLevel(s),
		Processed: s.Processed(),
		Summary:   &s,
	})
	r.logger.Info().
		Str("state", state.String()).
		Int("success", s.Success).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("not_attempted", s.NotAttempted).
		Dur("elapsed", time.Since(r.started)).
		Msg("run finished")
	return s
}

// hintNothingDownloaded explains the usual reasons for a run that saved
// nothing and skipped nothing.
func (r *run) hintNothingDownloaded() {
	r.log(LevelWarning, "", "No files were downloaded. Possible reasons:")
	r.log(LevelWarning, "", "  - network connectivity issues")
	r.log(LevelWarning, "", "  - no documents matched the search criteria")
	r.log(LevelWarning, "", "  - the sites are rate limiting requests")
}

func summaryLevel(s model.Summary) ProgressLevel {
	switch {
	case s.State == model.StateFailed:
		return LevelError
	case s.State == model.StateCancelled || s.HasFailures():
		return LevelWarning
	default:
		return LevelSuccess
	}
}

func (r *run) cancelled(ctx context.Context) bool {
	return r.h.cancelRequested() || ctx.Err() != nil
}

// pause waits d unless the run is cancelled first.
func (r *run) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-r.h.cancel:
	case <-t.C:
	}
}

func (r *run) log(level ProgressLevel, src model.Source, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.WithLevel(level.zerolog()).Str("source", src.String()).Msg(msg)
	r.send(ProgressEvent{Kind: KindLog, Message: msg, Level: level, Source: src, Processed: r.summary.Processed()})
}

func (r *run) send(ev ProgressEvent) {
	if r.sink != nil {
		ev.Total = r.total
		r.sink(ev)
	}
}
