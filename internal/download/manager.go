package download

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/math-downloader/internal/config"
	"github.com/handiism/math-downloader/internal/http"
	"github.com/handiism/math-downloader/internal/model"
	"github.com/handiism/math-downloader/internal/scraper"
)

// ErrBusy is returned by Start while another run is in progress.
var ErrBusy = errors.New("a run is already in progress")

// Manager coordinates download runs.
//
// A Manager runs at most one run at a time on a single background worker.
// Sources are processed in their fixed order and the entries of a source
// strictly one after another.
//
// Example usage:
//
//	m := download.NewManager(settings, session, logger)
//	h, err := m.Start(settings.RunConfiguration(), func(ev download.ProgressEvent) {
//	    fmt.Println(ev.Message)
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	summary, err := h.Wait()
type Manager struct {
	settings *config.Settings
	session  *http.Session
	logger   zerolog.Logger

	// Endpoints overrides the source URLs. The zero value uses the real
	// sites.
	Endpoints scraper.Options

	group  errgroup.Group
	mu     sync.Mutex
	active *Handle
}

// NewManager creates a new download Manager. The session is owned by the
// caller and must outlive every run.
func NewManager(settings *config.Settings, session *http.Session, logger zerolog.Logger) *Manager {
	return &Manager{
		settings: settings,
		session:  session,
		logger:   logger.With().Str("component", "download").Logger(),
	}
}

// Start validates cfg and begins a run in the background. It returns as
// soon as the run is Running.
//
// onProgress receives every event of the run, on the worker goroutine;
// onComplete receives the final summary. Both may be nil. Returns ErrBusy
// when a previous run has not finished.
func (m *Manager) Start(cfg model.RunConfiguration, onProgress func(ProgressEvent), onComplete func(model.Summary)) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.active != nil && !m.active.State().IsFinished() {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	h := newHandle()
	h.setState(model.StateRunning)
	m.active = h
	m.mu.Unlock()

	m.group.Go(func() error {
		summary, err := m.execute(context.Background(), h, cfg, onProgress)
		if onComplete != nil {
			onComplete(summary)
		}
		h.finish(summary, err)
		return nil
	})

	return h, nil
}

// Cancel asks the run to stop. The run finishes the entry in progress,
// reports the remaining entries of the current source as not attempted and
// ends Cancelled. Calling Cancel more than once, or on a finished run, has
// no effect.
func (m *Manager) Cancel(h *Handle) {
	if h == nil || h.State().IsFinished() {
		return
	}
	m.logger.Info().Str("run_id", h.ID.String()).Msg("cancellation requested")
	h.requestCancel()
}

// Run executes a run synchronously. Cancelling ctx stops the run like
// Cancel does; it also aborts the request in flight.
//
// The returned error is non-nil only when the run failed.
func (m *Manager) Run(ctx context.Context, cfg model.RunConfiguration, onProgress func(ProgressEvent)) (model.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return model.Summary{State: model.StateFailed, Err: err}, err
	}
	h := newHandle()
	h.setState(model.StateRunning)
	summary, err := m.execute(ctx, h, cfg, onProgress)
	h.finish(summary, err)
	return summary, err
}

// Plan lists, parses and filters every selected source without
// downloading anything. The entries carry the destination paths a run
// would use.
func (m *Manager) Plan(ctx context.Context, cfg model.RunConfiguration, onProgress func(ProgressEvent)) ([]model.DocumentEntry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := newRun(m, newHandle(), cfg, onProgress)

	var all []model.DocumentEntry
	for _, src := range cfg.Sources {
		entries, ok := r.collect(ctx, src)
		all = append(all, entries...)
		if !ok {
			return all, ctx.Err()
		}
	}
	return all, nil
}

// Wait blocks until every run started with Start has returned.
func (m *Manager) Wait() error {
	return m.group.Wait()
}

func (m *Manager) execute(ctx context.Context, h *Handle, cfg model.RunConfiguration, onProgress func(ProgressEvent)) (model.Summary, error) {
	return newRun(m, h, cfg, onProgress).execute(ctx)
}

func (m *Manager) scraperOptions() scraper.Options {
	opts := m.Endpoints
	if opts.MaxResults == 0 {
		opts.MaxResults = m.settings.MaxResults
	}
	return opts
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.settings.RetryCooldown * math.Pow(m.settings.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}
