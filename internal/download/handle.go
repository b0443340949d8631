package download

import (
	"sync"

	"github.com/google/uuid"

	"github.com/handiism/math-downloader/internal/model"
)

// Handle refers to one run started by Manager.Start.
type Handle struct {
	// ID identifies the run in events, logs and the run report.
	ID uuid.UUID

	mu      sync.Mutex
	state   model.RunState
	summary model.Summary
	err     error

	cancelOnce sync.Once
	cancel     chan struct{}
	done       chan struct{}
}

func newHandle() *Handle {
	return &Handle{
		ID:     uuid.New(),
		state:  model.StateIdle,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// State returns the current state of the run.
func (h *Handle) State() model.RunState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) setState(s model.RunState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Done is closed when the run has finished and its summary is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run has finished and returns its summary. The
// error is non-nil only when the run failed.
func (h *Handle) Wait() (model.Summary, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary, h.err
}

func (h *Handle) requestCancel() {
	h.cancelOnce.Do(func() { close(h.cancel) })
}

func (h *Handle) cancelRequested() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}

func (h *Handle) finish(summary model.Summary, err error) {
	h.mu.Lock()
	h.summary = summary
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
