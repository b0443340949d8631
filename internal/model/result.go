package model

// Status is the outcome of one attempted entry.
type Status string

const (
	// StatusSuccess means the document was downloaded and saved.
	StatusSuccess Status = "success"

	// StatusSkipped means nothing was fetched: the file already exists or
	// the entry duplicated one seen earlier in the run.
	StatusSkipped Status = "skipped"

	// StatusFailed means every attempt failed.
	StatusFailed Status = "failed"
)

// Details of skipped results.
const (
	// DetailExists: the destination file was already present.
	DetailExists = "already exists"

	// DetailDuplicate: the URL was already handled earlier in the run.
	// The entry has no file of its own.
	DetailDuplicate = "duplicate"

	// DetailRobots: robots.txt disallows the URL.
	DetailRobots = "disallowed by robots.txt"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// DownloadResult records what happened to one entry.
type DownloadResult struct {
	Entry    DocumentEntry `json:"entry" yaml:"entry"`
	Status   Status        `json:"status" yaml:"status"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Bytes    int64         `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Attempts int           `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// RunState is the lifecycle state of a download run.
//
// A run moves Idle → Running → one of Completed, Cancelled or Failed.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateCancelled RunState = "cancelled"
	StateFailed    RunState = "failed"
)

// String returns the string representation of RunState.
func (s RunState) String() string {
	return string(s)
}

// IsFinished returns true for the terminal states.
func (s RunState) IsFinished() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Summary aggregates the results of one run.
type Summary struct {
	RunID        string           `json:"run_id" yaml:"run_id"`
	State        RunState         `json:"state" yaml:"state"`
	Success      int              `json:"success" yaml:"success"`
	Skipped      int              `json:"skipped" yaml:"skipped"`
	Failed       int              `json:"failed" yaml:"failed"`
	NotAttempted int              `json:"not_attempted" yaml:"not_attempted"`
	Results      []DownloadResult `json:"results" yaml:"results"`

	// Err is set when the run aborted (State == StateFailed).
	Err error `json:"-" yaml:"-"`
}

// Add appends a result and updates the counters.
func (s *Summary) Add(r DownloadResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusSuccess:
		s.Success++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Processed returns the number of entries that were attempted.
func (s Summary) Processed() int {
	return s.Success + s.Skipped + s.Failed
}

// HasFailures reports whether any entry failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}
