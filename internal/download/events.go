package download

import (
	"github.com/rs/zerolog"

	"github.com/handiism/math-downloader/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// zerolog maps the level onto a log level.
func (l ProgressLevel) zerolog() zerolog.Level {
	switch l {
	case LevelVerbose:
		return zerolog.DebugLevel
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// EventKind tells what a ProgressEvent reports.
type EventKind int

const (
	// KindLog is a free-form message (listing progress, retries, warnings).
	KindLog EventKind = iota

	// KindEntry follows every attempted entry; Entry, Status and Detail
	// are set.
	KindEntry

	// KindSummary is the last event of a run; Summary is set.
	KindSummary
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Kind    EventKind
	Message string
	Level   ProgressLevel

	// Source is the source being processed, if any.
	Source model.Source

	// Entry, Status and Detail describe the outcome of one entry.
	Entry  model.DocumentEntry
	Status model.Status
	Detail string

	// Processed is the number of entries attempted so far in the run.
	Processed int

	// Total is the number of entries found so far. It grows as each
	// source is listed.
	Total int

	// Summary is the final summary (KindSummary only).
	Summary *model.Summary
}

func levelFor(status model.Status) ProgressLevel {
	switch status {
	case model.StatusSuccess:
		return LevelSuccess
	case model.StatusFailed:
		return LevelError
	default:
		return LevelInfo
	}
}
