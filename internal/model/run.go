package model

import (
	"errors"
	"path/filepath"
)

// RunConfiguration is the user's selection for one run. It is created once
// when the run starts and never modified afterwards.
type RunConfiguration struct {
	// Sources holds the selected sources, deduplicated and in processing order.
	Sources []Source

	// OutputDir is the root directory documents are saved under.
	OutputDir string
}

// NewRunConfiguration builds a RunConfiguration. Unknown sources are dropped,
// duplicates removed, and the remaining sources sorted into processing order.
func NewRunConfiguration(sources []Source, outputDir string) RunConfiguration {
	selected := make(map[Source]bool, len(sources))
	for _, s := range sources {
		if s.Valid() {
			selected[s] = true
		}
	}

	ordered := make([]Source, 0, len(selected))
	for _, s := range AllSources() {
		if selected[s] {
			ordered = append(ordered, s)
		}
	}

	if outputDir != "" {
		outputDir = filepath.Clean(outputDir)
	}

	return RunConfiguration{Sources: ordered, OutputDir: outputDir}
}

// Validate checks that the configuration can start a run.
func (c RunConfiguration) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources selected")
	}
	if c.OutputDir == "" {
		return errors.New("no output directory given")
	}
	return nil
}

// Has reports whether the source is selected.
func (c RunConfiguration) Has(s Source) bool {
	for _, src := range c.Sources {
		if src == s {
			return true
		}
	}
	return false
}
