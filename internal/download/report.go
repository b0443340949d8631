package download

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/handiism/math-downloader/internal/catalog"
	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/model"
)

// ReportDir is the directory inside the output directory that holds the
// run reports.
const ReportDir = ".mathdl"

// Report is the YAML record of one finished run.
type Report struct {
	RunID        string                 `yaml:"run_id"`
	State        model.RunState         `yaml:"state"`
	StartedAt    time.Time              `yaml:"started_at"`
	FinishedAt   time.Time              `yaml:"finished_at"`
	OutputDir    string                 `yaml:"output_dir"`
	Sources      []model.Source         `yaml:"sources"`
	Success      int                    `yaml:"success"`
	Skipped      int                    `yaml:"skipped"`
	Failed       int                    `yaml:"failed"`
	NotAttempted int                    `yaml:"not_attempted"`
	Results      []model.DownloadResult `yaml:"results"`
}

// ReportPath returns where the report of runID is written.
func ReportPath(outputDir, runID string) string {
	return filepath.Join(outputDir, ReportDir, fmt.Sprintf("run-%s.yaml", runID))
}

func (r *run) report() Report {
	return Report{
		RunID:        r.summary.RunID,
		State:        r.summary.State,
		StartedAt:    r.started.UTC(),
		FinishedAt:   time.Now().UTC(),
		OutputDir:    r.cfg.OutputDir,
		Sources:      r.cfg.Sources,
		Success:      r.summary.Success,
		Skipped:      r.summary.Skipped,
		Failed:       r.summary.Failed,
		NotAttempted: r.summary.NotAttempted,
		Results:      r.summary.Results,
	}
}

// writeOutputs writes the run report and the catalog index when enabled.
// Failures are reported as warnings; they never change the run state.
func (r *run) writeOutputs(ctx context.Context) {
	settings := r.m.settings

	if settings.WriteReport {
		path := ReportPath(r.cfg.OutputDir, r.summary.RunID)
		data, err := yaml.Marshal(r.report())
		if err == nil {
			err = ioutils.WriteFile(ctx, path, data)
		}
		if err != nil {
			r.log(LevelWarning, "", "Could not write run report: %v", err)
		} else {
			r.log(LevelVerbose, "", "Run report written to %s", path)
		}
	}

	if settings.CreateIndex {
		format, err := catalog.ParseFormat(settings.IndexFormat)
		if err != nil {
			r.log(LevelWarning, "", "%v", err)
			return
		}
		path, err := catalog.NewCreator(format, "").Write(ctx, r.cfg.OutputDir, r.summary.Results)
		if err != nil {
			r.log(LevelWarning, "", "Could not write index: %v", err)
			return
		}
		r.log(LevelSuccess, "", "Created index %s", path)
	}
}
