package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/math-downloader/internal/download"
	"github.com/handiism/math-downloader/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download documents from the selected sources",
	Long: `Run lists the selected sources, keeps the documents that look like
textbooks or lecture notes and downloads them one at a time.

Ctrl+C stops after the document in progress; press it again to abort at
once.`,
	RunE: runDownload,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("overwrite", false, "replace existing files")
	cmd.Flags().Bool("no-skip-existing", false, "report existing files as failures instead of skipping them")
	cmd.Flags().Bool("dry-run", false, "list the documents without downloading")
	cmd.Flags().BoolP("verbose", "v", false, "show verbose output")
	cmd.Flags().Bool("strict", false, "exit with status 2 if any document failed")
	cmd.Flags().Bool("index", false, "write an index of the downloaded documents")
}

// applyRunFlags copies the run flags the user set onto the settings.
func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("overwrite") {
		settings.Overwrite, _ = flags.GetBool("overwrite")
	}
	if noSkip, _ := flags.GetBool("no-skip-existing"); noSkip {
		settings.SkipExisting = false
	}
	if flags.Changed("index") {
		settings.CreateIndex, _ = flags.GetBool("index")
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	applyRunFlags(cmd)
	verbose, _ := cmd.Flags().GetBool("verbose")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	strict, _ := cmd.Flags().GetBool("strict")

	cfg := settings.RunConfiguration()
	if err := cfg.Validate(); err != nil {
		return err
	}

	session, err := newSession()
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	manager := download.NewManager(settings, session, logger)
	printer := eventPrinter(out, verbose)

	fmt.Fprintln(out, "Math Downloader")
	fmt.Fprintln(out, "───────────────────────────────────────")
	fmt.Fprintln(out)

	if dryRun {
		return plan(cmd.Context(), out, manager, cfg, printer)
	}

	h, err := manager.Start(cfg, printer, nil)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		return watchInterrupts(out, manager, h)
	})
	summary, runErr := h.Wait()
	g.Wait()

	printSummary(out, settings.OutputDir, summary)

	switch {
	case summary.State == model.StateFailed:
		return &exitError{code: exitFailed, err: errors.New(model.Describe(runErr))}
	case summary.State == model.StateCancelled:
		return &exitError{code: exitCancelled}
	case strict && summary.HasFailures():
		return &exitError{code: exitFailures, err: fmt.Errorf("%d document(s) failed", summary.Failed)}
	}
	return nil
}

// watchInterrupts cancels the run on the first interrupt and aborts the
// process on the second. It returns when the run is done.
func watchInterrupts(out io.Writer, manager *download.Manager, h *download.Handle) error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interrupted := false
	for {
		select {
		case <-h.Done():
			return nil
		case <-sigCh:
			if interrupted {
				fmt.Fprintln(out, "\nAborted.")
				os.Exit(exitCancelled)
			}
			interrupted = true
			fmt.Fprintln(out, "\nInterrupted, finishing the current document (Ctrl+C again to abort)...")
			manager.Cancel(h)
		}
	}
}

// plan prints the documents a run would download.
func plan(ctx context.Context, out io.Writer, manager *download.Manager, cfg model.RunConfiguration, printer func(download.ProgressEvent)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := manager.Plan(ctx, cfg, printer)
	fmt.Fprintln(out)
	for _, e := range entries {
		fmt.Fprintf(out, "  %-9s %s\n            %s\n", e.Source, e.DestinationPath, e.URL)
	}
	fmt.Fprintf(out, "\n[Dry run] %d document(s) would be downloaded\n", len(entries))

	if ctx.Err() != nil {
		return &exitError{code: exitCancelled}
	}
	return err
}

// eventPrinter returns a progress sink that writes events as lines.
func eventPrinter(out io.Writer, verbose bool) func(download.ProgressEvent) {
	return func(ev download.ProgressEvent) {
		if ev.Level == download.LevelVerbose && !verbose {
			return
		}
		if ev.Kind == download.KindSummary {
			return
		}

		prefix := "  "
		switch ev.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}
		if ev.Kind == download.KindEntry && ev.Total > 0 {
			fmt.Fprintf(out, "%s[%d/%d] %s\n", prefix, ev.Processed, ev.Total, ev.Message)
			return
		}
		fmt.Fprintln(out, prefix+ev.Message)
	}
}

func printSummary(out io.Writer, outputDir string, s model.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "───────────────────────────────────────")
	fmt.Fprintf(out, "Run %s (%s)\n", s.State, s.RunID)
	fmt.Fprintf(out, "  Downloaded:    %d\n", s.Success)
	fmt.Fprintf(out, "  Skipped:       %d\n", s.Skipped)
	fmt.Fprintf(out, "  Failed:        %d\n", s.Failed)
	if s.NotAttempted > 0 {
		fmt.Fprintf(out, "  Not attempted: %d\n", s.NotAttempted)
	}

	if s.HasFailures() {
		fmt.Fprintln(out, "\nFailed documents:")
		for _, r := range s.Results {
			if r.Status == model.StatusFailed {
				fmt.Fprintf(out, "  %s\n    %s\n", r.Entry.Title, r.Detail)
			}
		}
	}
	if s.Success > 0 {
		fmt.Fprintf(out, "\nSaved to %s\n", outputDir)
	}
}
