// Package main is the entry point for the mathdl CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/handiism/math-downloader/internal/config"
	"github.com/handiism/math-downloader/internal/http"
	"github.com/handiism/math-downloader/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK        = 0
	exitFailed    = 1
	exitFailures  = 2 // entries failed and --strict was given
	exitCancelled = 130
)

// exitError carries the process exit code out of a command. A nil err
// exits without printing anything.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var (
	v        = viper.New()
	settings *config.Settings
	logger   zerolog.Logger
	closeLog = func() error { return nil }
)

// rootCmd is the base command; without a subcommand it performs a run.
var rootCmd = &cobra.Command{
	Use:   "mathdl",
	Short: "Download free mathematics textbooks and lecture notes",
	Long: `mathdl searches arXiv, MIT OpenCourseWare and Project Gutenberg for
mathematics textbooks and lecture notes and saves the PDFs under one output
directory, one sub-directory per source.

Documents that already exist are skipped, so running mathdl again only
fetches what is new.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
	RunE: runDownload,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mathdl.yaml or ~/.config/mathdl/mathdl.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output directory (default math_books)")
	rootCmd.PersistentFlags().StringSliceP("source", "s", nil, "source to download from: arxiv, mit_ocw, gutenberg (repeatable; default all)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	v.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output"))
	v.BindPFlag("sources", rootCmd.PersistentFlags().Lookup("source"))
	v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	addRunFlags(rootCmd)
}

// setup loads the settings and the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == versionCmd.Name() {
		return nil
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	s, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	settings = s

	logCfg := settings.LogConfig()
	// The terminal belongs to the progress output; logs go to the file.
	logCfg.Console = false
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && !cmd.Flags().Changed("log-level") {
		logCfg.Level = "debug"
	}
	if _, closeLog, err = logging.Setup(logCfg); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	logger = logging.GetLogger("mathdl")
	logger.Info().Str("version", version).Str("command", cmd.Name()).Msg("mathdl starting")
	return nil
}

func newSession() (*http.Session, error) {
	return http.NewSession(http.Options{
		UserAgent: settings.UserAgent,
		Timeout:   settings.TimeoutDuration(),
	})
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ee.err)
		}
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailed)
}
