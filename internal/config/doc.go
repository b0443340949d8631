// Package config provides configuration management for mathdl.
//
// This package handles:
//   - Default configuration values
//   - Layered loading from a YAML file, MATHDL_* environment variables and
//     command-line flags through viper
//   - Saving settings as YAML
//   - Deriving the RunConfiguration and logging configuration
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ./math_books/<source>/
//	// All three sources selected
//	// Existing files skipped, two retries per document
//
// # Loading
//
//	settings, err := config.Load(viper.New(), "")
//	if err != nil {
//	    return err
//	}
//	cfg := settings.RunConfiguration()
//
// With an empty path Load searches mathdl.yaml in the working directory
// and in ~/.config/mathdl. Environment variables override the file:
//
//	MATHDL_OUTPUT_DIR=/tmp/books MATHDL_SOURCES=arxiv,gutenberg mathdl
//
// # Saving Settings
//
//	settings.OutputDir = "/data/math"
//	err := settings.Save("mathdl.yaml")
//
// # Configuration Options
//
// Settings includes options for:
//   - Output directory and source selection
//   - Request timeout, delays and robots.txt handling
//   - Retry behavior
//   - Existing file handling and PDF verification
//   - Run report and catalog index generation
//   - Logging
package config
