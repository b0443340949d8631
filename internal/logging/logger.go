// Package logging configures the zerolog loggers used by the commands.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level   string `mapstructure:"log_level" yaml:"log_level"`   // debug, info, warn, error
	Format  string `mapstructure:"log_format" yaml:"log_format"` // json, pretty
	File    string `mapstructure:"log_file" yaml:"log_file"`     // empty disables the file
	Console bool   `mapstructure:"-" yaml:"-"`                   // also log to Out

	// Out is the console writer; os.Stderr when nil.
	Out io.Writer `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the defaults: info level, pretty console output
// and a log file in the working directory.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "pretty",
		File:    "mathdl.log",
		Console: true,
	}
}

// Setup builds the root logger from cfg and installs it as the global
// zerolog logger. The returned close function releases the log file.
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		if cfg.Format == "json" {
			writers = append(writers, out)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
		}
	}

	closeFn := noop
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), noop, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), noop, err
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	var logger zerolog.Logger
	switch len(writers) {
	case 0:
		logger = zerolog.Nop()
	case 1:
		logger = zerolog.New(writers[0]).With().Timestamp().Logger()
	default:
		logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	}
	logger = logger.Level(level)
	log.Logger = logger

	logger.Debug().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Str("file", cfg.File).
		Bool("console", cfg.Console).
		Msg("logger initialized")

	return logger, closeFn, nil
}

// GetLogger returns a logger for component derived from the global logger.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
