package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/logging"
	"github.com/handiism/math-downloader/internal/model"
)

// EnvPrefix is the prefix of the environment variables read by Load,
// e.g. MATHDL_OUTPUT_DIR.
const EnvPrefix = "MATHDL"

// ConfigName is the base name of the config file searched by Load.
const ConfigName = "mathdl"

// DefaultOutputDir is where documents are saved unless configured.
const DefaultOutputDir = "math_books"

// Settings holds all configuration options.
type Settings struct {
	// Run selection
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
	Sources   []string `mapstructure:"sources" yaml:"sources"`

	// HTTP settings
	UserAgent     string  `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout       float64 `mapstructure:"timeout" yaml:"timeout"`             // seconds per request
	RequestDelay  float64 `mapstructure:"request_delay" yaml:"request_delay"` // seconds between downloads
	ListingDelay  float64 `mapstructure:"listing_delay" yaml:"listing_delay"` // seconds between listing pages
	RespectRobots bool    `mapstructure:"respect_robots" yaml:"respect_robots"`
	MaxResults    int     `mapstructure:"max_results" yaml:"max_results"` // arXiv results per category

	// Retry settings
	MaxRetries    int     `mapstructure:"max_retries" yaml:"max_retries"` // attempts after the first
	RetryCooldown float64 `mapstructure:"retry_cooldown" yaml:"retry_cooldown"`
	RetryExponent float64 `mapstructure:"retry_exponent" yaml:"retry_exponent"`

	// File settings
	SkipExisting bool `mapstructure:"skip_existing" yaml:"skip_existing"`
	Overwrite    bool `mapstructure:"overwrite" yaml:"overwrite"`
	VerifyPDF    bool `mapstructure:"verify_pdf" yaml:"verify_pdf"`
	StrictPDF    bool `mapstructure:"strict_pdf" yaml:"strict_pdf"`

	// Run outputs
	WriteReport bool   `mapstructure:"write_report" yaml:"write_report"`
	CreateIndex bool   `mapstructure:"create_index" yaml:"create_index"`
	IndexFormat string `mapstructure:"index_format" yaml:"index_format"` // markdown, html

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir: DefaultOutputDir,
		Sources:   []string{"arxiv", "mit_ocw", "gutenberg"},

		UserAgent:     "",
		Timeout:       15,
		RequestDelay:  2,
		ListingDelay:  5,
		RespectRobots: false,
		MaxResults:    50,

		MaxRetries:    2,
		RetryCooldown: 1,
		RetryExponent: 2,

		SkipExisting: true,
		Overwrite:    false,
		VerifyPDF:    true,
		StrictPDF:    false,

		WriteReport: true,
		CreateIndex: false,
		IndexFormat: "markdown",

		LogLevel:  "info",
		LogFormat: "pretty",
		LogFile:   "mathdl.log",
	}
}

// Load reads settings through v.
//
// Values are layered, later layers winning: DefaultSettings, the config
// file, MATHDL_* environment variables, and any flags the caller bound to
// v. With an empty path the file is looked up as mathdl.yaml in the
// working directory and in ~/.config/mathdl; a missing file is not an
// error there. An explicit path must exist.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// setDefaults registers every field of DefaultSettings with v so that
// environment variables are picked up for all keys.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return err
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return err
	}
	for k, val := range values {
		v.SetDefault(k, val)
	}
	return nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return ioutils.WriteFile(context.Background(), path, data)
}

// Validate checks value ranges and names.
func (s *Settings) Validate() error {
	var errs []error
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	for _, name := range s.Sources {
		if _, err := model.ParseSource(name); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Timeout < 0 || s.RequestDelay < 0 || s.ListingDelay < 0 || s.RetryCooldown < 0 {
		errs = append(errs, errors.New("timeout and delays must not be negative"))
	}
	if s.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}
	if s.RetryExponent < 1 {
		errs = append(errs, errors.New("retry_exponent must be at least 1"))
	}
	switch s.IndexFormat {
	case "markdown", "html":
	default:
		errs = append(errs, fmt.Errorf("index_format %q: want markdown or html", s.IndexFormat))
	}
	return errors.Join(errs...)
}

// ParsedSources returns the configured sources. Unknown names are dropped;
// Validate reports them.
func (s *Settings) ParsedSources() []model.Source {
	sources := make([]model.Source, 0, len(s.Sources))
	for _, name := range s.Sources {
		if src, err := model.ParseSource(name); err == nil {
			sources = append(sources, src)
		}
	}
	return sources
}

// RunConfiguration derives the read-only configuration of one run.
func (s *Settings) RunConfiguration() model.RunConfiguration {
	return model.NewRunConfiguration(s.ParsedSources(), s.OutputDir)
}

// TimeoutDuration returns the per-request timeout.
func (s *Settings) TimeoutDuration() time.Duration {
	return seconds(s.Timeout)
}

// RequestDelayDuration returns the pause between two downloads.
func (s *Settings) RequestDelayDuration() time.Duration {
	return seconds(s.RequestDelay)
}

// ListingDelayDuration returns the pause between two listing pages.
func (s *Settings) ListingDelayDuration() time.Duration {
	return seconds(s.ListingDelay)
}

// LogConfig returns the logging configuration. Console output is enabled;
// callers that own the terminal switch it off.
func (s *Settings) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if s.LogLevel != "" {
		cfg.Level = s.LogLevel
	}
	if s.LogFormat != "" {
		cfg.Format = s.LogFormat
	}
	// An empty log file disables the file.
	cfg.File = s.LogFile
	return cfg
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
