package main

import (
	"fmt"
	"os"

	"github.com/handiism/math-downloader/internal/config"
	"github.com/handiism/math-downloader/internal/download"
	"github.com/handiism/math-downloader/internal/http"
	"github.com/handiism/math-downloader/internal/logging"
	"github.com/handiism/math-downloader/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load(nil, "")
	if err != nil {
		return err
	}

	logCfg := settings.LogConfig()
	logCfg.Console = false
	_, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.GetLogger("tui")

	session, err := http.NewSession(http.Options{
		UserAgent: settings.UserAgent,
		Timeout:   settings.TimeoutDuration(),
	})
	if err != nil {
		return err
	}
	defer session.Close()

	return tui.Run(settings, download.NewManager(settings, session, logger))
}
