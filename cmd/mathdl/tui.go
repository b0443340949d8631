package main

import (
	"github.com/spf13/cobra"

	"github.com/handiism/math-downloader/internal/download"
	"github.com/handiism/math-downloader/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}
		defer session.Close()

		return tui.Run(settings, download.NewManager(settings, session, logger))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
