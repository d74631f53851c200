// Command downloader-tui is the interactive front end of downloader.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/logger"
	"github.com/handiism/manifest-downloader/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		rootDir    string
		logPath    string
	)

	cmd := &cobra.Command{
		Use:           "downloader-tui",
		Short:         "Interactive manifest downloader",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.DefaultSettings()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				settings = loaded
			}
			if rootDir != "" {
				settings.RootDir = rootDir
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			// The terminal belongs to the UI; diagnostics go to a file, if any.
			var w io.Writer = io.Discard
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			log := logger.New(w, settings.Verbose, settings.LogJSON)

			return tui.Run(settings, log, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "JSON or YAML settings file")
	cmd.Flags().StringVarP(&rootDir, "root", "r", "", "directory relative destinations are resolved against")
	cmd.Flags().StringVar(&logPath, "log-file", "", "append diagnostics to this file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
