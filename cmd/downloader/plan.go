package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/http"
	ioutils "github.com/handiism/manifest-downloader/internal/io"
	"github.com/handiism/manifest-downloader/internal/manifest"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/spf13/afero"
)

// plan prints, for every file, the remote size and whether a local copy
// exists. Nothing is written to disk.
func plan(ctx context.Context, settings *config.Settings, paths []string, out io.Writer, log *slog.Logger) error {
	parser := manifest.NewParser(settings.RootDir, log)
	entries, err := manifest.LoadAll(ctx, parser, paths, settings.ManifestWorkers)
	if err != nil {
		return err
	}

	client := http.NewClient(settings.Timeout(), settings.UserAgent)
	fs := afero.NewOsFs()

	for _, entry := range entries {
		fmt.Fprintf(out, "* %s:\n", entry.Name)
		for _, file := range entry.Files {
			size, err := client.GetFileSize(ctx, file.URL)
			if err != nil {
				return err
			}

			exists, localSize, err := ioutils.Exists(fs, file.Path())
			if err != nil {
				return err
			}
			state := "missing"
			if exists {
				state = "present, " + model.KnownSize(localSize).String()
			}

			fmt.Fprintf(out, "  + %s: %s -> %s (%s)\n", file.Name, remoteSize(size), file.Path(), state)
		}
	}
	return nil
}

func remoteSize(size model.Size) string {
	if !size.Known() {
		return "unknown size"
	}
	return size.String()
}
