package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/download"
	"github.com/handiism/manifest-downloader/internal/lock"
	"github.com/handiism/manifest-downloader/internal/logger"
	"github.com/handiism/manifest-downloader/internal/manifest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	exitOK          = 0
	exitInterrupted = 1
	exitUsage       = 2
	exitFault       = 99
)

// usageError marks a malformed invocation.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	configPath string
	rootDir    string
	lockPath   string
	chunkSize  int
	quiet      bool
	verbose    bool
	unique     bool
	logJSON    bool
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "downloader [flags] manifest.xml...",
		Short: "Fetch and verify the files listed in XML manifests",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{errors.New("at least one manifest is required")}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			log := logger.Init(cmd.ErrOrStderr(), settings.Verbose, settings.LogJSON)
			if opts.dryRun {
				return plan(cmd.Context(), settings, args, cmd.OutOrStdout(), log)
			}
			return execute(cmd.Context(), settings, args, cmd.OutOrStdout(), log)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := cmd.Flags()
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not show progress")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print debug diagnostics on stderr")
	f.BoolVarP(&opts.unique, "unique", "u", false, "exit if another instance is already running")
	f.StringVarP(&opts.rootDir, "root", "r", "", "directory relative destinations are resolved against (default: current directory)")
	f.StringVar(&opts.lockPath, "lock-file", "", "lock file used by --unique")
	f.StringVar(&opts.configPath, "config", "", "JSON or YAML settings file")
	f.IntVar(&opts.chunkSize, "chunk-size", 0, "read and write block size in bytes")
	f.BoolVar(&opts.logJSON, "log-json", false, "emit diagnostics as JSON")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report remote sizes and local state without downloading")

	return cmd
}

// settings loads the config file, if any, and applies the flags the user set.
func (o *options) settings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("quiet") {
		settings.Quiet = o.quiet
	}
	if flags.Changed("verbose") {
		settings.Verbose = o.verbose
	}
	if flags.Changed("unique") {
		settings.Unique = o.unique
	}
	if flags.Changed("root") {
		settings.RootDir = o.rootDir
	}
	if flags.Changed("lock-file") {
		settings.LockPath = o.lockPath
	}
	if flags.Changed("chunk-size") {
		settings.ChunkSize = o.chunkSize
	}
	if flags.Changed("log-json") {
		settings.LogJSON = o.logJSON
	}

	if err := settings.Validate(); err != nil {
		return nil, usageError{err}
	}
	return settings, nil
}

func execute(ctx context.Context, settings *config.Settings, paths []string, out io.Writer, log *slog.Logger) error {
	if settings.Unique {
		l, err := lock.Acquire(settings.LockPath)
		if errors.Is(err, lock.ErrAlreadyLocked) {
			fmt.Fprintln(out, "already running...")
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Release(); err != nil {
				log.Warn("release lock", "path", l.Path(), "err", err)
			}
		}()
	}

	parser := manifest.NewParser(settings.RootDir, log)
	entries, err := manifest.LoadAll(ctx, parser, paths, settings.ManifestWorkers)
	if err != nil {
		return err
	}
	log.Debug("manifests loaded", "manifests", len(paths), "entries", len(entries))

	manager := download.NewManager(settings, out, func(event download.ProgressEvent) {
		if event.Kind == download.EventFailed {
			log.Warn("file failed verification", "entry", event.Entry, "file", event.File)
		}
	}, download.WithLogger(log))

	err = manager.Run(ctx, entries)

	summary := manager.Summary()
	log.Info("run finished",
		"entries", summary.Entries,
		"files", summary.Files,
		"skipped", summary.Skipped,
		"fetched", summary.Fetched,
		"failed", summary.Failed,
		"downloaded", humanize.Bytes(uint64(summary.Bytes)),
	)
	return err
}

// run executes the command line and maps the outcome to an exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)

	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'downloader --help' for usage.")
		return exitUsage
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "%+v\n", err)
		return exitFault
	}
}
