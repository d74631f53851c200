package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/handiism/manifest-downloader/internal/checksum"
	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/http"
	ioutils "github.com/handiism/manifest-downloader/internal/io"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/handiism/manifest-downloader/internal/progress"
	"github.com/spf13/afero"
)

// Labels of the progress operations.
const (
	verifyLabel   = "    - checksuming"
	downloadLabel = "    - downloading"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// EventKind identifies a step of the download pipeline.
type EventKind int

const (
	EventEntry EventKind = iota
	EventFile
	EventSkipped
	EventRetry
	EventFetched
	EventFailed
)

// ProgressEvent represents a step of the download pipeline.
type ProgressEvent struct {
	Kind    EventKind
	Level   ProgressLevel
	Entry   string
	File    string
	Message string
}

// Verifier checks a local file against its checksums.
type Verifier interface {
	Validate(file *model.File, onProgress model.ProgressFunc) (bool, error)
}

// FileFetcher downloads a file to its destination.
type FileFetcher interface {
	Fetch(ctx context.Context, file *model.File, onProgress model.ProgressFunc) error
}

// Summary counts the outcomes of a run.
type Summary struct {
	Entries int
	Files   int
	Skipped int
	Fetched int
	Failed  int
	Bytes   int64
}

// Manager drives the verify-download-verify pipeline over manifest entries.
type Manager struct {
	settings *config.Settings
	fs       afero.Fs
	verifier Verifier
	fetcher  FileFetcher
	tracker  progress.Tracker
	out      io.Writer
	log      *slog.Logger

	onProgress func(ProgressEvent)
	summary    Summary
}

// Option customizes a Manager.
type Option func(*Manager)

// WithFS replaces the operating system file system.
func WithFS(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithVerifier replaces the checksum verifier.
func WithVerifier(v Verifier) Option {
	return func(m *Manager) { m.verifier = v }
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f FileFetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithTracker replaces the progress reporter writing to out.
func WithTracker(t progress.Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a new download Manager.
//
// The report is written to out. onProgress, if non-nil, receives an event
// for every step of the pipeline. Components not supplied through opts are
// built from settings.
func NewManager(settings *config.Settings, out io.Writer, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:   settings,
		out:        out,
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.log == nil {
		m.log = slog.Default()
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.verifier == nil {
		m.verifier = checksum.NewVerifier(m.fs, settings.ChunkSize, m.log)
	}
	if m.fetcher == nil {
		var freeSpace FreeSpaceFunc
		if settings.CheckFreeSpace {
			freeSpace = ioutils.FreeSpace
		}
		client := http.NewClient(settings.Timeout(), settings.UserAgent)
		m.fetcher = NewFetcher(client, m.fs, settings.ChunkSize, freeSpace, m.log)
	}
	if m.tracker == nil {
		interactive := settings.IsInteractive(func() bool {
			f, ok := out.(*os.File)
			return ok && progress.IsTerminal(f)
		})
		m.tracker = progress.NewReporter(out, settings.Quiet, interactive)
	}

	return m
}

// Run processes every entry in order. The first error aborts the run;
// checksum mismatches are not errors.
func (m *Manager) Run(ctx context.Context, entries []*model.Entry) error {
	for _, entry := range entries {
		if err := m.ProcessEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// ProcessEntry brings every file of entry up to date.
//
// For each file, in manifest order:
//  1. The destination directory is created if needed
//  2. An existing local copy is verified; a valid copy is kept
//  3. An invalid copy is removed and the file is fetched
//  4. The fetched file is verified and removed if it still does not match
//
// A file is fetched at most once per call.
func (m *Manager) ProcessEntry(ctx context.Context, entry *model.Entry) error {
	m.summary.Entries++
	m.printf("* %s:\n", entry.Name)
	m.progress(ProgressEvent{Kind: EventEntry, Level: LevelInfo, Entry: entry.Name, Message: entry.Name})

	for _, file := range entry.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.processFile(ctx, entry, file); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns the counts accumulated so far.
func (m *Manager) Summary() Summary {
	return m.summary
}

func (m *Manager) processFile(ctx context.Context, entry *model.Entry, file *model.File) error {
	m.summary.Files++
	m.printf("  + %s:\n", file.Name)
	m.progress(ProgressEvent{Kind: EventFile, Level: LevelVerbose, Entry: entry.Name, File: file.Name, Message: file.Name})

	if err := ioutils.EnsureDir(m.fs, file.DestDir); err != nil {
		return err
	}

	exists, size, err := ioutils.Exists(m.fs, file.Path())
	if err != nil {
		return err
	}
	if exists {
		file.Size = model.KnownSize(size)
		m.log.Debug("local copy found", "file", file.Name, "size", file.Size)

		ok, err := m.verify(file)
		if err != nil {
			return err
		}
		if ok {
			m.summary.Skipped++
			m.report(entry, file, EventSkipped, LevelSuccess, "already downloaded")
			return nil
		}

		m.report(entry, file, EventRetry, LevelWarning, "checksum mismatch. retrying...")
		if err := ioutils.Remove(m.fs, file.Path()); err != nil {
			return err
		}
	} else {
		// A dangling link counts as absent. Drop it so the download does
		// not write through it.
		if err := ioutils.Remove(m.fs, file.Path()); err != nil {
			return err
		}
	}

	written, err := m.fetch(ctx, file)
	if err != nil {
		return err
	}
	m.summary.Bytes += written

	ok, err := m.verify(file)
	if err != nil {
		return err
	}
	if !ok {
		m.summary.Failed++
		m.report(entry, file, EventFailed, LevelError, "checksum mismatch")
		return ioutils.Remove(m.fs, file.Path())
	}

	m.summary.Fetched++
	m.progress(ProgressEvent{Kind: EventFetched, Level: LevelSuccess, Entry: entry.Name, File: file.Name,
		Message: fmt.Sprintf("%s: downloaded", file.Name)})
	return nil
}

func (m *Manager) verify(file *model.File) (bool, error) {
	op := m.tracker.Start(verifyLabel)
	defer op.End()
	return m.verifier.Validate(file, op.Update)
}

func (m *Manager) fetch(ctx context.Context, file *model.File) (int64, error) {
	op := m.tracker.Start(downloadLabel)
	defer op.End()

	var written int64
	err := m.fetcher.Fetch(ctx, file, func(current int64, total model.Size) {
		written = current
		op.Update(current, total)
	})
	return written, err
}

// report prints a status line for file and emits the matching event.
func (m *Manager) report(entry *model.Entry, file *model.File, kind EventKind, level ProgressLevel, status string) {
	msg := fmt.Sprintf("%s: %s", file.Name, status)
	m.printf("    - %s\n", msg)
	m.progress(ProgressEvent{Kind: kind, Level: level, Entry: entry.Name, File: file.Name, Message: msg})
}

func (m *Manager) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
