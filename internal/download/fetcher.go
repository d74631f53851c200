package download

import (
	"context"
	"log/slog"

	"github.com/handiism/manifest-downloader/internal/http"
	ioutils "github.com/handiism/manifest-downloader/internal/io"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrInsufficientSpace is returned when an announced download does not
// fit on the destination file system.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// FreeSpaceFunc reports the bytes available below a directory.
type FreeSpaceFunc func(dir string) (uint64, error)

// Fetcher streams remote files to local storage.
type Fetcher struct {
	client    *http.Client
	fs        afero.Fs
	chunkSize int
	freeSpace FreeSpaceFunc
	log       *slog.Logger
}

// NewFetcher creates a Fetcher writing through fs in chunks of chunkSize
// bytes. freeSpace may be nil to skip the disk space check.
func NewFetcher(client *http.Client, fs afero.Fs, chunkSize int, freeSpace FreeSpaceFunc, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		client:    client,
		fs:        fs,
		chunkSize: chunkSize,
		freeSpace: freeSpace,
		log:       log,
	}
}

// Fetch downloads file.URL to file.Path(), overwriting any existing file.
//
// file.Size is set to the announced length before the first byte is
// written, and onProgress is called after every chunk. When Fetch returns
// nil the destination is complete.
func (f *Fetcher) Fetch(ctx context.Context, file *model.File, onProgress model.ProgressFunc) error {
	resp, err := f.client.Open(ctx, file.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	file.Size = resp.Size
	f.log.Debug("download started", "file", file.Name, "url", file.URL, "size", file.Size)

	if err := f.checkSpace(file); err != nil {
		return err
	}

	out, err := ioutils.Create(f.fs, file.Path())
	if err != nil {
		return err
	}

	pw := &http.ProgressWriter{
		Writer:   out,
		Total:    file.Size,
		OnUpdate: onProgress,
	}
	if _, err := http.CopyChunked(pw, resp.Body, f.chunkSize); err != nil {
		out.Close()
		return errors.Wrapf(err, "download %s", file.URL)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %s", file.Path())
	}

	f.log.Debug("download finished", "file", file.Name, "written", pw.Written)
	return nil
}

func (f *Fetcher) checkSpace(file *model.File) error {
	if f.freeSpace == nil || !file.Size.Known() {
		return nil
	}
	free, err := f.freeSpace(file.DestDir)
	if err != nil {
		f.log.Debug("free space probe failed", "dir", file.DestDir, "error", err)
		return nil
	}
	if uint64(file.Size.Bytes()) > free {
		return errors.Wrapf(ErrInsufficientSpace, "%s needs %s, %s has %d bytes free",
			file.Name, file.Size, file.DestDir, free)
	}
	return nil
}
