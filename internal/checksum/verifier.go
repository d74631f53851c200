package checksum

import (
	"encoding/hex"
	"hash"
	"io"
	"log/slog"

	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 512

// Verifier checks local files against their expected digests.
//
// All configured algorithms are computed in a single pass over the file.
// A file verifies only if every digest matches.
//
// Example usage:
//
//	v := NewVerifier(afero.NewOsFs(), 512, slog.Default())
//	ok, err := v.Validate(file, func(current int64, total model.Size) {
//	    fmt.Printf("%d/%s\n", current, total)
//	})
type Verifier struct {
	fs        afero.Fs
	chunkSize int
	log       *slog.Logger
}

// NewVerifier creates a Verifier reading from fs in chunks of chunkSize
// bytes. A non-positive chunkSize selects DefaultChunkSize.
func NewVerifier(fs afero.Fs, chunkSize int, log *slog.Logger) *Verifier {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{fs: fs, chunkSize: chunkSize, log: log}
}

// Validate reports whether the file at file.Path() matches every checksum
// in file.Checksums.
//
// An empty checksum set is trivially valid and the file is not read.
// onProgress, if non-nil, is called after every chunk with the bytes read
// so far and file.Size.
//
// Returns an error if:
//   - An algorithm is not supported (ErrUnsupportedAlgorithm)
//   - The file cannot be opened or read
func (v *Verifier) Validate(file *model.File, onProgress model.ProgressFunc) (bool, error) {
	if len(file.Checksums) == 0 {
		return true, nil
	}

	algos := file.Algorithms()
	engines := make([]hash.Hash, len(algos))
	writers := make([]io.Writer, len(algos))
	for i, algo := range algos {
		h, err := New(algo)
		if err != nil {
			return false, errors.WithMessage(err, file.Name)
		}
		engines[i] = h
		writers[i] = h
	}
	sink := io.MultiWriter(writers...)

	fp, err := v.fs.Open(file.Path())
	if err != nil {
		return false, errors.WithStack(err)
	}
	defer fp.Close()

	buf := make([]byte, v.chunkSize)
	var nread int64
	for {
		n, err := fp.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
			nread += int64(n)
			if onProgress != nil {
				onProgress(nread, file.Size)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, errors.WithStack(err)
		}
	}

	success := true
	for i, algo := range algos {
		got := hex.EncodeToString(engines[i].Sum(nil))
		want := file.Checksums[algo]
		if got != want {
			v.log.Debug("digest mismatch", "file", file.Name, "algo", algo, "want", want, "got", got)
			success = false
		}
	}
	return success, nil
}
