package http

import (
	"io"

	"github.com/handiism/manifest-downloader/internal/model"
)

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  resp.Size,
//	    OnUpdate: func(written int64, total model.Size) {
//	        fmt.Printf("%d / %s\n", written, total)
//	    },
//	}
//	CopyChunked(pw, resp.Body, 512)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total size (from Content-Length header).
	Total model.Size

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate model.ProgressFunc
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// CopyChunked copies src to dst in writes of at most chunkSize bytes.
//
// Unlike io.Copy it never hands the copy off to ReaderFrom or WriterTo,
// so a ProgressWriter sees every chunk.
func CopyChunked(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	buf := make([]byte, chunkSize)
	return io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, buf)
}
