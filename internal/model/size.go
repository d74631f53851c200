package model

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Size is a byte count that may be unknown.
//
// A File's size is unknown until it is learned from a local stat or from
// the Content-Length of a download. The zero value is UnknownSize.
type Size struct {
	bytes int64
	known bool
}

// UnknownSize is the size of content whose length has not been announced.
var UnknownSize = Size{}

// KnownSize returns a Size holding n bytes. Negative counts are treated
// as unknown, matching how net/http reports a missing Content-Length.
func KnownSize(n int64) Size {
	if n < 0 {
		return UnknownSize
	}
	return Size{bytes: n, known: true}
}

// Known reports whether the size has been learned.
func (s Size) Known() bool {
	return s.known
}

// Bytes returns the byte count, or 0 when the size is unknown.
func (s Size) Bytes() int64 {
	return s.bytes
}

// String renders the size for humans, e.g. "1.2 MB" or "unknown".
func (s Size) String() string {
	if !s.known {
		return "unknown"
	}
	return humanize.Bytes(uint64(s.bytes))
}

// LogValue implements slog.LogValuer with the exact byte count.
func (s Size) LogValue() slog.Value {
	if !s.known {
		return slog.StringValue("unknown")
	}
	return slog.Int64Value(s.bytes)
}

// ProgressFunc receives the number of bytes processed so far and the
// expected total of a streaming operation.
type ProgressFunc func(current int64, total Size)
