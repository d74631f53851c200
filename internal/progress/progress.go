package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/handiism/manifest-downloader/internal/model"
	"golang.org/x/term"
)

// Tracker starts progress operations.
type Tracker interface {
	Start(label string) Operation
}

// Operation receives the updates of a single streaming operation.
type Operation interface {
	Update(current int64, total model.Size)
	End()
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Reporter renders progress operations to a writer.
type Reporter struct {
	out         io.Writer
	quiet       bool
	interactive bool
	now         func() time.Time
}

// NewReporter creates a Reporter writing to out.
//
// quiet suppresses everything except the newline that ends each
// operation. interactive selects the live-updating line over the tick
// stream and is normally the result of IsTerminal.
func NewReporter(out io.Writer, quiet, interactive bool) *Reporter {
	return &Reporter{
		out:         out,
		quiet:       quiet,
		interactive: interactive,
		now:         time.Now,
	}
}

// Start begins a new operation labelled with prefix.
func (r *Reporter) Start(prefix string) Operation {
	return r.start(prefix)
}

func (r *Reporter) start(prefix string) *Session {
	s := &Session{
		r:      r,
		prefix: prefix,
		start:  r.now(),
		last:   -1,
		active: true,
	}
	if !r.interactive && !r.quiet {
		fmt.Fprintf(r.out, "%s: ", prefix)
	}
	return s
}

// Session is one progress operation. It is discarded after End.
type Session struct {
	r      *Reporter
	prefix string
	start  time.Time
	last   int64
	active bool
}

// Update reports that current bytes out of total have been processed.
func (s *Session) Update(current int64, total model.Size) {
	if !s.active || s.r.quiet || current == 0 {
		return
	}
	if !total.Known() {
		if s.r.interactive {
			fmt.Fprintf(s.r.out, "\r%s: %s ", s.prefix, humanize.Bytes(uint64(current)))
		}
		return
	}
	if total.Bytes() == 0 {
		return
	}

	prog := current * 100 / total.Bytes()
	if s.r.interactive {
		h, m, sec := eta(s.r.now().Sub(s.start), current, total.Bytes())
		fmt.Fprintf(s.r.out, "\r%s: %3d%% %02d:%02d:%02d ", s.prefix, prog, h, m, sec)
		return
	}

	if prog == s.last {
		return
	}
	switch {
	case prog%10 == 0:
		fmt.Fprintf(s.r.out, "%d%%", prog)
	case prog%2 == 0:
		io.WriteString(s.r.out, ".")
	}
	s.last = prog
}

// End terminates the operation's line. It always writes a newline, even
// in quiet mode, so the next line of the report starts cleanly.
func (s *Session) End() {
	if !s.active {
		return
	}
	s.active = false
	io.WriteString(s.r.out, "\n")
}

// eta extrapolates the time left from the rate observed so far.
func eta(elapsed time.Duration, current, total int64) (hours, minutes, seconds int64) {
	remaining := float64(elapsed) * float64(total-current) / float64(current)
	if remaining < 0 {
		remaining = 0
	}
	secs := int64(remaining / float64(time.Second))
	return secs / 3600, secs / 60 % 60, secs % 60
}
