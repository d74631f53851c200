package tui

import (
	"sync"

	"github.com/handiism/manifest-downloader/internal/download"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/handiism/manifest-downloader/internal/progress"
)

const maxLogs = 10

// runState is written by the download goroutine and polled by the UI.
type runState struct {
	mu sync.Mutex

	label   string
	current int64
	total   model.Size

	done   int
	failed int
	logs   []LogEntry
}

// snapshot is a copy of runState taken under the lock.
type snapshot struct {
	label   string
	current int64
	total   model.Size
	done    int
	failed  int
	logs    []LogEntry
}

func (s *runState) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		label:   s.label,
		current: s.current,
		total:   s.total,
		done:    s.done,
		failed:  s.failed,
		logs:    append([]LogEntry(nil), s.logs...),
	}
}

// record is the download.Manager progress callback.
func (s *runState) record(event download.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case download.EventSkipped, download.EventFetched:
		s.done++
	case download.EventFailed:
		s.done++
		s.failed++
	}

	s.logs = append(s.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// Start implements progress.Tracker.
func (s *runState) Start(label string) progress.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
	s.current = 0
	s.total = model.UnknownSize
	return &operation{state: s}
}

type operation struct {
	state *runState
}

func (o *operation) Update(current int64, total model.Size) {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()
	o.state.current = current
	o.state.total = total
}

func (o *operation) End() {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()
	o.state.label = ""
}
