package scrape

import (
	"errors"
	"sync"
	"time"
	"wtbmonitor-backend/services/ingest"
)

var ErrScrapeInFlight = errors.New("a scrape of this kind is already running")

// Status tracks which scrape kinds are currently running. One scrape per
// kind at a time: concurrent runs of the same kind would race on "latest
// completed session" and double-hit the upstream site.
type Status struct {
	mu       sync.Mutex
	running  map[ingest.SourceKind]bool
	lastRun  map[ingest.SourceKind]time.Time
	lastFail map[ingest.SourceKind]string
}

func NewStatus() *Status {
	return &Status{
		running:  make(map[ingest.SourceKind]bool),
		lastRun:  make(map[ingest.SourceKind]time.Time),
		lastFail: make(map[ingest.SourceKind]string),
	}
}

// TryStart claims the run slot for a kind. The caller must call Finish
// exactly once when the run ends.
func (s *Status) TryStart(kind ingest.SourceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[kind] {
		return ErrScrapeInFlight
	}
	s.running[kind] = true
	return nil
}

func (s *Status) Finish(kind ingest.SourceKind, finishedAt time.Time, runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[kind] = false
	s.lastRun[kind] = finishedAt
	if runErr != nil {
		s.lastFail[kind] = runErr.Error()
	} else {
		s.lastFail[kind] = ""
	}
}

func (s *Status) Running(kind ingest.SourceKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[kind]
}

// KindStatus is the reportable state of one scrape kind.
type KindStatus struct {
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

func (s *Status) Snapshot() map[string]KindStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]KindStatus, 2)
	for _, kind := range []ingest.SourceKind{ingest.SourceWtb, ingest.SourceInventory} {
		status := KindStatus{
			Running:   s.running[kind],
			LastError: s.lastFail[kind],
		}
		if t, ok := s.lastRun[kind]; ok {
			copied := t
			status.LastRun = &copied
		}
		out[string(kind)] = status
	}
	return out
}
