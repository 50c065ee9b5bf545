package invoice

import (
	"sync"
	"time"
)

// State is the phase of the most recent ingestion
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Status reports on the most recent ingestion. ReceivedBytes follows the
// extractor's reply as it arrives.
type Status struct {
	State         State     `json:"state"`
	File          string    `json:"file,omitempty"`
	ReceivedBytes int       `json:"receivedBytes"`
	LastError     string    `json:"lastError,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type statusTracker struct {
	mu     sync.Mutex
	clock  TimeSource
	status Status
}

func newStatusTracker(clock TimeSource) *statusTracker {
	return &statusTracker{
		clock:  clock,
		status: Status{State: StateIdle, UpdatedAt: clock.Now()},
	}
}

func (t *statusTracker) set(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
	t.status.UpdatedAt = t.clock.Now()
}

func (t *statusTracker) start(file string) {
	t.set(func(s *Status) {
		*s = Status{State: StateExtracting, File: file}
	})
}

func (t *statusTracker) progress(receivedBytes int) {
	t.set(func(s *Status) { s.ReceivedBytes = receivedBytes })
}

func (t *statusTracker) done() {
	t.set(func(s *Status) { s.State = StateDone })
}

func (t *statusTracker) fail(msg string) {
	t.set(func(s *Status) {
		s.State = StateFailed
		s.LastError = msg
	})
}

func (t *statusTracker) get() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
