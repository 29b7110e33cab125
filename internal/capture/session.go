package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is the client-side record of one stream activation. The in-flight
// flag gives captures mutual exclusion within the session.
type Session struct {
	ID        string
	StartedAt time.Time

	inFlight atomic.Bool
	count    atomic.Int64

	mu            sync.Mutex
	lastCaptureAt time.Time
}

func newSession(now time.Time) *Session {
	return &Session{ID: uuid.NewString(), StartedAt: now}
}

// CaptureCount returns the number of successful captures in the session.
func (s *Session) CaptureCount() int64 {
	return s.count.Load()
}

// LastCaptureAt returns the time of the last successful capture.
func (s *Session) LastCaptureAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCaptureAt, !s.lastCaptureAt.IsZero()
}

// CaptureInFlight reports whether a capture is running.
func (s *Session) CaptureInFlight() bool {
	return s.inFlight.Load()
}

func (s *Session) tryBegin() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

func (s *Session) end() {
	s.inFlight.Store(false)
}

func (s *Session) recordCapture(at time.Time) {
	s.mu.Lock()
	s.lastCaptureAt = at
	s.mu.Unlock()
	s.count.Add(1)
}
