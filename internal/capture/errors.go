package capture

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotActive is returned by Source when no stream is active.
	ErrNotActive = errors.New("stream not active")

	// ErrCaptureRejected is returned when a capture cannot start: the stream
	// is not active or another capture is in flight. It is not a user error.
	ErrCaptureRejected = errors.New("capture rejected")

	// ErrNoFrame is returned when an active source has no frame to sample.
	ErrNoFrame = errors.New("no frame available")
)

// StreamBindError reports a stream that could not be bound or that failed
// while active.
type StreamBindError struct {
	URL string
	Err error
}

func (e *StreamBindError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("stream: %v", e.Err)
	}
	return fmt.Sprintf("stream %s: %v", e.URL, e.Err)
}

func (e *StreamBindError) Unwrap() error {
	return e.Err
}

// Attempt is the outcome of one delivery strategy.
type Attempt struct {
	Delivery string
	Err      error
}

// CaptureError is returned when every delivery strategy failed.
type CaptureError struct {
	Attempts []Attempt
}

func (e *CaptureError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Delivery, a.Err))
	}
	return "capture failed: " + strings.Join(parts, "; ")
}

func (e *CaptureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
