package events

import (
	"context"
	"errors"
	"time"
)

// TypeArtifactStored is emitted after an artifact has been written.
const TypeArtifactStored = "artifact.stored"

// Event describes a change in the artifact directory.
type Event struct {
	Type      string    `json:"type"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes every event to all of its publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
