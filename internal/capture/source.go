package capture

import "context"

// Frame is one sampled image from a live stream.
type Frame struct {
	Data   []byte // encoded image as received
	Width  int    // 0 when the source does not report a size
	Height int
}

// FrameSource is a continuously updating visual feed.
type FrameSource interface {
	// Current returns the most recent frame.
	Current() (Frame, bool)
	// Ready is closed once the first frame has arrived.
	Ready() <-chan struct{}
	// Done is closed when the stream ends; Err then reports why.
	Done() <-chan struct{}
	Err() error
	// Close releases the underlying connection.
	Close() error
}

// Binder opens a frame source.
type Binder interface {
	Bind(ctx context.Context) (FrameSource, error)
}
