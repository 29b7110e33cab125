package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"depthcapture/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.NewConsoleLogger(io.Discard, "ERROR")
}

type fakeSource struct {
	mu     sync.Mutex
	frame  Frame
	have   bool
	err    error
	ready  chan struct{}
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{ready: make(chan struct{}), done: make(chan struct{})}
}

func (s *fakeSource) push(f Frame) {
	s.mu.Lock()
	first := !s.have
	s.frame, s.have = f, true
	s.mu.Unlock()
	if first {
		close(s.ready)
	}
}

func (s *fakeSource) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

func (s *fakeSource) Current() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.have
}

func (s *fakeSource) Ready() <-chan struct{} { return s.ready }
func (s *fakeSource) Done() <-chan struct{}  { return s.done }

func (s *fakeSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	s.once.Do(func() { close(s.done) })
	return nil
}

// fakeBinder hands out prepared sources, or err when set. When gate is
// non-nil Bind blocks until it is closed.
type fakeBinder struct {
	mu      sync.Mutex
	sources []*fakeSource
	err     error
	gate    chan struct{}
	calls   atomic.Int32
}

func (b *fakeBinder) Bind(ctx context.Context) (FrameSource, error) {
	b.calls.Add(1)
	if b.gate != nil {
		<-b.gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	if len(b.sources) == 0 {
		return nil, errors.New("no source prepared")
	}
	src := b.sources[0]
	b.sources = b.sources[1:]
	return src, nil
}

type fakeRaster struct {
	calls atomic.Int32
}

func (r *fakeRaster) Rasterize(frame []byte, width, height int) ([]byte, error) {
	r.calls.Add(1)
	return append([]byte("png:"), frame...), nil
}

type fakeDelivery struct {
	name    string
	err     error
	calls   atomic.Int32
	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func (d *fakeDelivery) Name() string { return d.name }

func (d *fakeDelivery) Deliver(ctx context.Context, enc *Encoded) (*Delivered, error) {
	d.calls.Add(1)
	if d.started != nil {
		d.once.Do(func() { close(d.started) })
	}
	if d.block != nil {
		<-d.block
	}
	if d.err != nil {
		return nil, d.err
	}
	return &Delivered{Filename: d.name + ".png", Size: int64(len(enc.PNG))}, nil
}
