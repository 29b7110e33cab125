package capture

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"depthcapture/internal/logger"
)

// Controller manages the lifecycle of one live stream connection:
// Idle -> Connecting -> Active, with Error on failure and Idle on Stop.
// It is safe for concurrent use.
type Controller struct {
	binder Binder
	logger *logger.Logger
	now    func() time.Time

	onStateChange func(from, to State, err error)

	mu      sync.Mutex
	state   State
	err     error
	gen     uint64 // bumped by every Start and Stop; stale bind results are discarded
	source  FrameSource
	session *Session
	changed chan struct{}
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// OnStateChange registers fn to be called after every transition. fn runs
// outside the controller lock.
func OnStateChange(fn func(from, to State, err error)) ControllerOption {
	return func(c *Controller) { c.onStateChange = fn }
}

func NewController(binder Binder, logger *logger.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		binder:  binder,
		logger:  logger,
		now:     time.Now,
		state:   Idle,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the cause of the Error state, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Session returns the current session, or nil before the first Start.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Source returns the bound frame source while Active.
func (c *Controller) Source() (FrameSource, error) {
	src, _, err := c.active()
	return src, err
}

func (c *Controller) active() (FrameSource, *Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active || c.source == nil {
		return nil, nil, ErrNotActive
	}
	return c.source, c.session, nil
}

// Start binds a new stream. It is a no-op while Connecting or Active.
// Starting from Error resets to Idle first. Start returns once the source is
// bound; the controller becomes Active when the first frame arrives.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	var notify []func()
	switch c.state {
	case Connecting, Active:
		c.mu.Unlock()
		return nil
	case Error:
		notify = append(notify, c.transitionLocked(Idle, nil))
	}

	c.gen++
	gen := c.gen
	c.session = newSession(c.now())
	notify = append(notify, c.transitionLocked(Connecting, nil))
	c.mu.Unlock()
	runAll(notify)

	c.logger.Info("Starting stream (session %s)", c.Session().ID)

	src, err := c.binder.Bind(ctx)

	c.mu.Lock()
	if gen != c.gen || c.state != Connecting {
		c.mu.Unlock()
		if src != nil {
			src.Close()
		}
		c.logger.Info("Discarding stream bound after stop")
		return nil
	}
	if err != nil {
		bindErr := asBindError(err)
		n := c.transitionLocked(Error, bindErr)
		c.mu.Unlock()
		n()
		c.logger.Error("Failed to bind stream: %v", err)
		return bindErr
	}
	c.source = src
	c.mu.Unlock()

	go c.watch(gen, src)
	return nil
}

// Stop releases the source and returns to Idle. It is a no-op while Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return
	}
	c.gen++
	src := c.source
	c.source = nil
	n := c.transitionLocked(Idle, nil)
	c.mu.Unlock()

	if src != nil {
		if err := src.Close(); err != nil {
			c.logger.Warning("Error closing stream: %v", err)
		}
	}
	n()
	c.logger.Info("Stream stopped")
}

// Wait blocks until the controller is in one of states or ctx is done, and
// returns the state reached.
func (c *Controller) Wait(ctx context.Context, states ...State) (State, error) {
	for {
		c.mu.Lock()
		state, changed := c.state, c.changed
		c.mu.Unlock()

		if slices.Contains(states, state) {
			return state, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// watch moves a bound source to Active on its first frame and to Error when
// the stream ends, unless the controller has moved on to another generation.
func (c *Controller) watch(gen uint64, src FrameSource) {
	select {
	case <-src.Ready():
		c.mu.Lock()
		if gen != c.gen || c.state != Connecting {
			c.mu.Unlock()
			return
		}
		n := c.transitionLocked(Active, nil)
		c.mu.Unlock()
		n()
		c.logger.Info("Stream active")
	case <-src.Done():
	}

	<-src.Done()
	src.Close()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	streamErr := src.Err()
	if streamErr == nil {
		streamErr = errors.New("stream ended")
	}
	bindErr := asBindError(streamErr)
	c.source = nil
	n := c.transitionLocked(Error, bindErr)
	c.mu.Unlock()

	n()
	c.logger.Error("Stream failed: %v", bindErr)
}

// transitionLocked applies a validated transition and returns the
// notification to run once the lock is released.
func (c *Controller) transitionLocked(to State, err error) func() {
	from := c.state
	if !canTransition(from, to) {
		panic(fmt.Sprintf("capture: invalid transition %s -> %s", from, to))
	}

	c.state = to
	c.err = err
	close(c.changed)
	c.changed = make(chan struct{})

	fn := c.onStateChange
	return func() {
		if fn != nil {
			fn(from, to, err)
		}
	}
}

func asBindError(err error) *StreamBindError {
	var be *StreamBindError
	if errors.As(err, &be) {
		return be
	}
	return &StreamBindError{Err: err}
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
