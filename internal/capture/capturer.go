package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"depthcapture/internal/logger"
)

const dataURLPrefix = "data:image/png;base64,"

// Rasterizer draws an encoded frame onto an offscreen surface of the given
// size and returns the surface as PNG. Zero dimensions select a default size.
type Rasterizer interface {
	Rasterize(frame []byte, width, height int) ([]byte, error)
}

// Result describes a successful capture.
type Result struct {
	SessionID  string
	Delivery   string
	Filename   string
	Location   string
	Size       int64
	DataURL    string
	CapturedAt time.Time
}

// Capturer samples the controller's active stream and delivers the frame.
type Capturer struct {
	controller *Controller
	raster     Rasterizer
	chain      Chain
	logger     *logger.Logger
	now        func() time.Time
	onCapture  func(Result)
}

// CapturerOption configures a Capturer.
type CapturerOption func(*Capturer)

// OnCapture registers fn to receive every successful capture.
func OnCapture(fn func(Result)) CapturerOption {
	return func(c *Capturer) { c.onCapture = fn }
}

func NewCapturer(controller *Controller, raster Rasterizer, chain Chain, logger *logger.Logger, opts ...CapturerOption) *Capturer {
	c := &Capturer{
		controller: controller,
		raster:     raster,
		chain:      chain,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capture takes one still frame. It returns ErrCaptureRejected without any
// I/O when the stream is not active or a capture is already running, and a
// CaptureError when every delivery failed.
func (c *Capturer) Capture(ctx context.Context) (*Result, error) {
	src, session, err := c.controller.active()
	if err != nil {
		c.logger.Info("Capture rejected: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrCaptureRejected, err)
	}
	if !session.tryBegin() {
		c.logger.Info("Capture rejected: capture already in progress")
		return nil, fmt.Errorf("%w: capture already in progress", ErrCaptureRejected)
	}

	res, err := c.capture(ctx, src, session)
	session.end()
	if err != nil {
		c.logger.Error("Capture failed: %v", err)
		return nil, err
	}

	c.logger.Info("Frame captured: %s (%s)", res.Filename, res.Delivery)
	if c.onCapture != nil {
		c.onCapture(*res)
	}
	return res, nil
}

func (c *Capturer) capture(ctx context.Context, src FrameSource, session *Session) (*Result, error) {
	frame, ok := src.Current()
	if !ok {
		return nil, ErrNoFrame
	}

	png, err := c.raster.Rasterize(frame.Data, frame.Width, frame.Height)
	if err != nil {
		return nil, fmt.Errorf("rasterizing frame: %w", err)
	}

	enc := &Encoded{
		PNG:     png,
		DataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}

	via, out, err := c.chain.Deliver(ctx, enc)
	if err != nil {
		return nil, err
	}

	now := c.now()
	session.recordCapture(now)

	return &Result{
		SessionID:  session.ID,
		Delivery:   via,
		Filename:   out.Filename,
		Location:   out.Location,
		Size:       out.Size,
		DataURL:    enc.DataURL,
		CapturedAt: now,
	}, nil
}
