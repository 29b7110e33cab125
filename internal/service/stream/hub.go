package stream

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"sync"
	"time"

	"depthcapture/internal/logger"
)

// Frame is one JPEG image received from a camera.
type Frame struct {
	Camera    string
	Data      []byte
	Width     int // 0 when the header could not be read
	Height    int
	Timestamp time.Time
	Seq       uint64
}

// FrameHub keeps the latest camera frame and fans every new frame out to
// subscribers. Slow subscribers miss frames instead of blocking cameras.
type FrameHub struct {
	mu          sync.RWMutex
	latest      *Frame
	seq         uint64
	subscribers map[chan Frame]struct{}
	logger      *logger.Logger
	now         func() time.Time
}

func NewFrameHub(logger *logger.Logger) *FrameHub {
	return &FrameHub{
		subscribers: make(map[chan Frame]struct{}),
		logger:      logger,
		now:         time.Now,
	}
}

// Publish stores data as the latest frame and hands it to every subscriber
// that has room for it.
func (h *FrameHub) Publish(camera string, data []byte) Frame {
	frame := Frame{
		Camera:    camera,
		Data:      data,
		Timestamp: h.now(),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		frame.Width, frame.Height = cfg.Width, cfg.Height
	}

	h.mu.Lock()
	h.seq++
	frame.Seq = h.seq
	h.latest = &frame

	dropped := 0
	for ch := range h.subscribers {
		select {
		case ch <- frame:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		h.logger.Debug("Camera %s: frame %d dropped for %d slow subscriber(s)", camera, frame.Seq, dropped)
	}
	return frame
}

// Subscribe returns a channel receiving new frames and a function that
// cancels the subscription and closes the channel.
func (h *FrameHub) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Latest returns the most recent frame, if any has been published.
func (h *FrameHub) Latest() (Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.latest == nil {
		return Frame{}, false
	}
	return *h.latest, true
}

// SubscriberCount returns the number of active subscriptions.
func (h *FrameHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
