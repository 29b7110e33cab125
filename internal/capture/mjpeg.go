package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// maxFrameSize bounds a single MJPEG part.
const maxFrameSize = 16 << 20

// MJPEGBinder binds multipart/x-mixed-replace streams served over HTTP.
type MJPEGBinder struct {
	URL    string
	Client *http.Client // nil uses a client without timeout
}

// Bind connects to the stream. ctx bounds connection setup only; the stream
// runs until the returned source is closed or the server ends it.
func (b *MJPEGBinder) Bind(ctx context.Context) (FrameSource, error) {
	httpClient := b.Client
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, b.URL, nil)
	if err != nil {
		stop()
		cancel()
		return nil, &StreamBindError{URL: b.URL, Err: err}
	}

	resp, err := httpClient.Do(req)
	if !stop() {
		// ctx ended during setup; the request was cancelled with it
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, &StreamBindError{URL: b.URL, Err: context.Cause(ctx)}
	}
	if err != nil {
		cancel()
		return nil, &StreamBindError{URL: b.URL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &StreamBindError{URL: b.URL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, &StreamBindError{URL: b.URL, Err: fmt.Errorf("not a multipart stream: %q", resp.Header.Get("Content-Type"))}
	}

	src := &mjpegSource{
		body:   resp.Body,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go src.read(multipart.NewReader(resp.Body, params["boundary"]))
	return src, nil
}

type mjpegSource struct {
	body   io.Closer
	cancel context.CancelFunc

	mu     sync.RWMutex
	latest Frame
	have   bool
	err    error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

func (s *mjpegSource) read(r *multipart.Reader) {
	defer close(s.done)

	for {
		part, err := r.NextPart()
		if err != nil {
			s.finish(err)
			return
		}

		// the next NextPart drains whatever is left of this part
		data, err := readPart(part)
		if err != nil {
			s.finish(err)
			return
		}
		if len(data) == 0 {
			continue
		}

		frame := Frame{Data: data}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			frame.Width, frame.Height = cfg.Width, cfg.Height
		}

		s.mu.Lock()
		s.latest = frame
		s.have = true
		s.mu.Unlock()

		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// readPart reads one frame. With a Content-Length the frame is complete as
// soon as its bytes arrive; without one it ends at the next boundary.
func readPart(part *multipart.Part) ([]byte, error) {
	if n, err := strconv.Atoi(part.Header.Get("Content-Length")); err == nil && n >= 0 && n <= maxFrameSize {
		data := make([]byte, n)
		if _, err := io.ReadFull(part, data); err != nil {
			return nil, err
		}
		return data, nil
	}
	return io.ReadAll(io.LimitReader(part, maxFrameSize))
}

func (s *mjpegSource) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("stream ended by server")
	}
	s.err = err
}

func (s *mjpegSource) Current() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.have
}

func (s *mjpegSource) Ready() <-chan struct{} { return s.ready }

func (s *mjpegSource) Done() <-chan struct{} { return s.done }

func (s *mjpegSource) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close cancels the request and waits for the reader to exit.
func (s *mjpegSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		err = s.body.Close()
		<-s.done
	})
	return err
}
