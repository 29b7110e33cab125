package capture

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"depthcapture/internal/service/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// mjpegServer streams frame once, then holds the connection until release
// is closed.
func mjpegServer(t *testing.T, frame []byte, release chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", stream.ContentType)
		mw := stream.NewMJPEGWriter(w)
		mw.WriteFrame(frame)
		w.(http.Flusher).Flush()

		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMJPEGBinder_ReceivesFrames(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	frame := jpegFrame(t, 64, 48)
	srv := mjpegServer(t, frame, release)

	src, err := (&MJPEGBinder{URL: srv.URL}).Bind(context.Background())
	require.NoError(t, err)
	defer src.Close()

	select {
	case <-src.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	got, ok := src.Current()
	require.True(t, ok)
	assert.Equal(t, frame, got.Data)
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 48, got.Height)
}

func TestMJPEGBinder_ServerEndReportsError(t *testing.T) {
	release := make(chan struct{})
	srv := mjpegServer(t, jpegFrame(t, 8, 8), release)

	src, err := (&MJPEGBinder{URL: srv.URL}).Bind(context.Background())
	require.NoError(t, err)
	defer src.Close()

	<-src.Ready()
	close(release)

	select {
	case <-src.Done():
		assert.Error(t, src.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("stream end not detected")
	}
}

func TestMJPEGBinder_CloseIsClean(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := mjpegServer(t, jpegFrame(t, 8, 8), release)

	src, err := (&MJPEGBinder{URL: srv.URL}).Bind(context.Background())
	require.NoError(t, err)
	<-src.Ready()

	require.NoError(t, src.Close())
	<-src.Done()
	assert.NoError(t, src.Err())
}

func TestMJPEGBinder_RejectsNonStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := (&MJPEGBinder{URL: srv.URL}).Bind(context.Background())

	var bindErr *StreamBindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, srv.URL, bindErr.URL)
}

func TestMJPEGBinder_RejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := (&MJPEGBinder{URL: srv.URL}).Bind(context.Background())

	var bindErr *StreamBindError
	assert.ErrorAs(t, err, &bindErr)
}

func TestController_WithMJPEGStream(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := mjpegServer(t, jpegFrame(t, 16, 16), release)

	c := NewController(&MJPEGBinder{URL: srv.URL}, testLogger())
	require.NoError(t, c.Start(context.Background()))
	waitFor(t, c, Active)

	c.Stop()
	assert.Equal(t, Idle, c.State())
}
