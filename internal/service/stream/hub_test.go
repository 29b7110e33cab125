package stream

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"depthcapture/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func newHub() *FrameHub {
	return NewFrameHub(logger.NewConsoleLogger(io.Discard, "ERROR"))
}

func TestFrameHub_LatestBeforePublish(t *testing.T) {
	_, ok := newHub().Latest()
	assert.False(t, ok)
}

func TestFrameHub_PublishReadsDimensions(t *testing.T) {
	hub := newHub()

	frame := hub.Publish("cam1", testJPEG(t, 32, 16))
	assert.Equal(t, 32, frame.Width)
	assert.Equal(t, 16, frame.Height)
	assert.Equal(t, uint64(1), frame.Seq)

	hub.Publish("cam1", []byte("not a jpeg"))
	latest, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), latest.Seq)
	assert.Zero(t, latest.Width)
}

func TestFrameHub_FanOut(t *testing.T) {
	hub := newHub()
	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	hub.Publish("cam1", []byte{1})

	assert.Equal(t, []byte{1}, (<-first).Data)
	assert.Equal(t, []byte{1}, (<-second).Data)
}

func TestFrameHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		hub.Publish("cam1", []byte{byte(i)})
	}

	got := <-ch
	assert.Equal(t, uint64(1), got.Seq)
	assert.Len(t, ch, 0)
}

func TestFrameHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := newHub()
	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount())
}

func TestMJPEGWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewMJPEGWriter(&buf)
	require.NoError(t, w.WriteFrame([]byte("first")))
	require.NoError(t, w.WriteFrame([]byte("second")))
	require.NoError(t, w.Close())

	_, params, err := mime.ParseMediaType(ContentType)
	require.NoError(t, err)

	r := multipart.NewReader(strings.NewReader(buf.String()), params["boundary"])
	for _, want := range []string{"first", "second"} {
		part, err := r.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))

		body, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Equal(t, want, string(body))
	}
}
