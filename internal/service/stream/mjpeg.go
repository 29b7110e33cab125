package stream

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// Boundary separates the parts of the MJPEG stream.
const Boundary = "frame"

// ContentType is the Content-Type of an MJPEG response.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// MJPEGWriter writes JPEG frames as parts of a multipart/x-mixed-replace body.
type MJPEGWriter struct {
	mw *multipart.Writer
}

func NewMJPEGWriter(w io.Writer) *MJPEGWriter {
	mw := multipart.NewWriter(w)
	// SetBoundary only fails on invalid boundaries; Boundary is valid.
	_ = mw.SetBoundary(Boundary)
	return &MJPEGWriter{mw: mw}
}

// WriteFrame writes one JPEG part.
func (m *MJPEGWriter) WriteFrame(data []byte) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", "image/jpeg")
	header.Set("Content-Length", strconv.Itoa(len(data)))

	part, err := m.mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close writes the closing boundary.
func (m *MJPEGWriter) Close() error {
	return m.mw.Close()
}
