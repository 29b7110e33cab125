package raster

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Surface draws sampled frames onto an offscreen OpenCV matrix and encodes
// the result as PNG.
type Surface struct {
	defaultWidth  int
	defaultHeight int
}

// NewSurface creates a Surface that falls back to defaultWidth x
// defaultHeight when a frame does not report its own size.
func NewSurface(defaultWidth, defaultHeight int) *Surface {
	return &Surface{defaultWidth: defaultWidth, defaultHeight: defaultHeight}
}

// Rasterize decodes an encoded frame, draws it onto a width x height surface
// and returns the surface as PNG bytes. Zero dimensions select the defaults.
func (s *Surface) Rasterize(frame []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		width, height = s.defaultWidth, s.defaultHeight
	}

	src, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %v", err)
	}
	defer src.Close()

	if src.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	surface := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	defer surface.Close()

	if src.Cols() == width && src.Rows() == height {
		src.CopyTo(&surface)
	} else {
		gocv.Resize(src, &surface, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	}
	if surface.Empty() {
		return nil, fmt.Errorf("failed to draw frame onto %dx%d surface", width, height)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, surface)
	if err != nil {
		return nil, fmt.Errorf("failed to encode surface: %v", err)
	}
	defer buf.Close()

	png := make([]byte, len(buf.GetBytes()))
	copy(png, buf.GetBytes())
	return png, nil
}
