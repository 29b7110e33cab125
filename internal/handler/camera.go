package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"depthcapture/internal/config"
	"depthcapture/internal/logger"
	"depthcapture/internal/service/stream"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// udpPacketSize bounds a single camera datagram.
const udpPacketSize = 65507

// frameAssembler rebuilds JPEG frames split over several datagrams. A packet
// starting with SOI begins a new frame; a packet ending with EOI completes it.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// Feed adds one packet from source and returns a complete frame when the
// packet closes one.
func (a *frameAssembler) Feed(source string, packet []byte) ([]byte, bool) {
	buf, ok := a.buffers[source]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[source] = buf
	}

	if bytes.HasPrefix(packet, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// tail of a frame whose start was lost
		return nil, false
	}
	buf.Write(packet)

	if !bytes.HasSuffix(packet, jpegFooter) {
		return nil, false
	}

	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG
// frames per remote address and publishes complete frames to the hub. It
// returns when ctx is done.
func UDPCameraHandler(ctx context.Context, hub *stream.FrameHub, logger *logger.Logger, cfg *config.Config) error {
	port := strconv.Itoa(cfg.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP camera handler started on port %s", port)
	return serveCameraPackets(ctx, conn, hub, logger)
}

func serveCameraPackets(ctx context.Context, conn net.PacketConn, hub *stream.FrameHub, logger *logger.Logger) error {
	assembler := newFrameAssembler()
	buffer := make([]byte, udpPacketSize)

	for {
		n, remoteAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		camera := remoteAddr.String()
		if frame, ok := assembler.Feed(camera, buffer[:n]); ok {
			hub.Publish(camera, frame)
		}
	}
}

// CameraFrameHandler accepts one JPEG frame per request body; ?camera= names
// the source.
func CameraFrameHandler(hub *stream.FrameHub, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("camera")
		if camera == "" {
			camera = "default"
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize))
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "Failed to read frame")
			return
		}
		if !bytes.HasPrefix(data, jpegHeader) {
			writeError(w, logger, http.StatusBadRequest, "Frame is not a JPEG image")
			return
		}

		frame := hub.Publish(camera, data)
		writeJSON(w, logger, http.StatusOK, map[string]any{
			"success": true,
			"seq":     frame.Seq,
		})
	}
}
