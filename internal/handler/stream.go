package handler

import (
	"encoding/base64"
	"net/http"

	"depthcapture/internal/logger"
	"depthcapture/internal/service/stream"
)

// StreamingHandler serves camera frames as MJPEG until the client goes away.
// The latest frame, if any, is sent immediately.
func StreamingHandler(hub *stream.FrameHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		frames, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		mw := stream.NewMJPEGWriter(w)
		if latest, ok := hub.Latest(); ok {
			if err := mw.WriteFrame(latest.Data); err != nil {
				return
			}
			flusher.Flush()
		}

		logger.Info("Stream viewer connected from %s", r.RemoteAddr)
		defer logger.Info("Stream viewer disconnected from %s", r.RemoteAddr)

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if err := mw.WriteFrame(frame.Data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// LatestFrameHandler returns the most recent frame as a base64 JSON string.
func LatestFrameHandler(hub *stream.FrameHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame, ok := hub.Latest()
		if !ok {
			writeError(w, logger, http.StatusNotFound, "No frame available")
			return
		}
		writeJSON(w, logger, http.StatusOK, base64.StdEncoding.EncodeToString(frame.Data))
	}
}
