package route

import (
	"net/http"

	"depthcapture/internal/config"
	"depthcapture/internal/handler"
	"depthcapture/internal/logger"
	"depthcapture/internal/middleware"
	"depthcapture/internal/service/persistence"
	"depthcapture/internal/service/stream"
	"depthcapture/internal/service/websocket"

	"github.com/klauspost/compress/gzhttp"
)

// Services groups the dependencies the HTTP handlers close over.
type Services struct {
	Persistence *persistence.Service
	Frames      *stream.FrameHub
	Events      *websocket.HubService
}

// SetupRoutes registers the capture API, the live stream, camera ingest and
// log endpoints, and wraps the mux with CORS and request logging. JSON API
// responses are gzip-compressed when the client accepts it; streaming and
// websocket endpoints are left uncompressed.
func SetupRoutes(svc Services, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	gz := func(h http.HandlerFunc) http.Handler { return gzhttp.GzipHandler(h) }

	// Capture API
	mux.Handle("POST /api/capture", handler.CaptureUploadHandler(svc.Persistence, cfg, logger))
	mux.Handle("POST /api/capture-base64", handler.CaptureBase64Handler(svc.Persistence, cfg, logger))
	mux.Handle("GET /api/images", gz(handler.ListImagesHandler(svc.Persistence, logger)))
	mux.Handle("GET /api/images/stats", gz(handler.ImageStatsHandler(svc.Persistence, logger)))
	mux.Handle("GET /api/images/recent", gz(handler.RecentImagesHandler(svc.Persistence, logger)))
	mux.Handle("GET /api/images/view", handler.ViewImageHandler(svc.Persistence, logger))
	mux.Handle("GET /api/health", handler.HealthHandler(svc.Persistence, logger))
	mux.Handle("GET /api/events", handler.EventsWebsocketHandler(svc.Events, logger))

	// Live stream
	mux.Handle("GET /capture", handler.LatestFrameHandler(svc.Frames, logger))
	mux.Handle("GET /capture/streaming", handler.StreamingHandler(svc.Frames, logger))
	mux.Handle("POST /camera/frame", handler.CameraFrameHandler(svc.Frames, cfg, logger))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.Handle("GET /logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.Handle("POST /logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	var h http.Handler = mux
	h = middleware.LoggingMiddleware(logger)(h)
	h = middleware.CORSMiddleware(cfg.AllowedOrigin)(h)
	return h
}
