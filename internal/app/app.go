package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"depthcapture/internal/config"
	"depthcapture/internal/handler"
	"depthcapture/internal/logger"
	"depthcapture/internal/repository/sqlite"
	"depthcapture/internal/route"
	"depthcapture/internal/service/events"
	"depthcapture/internal/service/metrics"
	"depthcapture/internal/service/persistence"
	"depthcapture/internal/service/storage"
	"depthcapture/internal/service/stream"
	"depthcapture/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	store       *storage.ArtifactStore
	hubService  *websocket.HubService
	frameHub    *stream.FrameHub
	broker      *events.AMQPPublisher
	metrics     *metrics.Recorder
	persistence *persistence.Service
}

// NewApp loads configuration and builds every service. Optional side
// channels (broker, metrics export) degrade to no-ops when unavailable.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}

	a.store = storage.NewArtifactStore(cfg.ImageDirectory)
	if err := a.store.EnsureRoot(); err != nil {
		a.Close()
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	a.db, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.metrics, err = metrics.NewRecorder(ctx, metrics.Config{
		Enabled:  cfg.OTELEnabled,
		Endpoint: cfg.OTELEndpoint,
		Insecure: cfg.OTELInsecure,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.hubService = websocket.NewHubService(log)
	a.frameHub = stream.NewFrameHub(log)

	publishers := events.Multi{a.hubService}
	if cfg.AMQPURL != "" {
		a.broker, err = events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warning("AMQP publishing disabled: %v", err)
		} else {
			publishers = append(publishers, a.broker)
		}
	}

	a.persistence = persistence.NewService(a.store, log,
		persistence.WithJournal(sqlite.NewCaptureRepository(a.db)),
		persistence.WithPublisher(publishers),
		persistence.WithMetrics(a.metrics),
	)

	return a, nil
}

// Run serves HTTP and camera ingest until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run(ctx)

	go func() {
		if err := handler.UDPCameraHandler(ctx, a.frameHub, a.logger, a.config); err != nil {
			a.logger.Error("UDP camera handler stopped: %v", err)
		}
	}()

	router := route.SetupRoutes(route.Services{
		Persistence: a.persistence,
		Frames:      a.frameHub,
		Events:      a.hubService,
	}, a.config, a.logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Image capture service running on port %d", a.config.Port)
	a.logger.Info("Images will be saved to: %s", a.store.Root())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the database, broker connection, metrics exporter and log
// files.
func (a *App) Close() error {
	var errs []error
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, a.metrics.Close(ctx))
		cancel()
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}
