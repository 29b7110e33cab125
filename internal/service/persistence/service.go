package persistence

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"depthcapture/internal/logger"
	"depthcapture/internal/model"
	"depthcapture/internal/repository"
	"depthcapture/internal/service/events"
	"depthcapture/internal/service/metrics"
	"depthcapture/internal/service/storage"

	"github.com/zeebo/blake3"
)

// UploadResult describes an artifact stored from a multipart upload.
type UploadResult struct {
	Filename     string
	OriginalName string
	Size         int64
	Path         string
	Timestamp    time.Time
}

// EncodedResult describes an artifact stored from an encoded payload.
type EncodedResult struct {
	Filename  string
	Path      string
	Timestamp time.Time
	Size      int64
}

// Listing is the artifact directory index, newest first.
type Listing struct {
	Count  int
	Images []model.Artifact
}

// Health is the liveness probe answer.
type Health struct {
	Status       string
	Message      string
	DataImageDir string
}

// defaultPublishTimeout bounds how long an ingestion waits on event delivery.
const defaultPublishTimeout = 2 * time.Second

// Service accepts captured images and persists them in the artifact store.
// The journal, publisher and metrics are side channels: their failures are
// logged and never fail an ingestion.
type Service struct {
	store     *storage.ArtifactStore
	journal   repository.CaptureRepository
	publisher events.Publisher
	metrics   *metrics.Recorder
	logger    *logger.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

// WithJournal records every ingestion in repo.
func WithJournal(repo repository.CaptureRepository) Option {
	return func(s *Service) { s.journal = repo }
}

// WithPublisher announces stored artifacts through p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records ingestion metrics on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithClock overrides the time source used for naming.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *storage.ArtifactStore, logger *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: events.Nop{},
		logger:    logger,
		now:       time.Now,

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AcceptUpload stores the bytes read from r under a freshly generated name.
// declaredName is kept only as metadata.
func (s *Service) AcceptUpload(ctx context.Context, r io.Reader, declaredName string) (*UploadResult, error) {
	if r == nil {
		s.failed(ctx, model.SourceUpload, "bad_request")
		return nil, fmt.Errorf("%w: no file provided", ErrBadRequest)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		s.failed(ctx, model.SourceUpload, "read")
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	now := s.now()
	filename := storage.GenerateFilename(now)
	size, err := s.store.Write(filename, data)
	if err != nil {
		s.logger.Error("Error saving image: %v", err)
		s.failed(ctx, model.SourceUpload, "storage")
		return nil, err
	}

	s.stored(ctx, data, model.CaptureRecord{
		Filename:     filename,
		Source:       model.SourceUpload,
		OriginalName: declaredName,
		Size:         size,
		CapturedAt:   now,
	})

	return &UploadResult{
		Filename:     filename,
		OriginalName: declaredName,
		Size:         size,
		Path:         s.store.Path(filename),
		Timestamp:    now,
	}, nil
}

// AcceptEncodedPayload decodes a base64 (optionally data-URL) payload and
// stores it under filename, or under a generated name when filename is empty.
// An existing artifact with the same name is replaced.
func (s *Service) AcceptEncodedPayload(ctx context.Context, payload, filename string) (*EncodedResult, error) {
	if payload == "" {
		s.failed(ctx, model.SourceEncoded, "bad_request")
		return nil, fmt.Errorf("%w: no image data provided", ErrBadRequest)
	}

	data, err := DecodePayload(payload)
	if err != nil {
		s.failed(ctx, model.SourceEncoded, "decode")
		return nil, fmt.Errorf("decoding image data: %w", err)
	}

	now := s.now()
	if filename == "" {
		filename = storage.GenerateFilename(now)
	}

	if _, err := s.store.Write(filename, data); err != nil {
		s.logger.Error("Error saving base64 image: %v", err)
		s.failed(ctx, model.SourceEncoded, "storage")
		return nil, err
	}

	artifact, err := s.store.Stat(filename)
	if err != nil {
		s.failed(ctx, model.SourceEncoded, "storage")
		return nil, err
	}

	s.stored(ctx, data, model.CaptureRecord{
		Filename:   filename,
		Source:     model.SourceEncoded,
		Size:       artifact.Size,
		CapturedAt: now,
	})

	return &EncodedResult{
		Filename:  filename,
		Path:      artifact.Path,
		Timestamp: now,
		Size:      artifact.Size,
	}, nil
}

// ListArtifacts returns every stored artifact, newest first.
func (s *Service) ListArtifacts() (*Listing, error) {
	images, err := s.store.List()
	if err != nil {
		s.logger.Error("Error listing images: %v", err)
		return nil, err
	}
	return &Listing{Count: len(images), Images: images}, nil
}

// Health reports liveness without touching the disk.
func (s *Service) Health() Health {
	return Health{
		Status:       "OK",
		Message:      "Image capture service is running",
		DataImageDir: s.store.Root(),
	}
}

// Stats returns journal statistics.
func (s *Service) Stats() (*model.CaptureStats, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	return s.journal.GetStats()
}

// Recent returns up to limit journal rows, newest first.
func (s *Service) Recent(limit int) ([]model.CaptureRecord, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	return s.journal.GetRecent(limit)
}

// Lookup returns the journal row of an artifact, or nil when there is no
// journal or the artifact was never journaled.
func (s *Service) Lookup(filename string) (*model.CaptureRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.GetByFilename(filename)
}

// Store exposes the artifact store for read-only handlers.
func (s *Service) Store() *storage.ArtifactStore {
	return s.store
}

func (s *Service) stored(ctx context.Context, data []byte, rec model.CaptureRecord) {
	s.logger.Info("Image saved: %s", rec.Filename)

	sum := blake3.Sum256(data)
	rec.Checksum = hex.EncodeToString(sum[:])

	if s.journal != nil {
		if _, err := s.journal.Upsert(&rec); err != nil {
			s.logger.Warning("Failed to journal %s: %v", rec.Filename, err)
		}
	}

	if s.metrics != nil {
		s.metrics.ArtifactStored(ctx, rec.Source, rec.Size)
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	err := s.publisher.Publish(pubCtx, events.Event{
		Type:      events.TypeArtifactStored,
		Filename:  rec.Filename,
		Source:    rec.Source,
		Size:      rec.Size,
		Timestamp: rec.CapturedAt,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warning("Failed to publish event for %s: %v", rec.Filename, err)
	}
}

func (s *Service) failed(ctx context.Context, source, reason string) {
	if s.metrics != nil {
		s.metrics.IngestFailed(ctx, source, reason)
	}
}
