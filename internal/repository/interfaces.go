package repository

import (
	"depthcapture/internal/model"
)

// CaptureRepository defines the capture journal operations.
type CaptureRepository interface {
	// Upsert records an ingestion. Writing the same filename again replaces
	// the row, mirroring the overwrite semantics of the artifact directory.
	Upsert(rec *model.CaptureRecord) (int64, error)
	BulkUpsert(recs []model.CaptureRecord) error

	GetByFilename(filename string) (*model.CaptureRecord, error)
	GetRecent(limit int) ([]model.CaptureRecord, error)
	GetStats() (*model.CaptureStats, error)
}
