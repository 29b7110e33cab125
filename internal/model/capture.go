package model

import "time"

// Ingestion sources recorded in the capture journal.
const (
	SourceUpload  = "upload"
	SourceEncoded = "encoded"
)

// CaptureRecord is one journal row describing an ingestion.
type CaptureRecord struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	Source       string    `json:"source"`
	OriginalName string    `json:"originalName,omitempty"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	CapturedAt   time.Time `json:"capturedAt"`
}

// CaptureStats contains statistics about journaled captures.
type CaptureStats struct {
	TotalCaptures  int            `json:"totalCaptures"`
	TotalSizeBytes int64          `json:"totalSizeBytes"`
	PerSource      map[string]int `json:"perSource"`
	LastCaptureAt  *time.Time     `json:"lastCaptureAt,omitempty"`
}
