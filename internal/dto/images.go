package dto

import (
	"time"

	"depthcapture/internal/model"
)

// ImageInfo is one entry of the artifact listing.
type ImageInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// ImagesResponse lists stored artifacts, newest first.
type ImagesResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Images  []ImageInfo `json:"images"`
}

// StatsResponse carries capture journal statistics.
type StatsResponse struct {
	Success bool                `json:"success"`
	Stats   *model.CaptureStats `json:"stats"`
}

// RecentResponse carries the most recent journal rows.
type RecentResponse struct {
	Success  bool                  `json:"success"`
	Count    int                   `json:"count"`
	Captures []model.CaptureRecord `json:"captures"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DataImageDir string `json:"dataImageDir"`
}

// NewImageInfos converts store artifacts to listing entries.
func NewImageInfos(artifacts []model.Artifact) []ImageInfo {
	infos := make([]ImageInfo, 0, len(artifacts))
	for _, a := range artifacts {
		infos = append(infos, ImageInfo{
			Filename: a.Filename,
			Size:     a.Size,
			Created:  a.Created,
			Modified: a.Modified,
		})
	}
	return infos
}
