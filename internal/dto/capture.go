package dto

import "time"

// EncodedCaptureRequest is the body of POST /api/capture-base64.
type EncodedCaptureRequest struct {
	ImageData string `json:"imageData"`
	Filename  string `json:"filename,omitempty"`
}

// CaptureResponse wraps the metadata of a stored artifact.
type CaptureResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// UploadInfo is returned for multipart uploads.
type UploadInfo struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	Timestamp    time.Time `json:"timestamp"`
}

// EncodedInfo is returned for encoded payloads.
type EncodedInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}
