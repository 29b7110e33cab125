package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"depthcapture/internal/config"
	"depthcapture/internal/dto"
	"depthcapture/internal/logger"
	"depthcapture/internal/service/persistence"
)

// uploadField is the multipart field carrying the image.
const uploadField = "image"

// CaptureUploadHandler stores the multipart "image" field under a generated
// name.
func CaptureUploadHandler(svc *persistence.Service, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)

		file, header, err := r.FormFile(uploadField)
		if err != nil {
			if tooLarge(err, logger) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "Image exceeds upload limit")
				return
			}
			writeError(w, logger, http.StatusBadRequest, "No image file provided")
			return
		}
		defer file.Close()

		res, err := svc.AcceptUpload(r.Context(), file, header.Filename)
		if err != nil {
			if errors.Is(err, persistence.ErrBadRequest) {
				writeError(w, logger, http.StatusBadRequest, "No image file provided")
				return
			}
			logger.Error("Error saving image: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to save image")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.CaptureResponse[dto.UploadInfo]{
			Success: true,
			Message: "Image saved successfully",
			Data: dto.UploadInfo{
				Filename:     res.Filename,
				OriginalName: res.OriginalName,
				Size:         res.Size,
				Path:         res.Path,
				Timestamp:    res.Timestamp,
			},
		})
	}
}

// CaptureBase64Handler stores an encoded payload sent as
// {"imageData": "...", "filename": "..."}.
func CaptureBase64Handler(svc *persistence.Service, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)

		var req dto.EncodedCaptureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if tooLarge(err, logger) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "Image exceeds upload limit")
				return
			}
			logger.Warning("Invalid capture request body: %v", err)
			writeError(w, logger, http.StatusBadRequest, "No image data provided")
			return
		}

		res, err := svc.AcceptEncodedPayload(r.Context(), req.ImageData, req.Filename)
		if err != nil {
			if errors.Is(err, persistence.ErrBadRequest) {
				writeError(w, logger, http.StatusBadRequest, "No image data provided")
				return
			}
			logger.Error("Error saving base64 image: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to save image")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.CaptureResponse[dto.EncodedInfo]{
			Success: true,
			Message: "Image saved successfully to Data_image folder",
			Data: dto.EncodedInfo{
				Filename:  res.Filename,
				Path:      res.Path,
				Timestamp: res.Timestamp,
				Size:      res.Size,
			},
		})
	}
}

func tooLarge(err error, logger *logger.Logger) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	logger.Warning("Upload rejected: body exceeds %d bytes", maxErr.Limit)
	return true
}
