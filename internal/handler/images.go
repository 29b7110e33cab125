package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"depthcapture/internal/dto"
	"depthcapture/internal/logger"
	"depthcapture/internal/service/persistence"
	"depthcapture/internal/service/storage"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// ListImagesHandler returns every stored artifact, newest first.
func ListImagesHandler(svc *persistence.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := svc.ListArtifacts()
		if err != nil {
			writeError(w, logger, http.StatusInternalServerError, "Failed to list images")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.ImagesResponse{
			Success: true,
			Count:   listing.Count,
			Images:  dto.NewImageInfos(listing.Images),
		})
	}
}

// ImageStatsHandler returns capture journal statistics.
func ImageStatsHandler(svc *persistence.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats()
		if err != nil {
			logger.Error("Error getting capture stats: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to get stats")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.StatsResponse{Success: true, Stats: stats})
	}
}

// RecentImagesHandler returns the latest journal rows; ?limit= bounds the count.
func RecentImagesHandler(svc *persistence.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), defaultRecentLimit)
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		captures, err := svc.Recent(limit)
		if err != nil {
			logger.Error("Error getting recent captures: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to get recent captures")
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.RecentResponse{
			Success:  true,
			Count:    len(captures),
			Captures: captures,
		})
	}
}

// ViewImageHandler serves one artifact named by ?image=.
func ViewImageHandler(svc *persistence.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("image")
		if name == "" {
			writeError(w, logger, http.StatusBadRequest, "Image name required")
			return
		}

		file, err := svc.Store().Open(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				writeError(w, logger, http.StatusNotFound, "Image not found")
				return
			}
			if errors.Is(err, storage.ErrInvalidName) {
				writeError(w, logger, http.StatusBadRequest, "Invalid image name")
				return
			}
			logger.Error("Error opening image %s: %v", name, err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to read image")
			return
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			logger.Error("Error reading image %s: %v", name, err)
			writeError(w, logger, http.StatusInternalServerError, "Failed to read image")
			return
		}

		rec, err := svc.Lookup(name)
		if err != nil {
			logger.Warning("Journal lookup for %s failed: %v", name, err)
		}
		if rec != nil {
			w.Header().Set("X-Checksum", rec.Checksum)
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, name, info.ModTime(), file)
	}
}

// HealthHandler answers the liveness probe.
func HealthHandler(svc *persistence.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := svc.Health()
		writeJSON(w, logger, http.StatusOK, dto.HealthResponse{
			Status:       h.Status,
			Message:      h.Message,
			DataImageDir: h.DataImageDir,
		})
	}
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
