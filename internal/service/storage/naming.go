package storage

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// FilenamePrefix starts every generated artifact name.
	FilenamePrefix = "depth_capture_"
	// ArtifactExt is the extension of listed artifacts.
	ArtifactExt = ".png"

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// GenerateFilename returns depth_capture_<timestamp>.png for the given instant.
// The timestamp is UTC ISO8601 with millisecond precision and ':' / '.'
// replaced by '-', so lexicographic and chronological order coincide.
func GenerateFilename(now time.Time) string {
	ts := now.UTC().Format(isoMillis)
	return FilenamePrefix + timestampReplacer.Replace(ts) + ArtifactExt
}

// IsArtifactName reports whether a directory entry name is listed as an
// artifact: a visible file with a .png extension.
func IsArtifactName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ArtifactExt)
}

// validName rejects names that would escape the root directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
