package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"depthcapture/internal/model"
)

// ArtifactStore keeps image artifacts as flat files under one root directory.
// The directory listing is the index; there is no manifest.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates a store rooted at dir. The directory is created on
// first use.
func NewArtifactStore(dir string) *ArtifactStore {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &ArtifactStore{root: dir}
}

// Root returns the absolute root directory.
func (s *ArtifactStore) Root() string {
	return s.root
}

// Path returns the absolute path an artifact name maps to.
func (s *ArtifactStore) Path(name string) string {
	return filepath.Join(s.root, name)
}

// EnsureRoot creates the root directory and its parents if absent.
func (s *ArtifactStore) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return &StorageError{Op: "mkdir", Name: s.root, Err: err}
	}
	return nil
}

// Write stores data under name, replacing any existing artifact of the same
// name. The bytes land in a temp file that is renamed into place, so readers
// see either the old file or the complete new one. Returns the stored size.
func (s *ArtifactStore) Write(name string, data []byte) (int64, error) {
	if !validName(name) {
		return 0, &StorageError{Op: "write", Name: name, Err: ErrInvalidName}
	}
	if err := s.EnsureRoot(); err != nil {
		return 0, err
	}

	tmpFile, err := os.CreateTemp(s.root, ".tmp-*"+ArtifactExt)
	if err != nil {
		return 0, &StorageError{Op: "write", Name: name, Err: err}
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return 0, &StorageError{Op: "write", Name: name, Err: err}
	}

	info, err := tmpFile.Stat()
	if err != nil {
		tmpFile.Close()
		return 0, &StorageError{Op: "write", Name: name, Err: err}
	}

	if err := tmpFile.Close(); err != nil {
		return 0, &StorageError{Op: "write", Name: name, Err: err}
	}

	// CreateTemp uses 0600; artifacts are shared with whoever serves the directory.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, &StorageError{Op: "write", Name: name, Err: err}
	}

	if err := os.Rename(tmpPath, s.Path(name)); err != nil {
		return 0, &StorageError{Op: "write", Name: name, Err: fmt.Errorf("renaming into place: %w", err)}
	}

	success = true
	return info.Size(), nil
}

// Stat returns the metadata of one stored artifact.
func (s *ArtifactStore) Stat(name string) (*model.Artifact, error) {
	if !validName(name) {
		return nil, &StorageError{Op: "stat", Name: name, Err: ErrInvalidName}
	}

	path := s.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, &StorageError{Op: "stat", Name: name, Err: err}
	}

	return &model.Artifact{
		Filename: name,
		Path:     path,
		Size:     info.Size(),
		Created:  birthTime(path, info),
		Modified: info.ModTime(),
	}, nil
}

// Open opens a stored artifact for reading. The caller closes the file.
func (s *ArtifactStore) Open(name string) (*os.File, error) {
	if !validName(name) {
		return nil, &StorageError{Op: "open", Name: name, Err: ErrInvalidName}
	}

	file, err := os.Open(s.Path(name))
	if err != nil {
		return nil, &StorageError{Op: "open", Name: name, Err: err}
	}
	return file, nil
}

// List returns every artifact in the root, newest first by creation time.
// Files that are not artifacts are skipped and left in place.
func (s *ArtifactStore) List() ([]model.Artifact, error) {
	if err := s.EnsureRoot(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Op: "list", Name: s.root, Err: err}
	}

	artifacts := make([]model.Artifact, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsArtifactName(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				// removed between ReadDir and Info
				continue
			}
			return nil, &StorageError{Op: "list", Name: e.Name(), Err: err}
		}

		path := s.Path(e.Name())
		artifacts = append(artifacts, model.Artifact{
			Filename: e.Name(),
			Path:     path,
			Size:     info.Size(),
			Created:  birthTime(path, info),
			Modified: info.ModTime(),
		})
	}

	slices.SortFunc(artifacts, func(a, b model.Artifact) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(b.Filename, a.Filename)
	})

	return artifacts, nil
}
