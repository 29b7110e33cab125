package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidName is wrapped by a StorageError when a filename would leave the
// store root.
var ErrInvalidName = errors.New("invalid artifact name")

// StorageError reports a filesystem failure on write, read or list.
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
