package model

import "time"

// Artifact represents one persisted image in the artifact directory.
type Artifact struct {
	Filename string    `json:"filename"`
	Path     string    `json:"-"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}
