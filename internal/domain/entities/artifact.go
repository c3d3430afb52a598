// Package entities defines core domain models and data structures.
package entities

// Artifact represents a downloaded upstream binary
type Artifact struct {
	URL      string
	Path     string // Empty when the artifact was only streamed through the hasher
	Size     int64
	Checksum string
}
