// Package storage defines the directory-scoped file abstraction used for record files.
package storage

import "time"

// FileInfo describes one file returned by a listing.
type FileInfo struct {
	Path      string // relative to the provider root
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for record directory operations.
type Provider interface {
	// Root returns the absolute directory the provider is bound to.
	Root() string
	// Abs resolves path (relative to root) to an absolute path inside root.
	Abs(path string) (string, error)
	// List returns every regular file directly under root whose extension
	// matches ext case-insensitively. Subdirectories are not descended.
	List(ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Exists reports whether path (relative to root) is an existing file.
	Exists(path string) bool
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}
