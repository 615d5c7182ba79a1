// Package loader reads raw configuration maps from TOML files and the
// environment. Typed decoding and defaults live in package config.
package loader

import (
	"io/fs"
	"os"
)

// Loader is implemented by every configuration source.
type Loader interface {
	// Load returns the source as a nested map.
	// A missing source yields nil, nil.
	Load() (map[string]any, error)
}

// FileSystem is the file access a loader needs. Tests substitute fstest.MapFS.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FSAdapter exposes an fs.FS as a FileSystem.
type FSAdapter struct {
	FS fs.FS
}

// ReadFile implements FileSystem.
func (a FSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(a.FS, path)
}
