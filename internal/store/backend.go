package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/spend-intel/internal/fileutils"
	"fjacquet/spend-intel/internal/models"
)

// ErrArtifactNotFound is returned by a Backend when the named artifact has
// never been written. It is the benign "no model yet" state.
var ErrArtifactNotFound = errors.New("artifact not found")

// Backend persists raw artifact bytes by name. Write must replace the
// artifact atomically: readers see either the old bytes or the new ones.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Location(name string) string
	Name() string
}

// FileBackend stores artifacts as files in a local directory.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates a backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

// Name identifies the backend in logs.
func (b *FileBackend) Name() string {
	return "file"
}

// Location returns the file path for an artifact.
func (b *FileBackend) Location(name string) string {
	return filepath.Join(b.Dir, name)
}

// Read returns the artifact bytes, or ErrArtifactNotFound when the file is absent.
func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Location(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("error reading artifact file: %w", err)
	}
	return data, nil
}

// Write stores data through a temporary file in the same directory and
// renames it over the previous artifact.
func (b *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutils.WriteFileAtomic(b.Location(name), data, models.PermissionArtifactFile)
}
