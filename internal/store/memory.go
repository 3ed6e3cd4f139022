package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps artifacts in memory. It is used by tests and by
// dry runs that must not touch the configured backend.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	reads   map[string]int

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string][]byte),
		reads:   make(map[string]int),
	}
}

// Name identifies the backend in logs.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// Location returns a pseudo URI for an artifact.
func (b *MemoryBackend) Location(name string) string {
	return "memory://" + name
}

// Read returns a copy of the stored bytes.
func (b *MemoryBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads[name]++
	data, ok := b.objects[name]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write replaces the stored bytes.
func (b *MemoryBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.objects[name] = append([]byte(nil), data...)
	return nil
}

// Put stores raw bytes directly, bypassing encoding.
func (b *MemoryBackend) Put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = append([]byte(nil), data...)
}

// Get returns the raw bytes of an artifact.
func (b *MemoryBackend) Get(name string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[name]
	return data, ok
}

// Reads returns how many times name has been read.
func (b *MemoryBackend) Reads(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reads[name]
}
