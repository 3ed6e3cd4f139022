package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSBackend stores artifacts as objects in a Google Cloud Storage bucket.
// An object only becomes visible once its writer closes successfully, so a
// failed upload never replaces the previous artifact.
type GCSBackend struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSBackend creates a client for bucket. credentialsFile may be empty to
// use application default credentials.
func NewGCSBackend(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBackend{client: client, bucket: bucket, prefix: prefix}, nil
}

// Name identifies the backend in logs.
func (b *GCSBackend) Name() string {
	return "gcs"
}

func (b *GCSBackend) objectName(name string) string {
	if b.prefix == "" {
		return name
	}
	return path.Join(b.prefix, name)
}

// Location returns the gs:// URI of an artifact.
func (b *GCSBackend) Location(name string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, b.objectName(name))
}

// Read downloads an artifact, mapping a missing object to ErrArtifactNotFound.
func (b *GCSBackend) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.client.Bucket(b.bucket).Object(b.objectName(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// Write uploads an artifact.
func (b *GCSBackend) Write(ctx context.Context, name string, data []byte) error {
	w := b.client.Bucket(b.bucket).Object(b.objectName(name)).NewWriter(ctx)
	w.ContentType = "application/yaml"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize GCS object: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}
