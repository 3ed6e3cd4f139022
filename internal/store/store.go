// Package store persists the classifier and anomaly baseline artifacts as
// versioned YAML documents and serves them from a lazily loaded,
// process-wide cache.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/spend-intel/internal/artifacterror"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"gopkg.in/yaml.v3"
)

// validatable is implemented by every artifact type.
type validatable interface {
	Validate() error
}

// ArtifactStore reads and writes the two model artifacts through a Backend.
// Writers (training, recompute) go straight to the backend; readers go
// through a cache that is filled on first use and only refreshed by Reload.
type ArtifactStore struct {
	backend        Backend
	classifierName string
	baselinesName  string
	logger         logging.Logger

	classifier lazy[models.ClassifierArtifact]
	baselines  lazy[models.BaselineArtifact]
}

// NewArtifactStore creates a store over backend using the given artifact names.
func NewArtifactStore(backend Backend, classifierName, baselinesName string, logger logging.Logger) *ArtifactStore {
	return &ArtifactStore{
		backend:        backend,
		classifierName: classifierName,
		baselinesName:  baselinesName,
		logger:         logging.OrDefault(logger),
	}
}

// Backend returns the underlying storage backend.
func (s *ArtifactStore) Backend() Backend {
	return s.backend
}

// ClassifierLocation returns where the classifier artifact lives.
func (s *ArtifactStore) ClassifierLocation() string {
	return s.backend.Location(s.classifierName)
}

// BaselinesLocation returns where the baseline artifact lives.
func (s *ArtifactStore) BaselinesLocation() string {
	return s.backend.Location(s.baselinesName)
}

// SaveClassifier validates and atomically writes a classifier artifact.
// The serving cache is not touched; call Reload to pick the new model up.
func (s *ArtifactStore) SaveClassifier(ctx context.Context, artifact *models.ClassifierArtifact) error {
	return save(ctx, s, s.classifierName, models.ArtifactKindClassifier, artifact)
}

// SaveBaselines validates and atomically writes a baseline artifact.
func (s *ArtifactStore) SaveBaselines(ctx context.Context, artifact *models.BaselineArtifact) error {
	return save(ctx, s, s.baselinesName, models.ArtifactKindBaselines, artifact)
}

// LoadClassifier reads the classifier artifact from the backend, bypassing
// the cache. It returns ErrArtifactNotFound when none has been written.
func (s *ArtifactStore) LoadClassifier(ctx context.Context) (*models.ClassifierArtifact, error) {
	return load[models.ClassifierArtifact](ctx, s, s.classifierName, models.ArtifactKindClassifier)
}

// LoadBaselines reads the baseline artifact from the backend, bypassing the cache.
func (s *ArtifactStore) LoadBaselines(ctx context.Context) (*models.BaselineArtifact, error) {
	return load[models.BaselineArtifact](ctx, s, s.baselinesName, models.ArtifactKindBaselines)
}

// Classifier returns the cached classifier artifact, loading it on first use.
// A missing artifact yields (nil, nil) and stays cached as absent until Reload.
// Cancelling ctx abandons the wait but not a load other callers share.
func (s *ArtifactStore) Classifier(ctx context.Context) (*models.ClassifierArtifact, error) {
	return s.classifier.get(ctx, func(ctx context.Context) (*models.ClassifierArtifact, error) {
		return cachedLoad(s, s.classifierName, func() (*models.ClassifierArtifact, error) {
			return s.LoadClassifier(ctx)
		})
	})
}

// Baselines returns the cached baseline artifact, loading it on first use.
func (s *ArtifactStore) Baselines(ctx context.Context) (*models.BaselineArtifact, error) {
	return s.baselines.get(ctx, func(ctx context.Context) (*models.BaselineArtifact, error) {
		return cachedLoad(s, s.baselinesName, func() (*models.BaselineArtifact, error) {
			return s.LoadBaselines(ctx)
		})
	})
}

// Reload drops both cached artifacts. The next access reads them again.
func (s *ArtifactStore) Reload() {
	s.classifier.reset()
	s.baselines.reset()
	s.logger.Info("Artifact cache cleared")
}

// Warm loads both artifacts into the cache. Missing artifacts are fine;
// a corrupt one is returned as an error.
func (s *ArtifactStore) Warm(ctx context.Context) error {
	if _, err := s.Classifier(ctx); err != nil {
		return err
	}
	if _, err := s.Baselines(ctx); err != nil {
		return err
	}
	return nil
}

func cachedLoad[T any](s *ArtifactStore, name string, fn func() (*T, error)) (*T, error) {
	value, err := fn()
	if errors.Is(err, ErrArtifactNotFound) {
		s.logger.Warn("Artifact not found, serving without it",
			logging.F(logging.FieldArtifact, name),
			logging.F(logging.FieldPath, s.backend.Location(name)))
		return nil, nil
	}
	return value, err
}

func save(ctx context.Context, s *ArtifactStore, name, kind string, artifact validatable) error {
	location := s.backend.Location(name)
	if err := artifact.Validate(); err != nil {
		return &artifacterror.WriteError{Path: location, Kind: kind, Err: err}
	}

	data, err := Encode(artifact)
	if err != nil {
		return &artifacterror.WriteError{Path: location, Kind: kind, Err: err}
	}

	start := time.Now()
	if err := s.backend.Write(ctx, name, data); err != nil {
		return &artifacterror.WriteError{Path: location, Kind: kind, Err: err}
	}

	s.logger.Info("Artifact written",
		logging.F(logging.FieldArtifact, kind),
		logging.F(logging.FieldPath, location),
		logging.F(logging.FieldBackend, s.backend.Name()),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return nil
}

func load[T any](ctx context.Context, s *ArtifactStore, name, kind string) (*T, error) {
	location := s.backend.Location(name)
	data, err := s.backend.Read(ctx, name)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("read %s artifact: %w", kind, err)
	}

	artifact := new(T)
	if err := Decode(data, artifact); err != nil {
		s.logger.WithError(err).Error("Artifact is corrupt",
			logging.F(logging.FieldArtifact, kind),
			logging.F(logging.FieldPath, location))
		return nil, &artifacterror.CorruptArtifactError{Path: location, Kind: kind, Err: err}
	}

	if v, ok := any(artifact).(validatable); ok {
		if err := v.Validate(); err != nil {
			s.logger.WithError(err).Error("Artifact does not match the expected schema",
				logging.F(logging.FieldArtifact, kind),
				logging.F(logging.FieldPath, location))
			return nil, &artifacterror.SchemaMismatchError{Path: location, Kind: kind, Reason: err.Error()}
		}
	}

	s.logger.Debug("Artifact loaded",
		logging.F(logging.FieldArtifact, kind),
		logging.F(logging.FieldPath, location))
	return artifact, nil
}

// Encode serializes an artifact as YAML. Map keys are emitted in sorted
// order, so equal artifacts encode to identical bytes.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a YAML artifact, rejecting unknown fields so that a document
// from a different schema fails loudly.
func Decode(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}
