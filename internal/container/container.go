// Package container provides dependency injection for spend-intel.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"sync"

	"fjacquet/spend-intel/internal/anomaly"
	"fjacquet/spend-intel/internal/categorizer"
	"fjacquet/spend-intel/internal/config"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/scheduler"
	"fjacquet/spend-intel/internal/source"
	"fjacquet/spend-intel/internal/storage"
	"fjacquet/spend-intel/internal/store"
)

// Job names used by the scheduler and in logs.
const (
	JobTrain     = "train"
	JobRecompute = "recompute"
)

// Container holds all application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	backend   store.Backend
	artifacts *store.ArtifactStore
	source    source.TransactionSource

	trainer     *categorizer.Trainer
	predictor   *categorizer.Predictor
	builder     *anomaly.Builder
	scorer      *anomaly.Scorer
	categorizer *categorizer.Categorizer

	repoMu     sync.Mutex
	repository *storage.SQLiteRepository
	gcs        *store.GCSBackend
}

// NewContainer creates and wires all application dependencies from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	logging.SetDefault(logger)

	var backend store.Backend
	var gcs *store.GCSBackend
	switch cfg.Artifacts.Backend {
	case "gcs":
		b, err := store.NewGCSBackend(ctx, cfg.Artifacts.Bucket, cfg.Artifacts.Prefix, cfg.Artifacts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS artifact backend: %w", err)
		}
		backend, gcs = b, b
	case "file", "":
		backend = store.NewFileBackend(cfg.Artifacts.Directory)
	default:
		return nil, fmt.Errorf("unknown artifacts backend: %s", cfg.Artifacts.Backend)
	}

	c := &Container{logger: logger, config: cfg, backend: backend, gcs: gcs}

	switch cfg.Data.Source {
	case "sqlite", "":
		repo, err := storage.NewSQLiteRepository(cfg.Data.SQLitePath, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to open transaction database: %w", err)
		}
		c.repository = repo
		c.source = repo
	case "csv":
		c.source = source.NewCSVSource(cfg.Data.CSVPath, logger)
	default:
		_ = c.Close()
		return nil, fmt.Errorf("unknown data source: %s", cfg.Data.Source)
	}

	c.wire()

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldBackend, backend.Name()),
		logging.F(logging.FieldSource, c.source.Name()))
	return c, nil
}

// NewContainerWith wires a container around an explicit backend and source.
// repo may be nil; Repository then opens data.sqlite_path on demand.
func NewContainerWith(cfg *config.Config, logger logging.Logger, backend store.Backend, src source.TransactionSource, repo *storage.SQLiteRepository) *Container {
	c := &Container{
		logger:     logging.OrDefault(logger),
		config:     cfg,
		backend:    backend,
		source:     src,
		repository: repo,
	}
	c.wire()
	return c
}

func (c *Container) wire() {
	cfg := c.config
	c.artifacts = store.NewArtifactStore(c.backend, cfg.Artifacts.ClassifierName, cfg.Artifacts.BaselinesName, c.logger)

	c.trainer = categorizer.NewTrainer(c.source, c.artifacts, categorizer.TrainerConfig{
		MinRows:    cfg.Classifier.MinRows,
		MinClasses: cfg.Classifier.MinClasses,
		MinDF:      cfg.Classifier.MinDF,
		NgramMin:   cfg.Classifier.NgramMin,
		NgramMax:   cfg.Classifier.NgramMax,
		Alpha:      cfg.Classifier.Alpha,
	}, c.logger)
	c.predictor = categorizer.NewPredictor(c.artifacts, c.logger)

	c.builder = anomaly.NewBuilder(c.source, c.artifacts, anomaly.BuilderConfig{
		RecencyMonths: cfg.Anomaly.RecencyMonths,
		MinSamples:    cfg.Anomaly.MinSamples,
	}, c.logger)
	c.scorer = anomaly.NewScorer(c.artifacts, cfg.Anomaly.Threshold, c.logger)

	var lister categorizer.CategoryLister
	if c.repository != nil {
		lister = c.repository
	}
	c.categorizer = categorizer.NewCategorizer(c.predictor, c.scorer, lister, c.logger)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetArtifactStore returns the model artifact store.
func (c *Container) GetArtifactStore() *store.ArtifactStore {
	return c.artifacts
}

// GetSource returns the transaction source used by the batch jobs.
func (c *Container) GetSource() source.TransactionSource {
	return c.source
}

// GetTrainer returns the classifier trainer.
func (c *Container) GetTrainer() *categorizer.Trainer {
	return c.trainer
}

// GetPredictor returns the category predictor.
func (c *Container) GetPredictor() *categorizer.Predictor {
	return c.predictor
}

// GetBuilder returns the anomaly baseline builder.
func (c *Container) GetBuilder() *anomaly.Builder {
	return c.builder
}

// GetScorer returns the anomaly scorer.
func (c *Container) GetScorer() *anomaly.Scorer {
	return c.scorer
}

// GetCategorizer returns the transaction enricher.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// Repository returns the SQLite repository, opening data.sqlite_path when the
// configured transaction source is not SQLite.
func (c *Container) Repository() (*storage.SQLiteRepository, error) {
	c.repoMu.Lock()
	defer c.repoMu.Unlock()

	if c.repository != nil {
		return c.repository, nil
	}
	repo, err := storage.NewSQLiteRepository(c.config.Data.SQLitePath, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.repository = repo
	return repo, nil
}

// NewScheduler returns a scheduler with the train and recompute jobs
// registered for every non-empty schedule. Each successful run clears the
// artifact cache so the next query sees the new model.
func (c *Container) NewScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(c.config.Schedule.Timezone, c.logger)

	if spec := c.config.Schedule.Train; spec != "" {
		if err := s.Add(JobTrain, spec, func(ctx context.Context) error {
			result, err := c.trainer.Train(ctx)
			if err == nil && result.Written {
				c.artifacts.Reload()
			}
			return err
		}); err != nil {
			return nil, err
		}
	}

	if spec := c.config.Schedule.Recompute; spec != "" {
		if err := s.Add(JobRecompute, spec, func(ctx context.Context) error {
			_, err := c.builder.Recompute(ctx)
			if err == nil {
				c.artifacts.Reload()
			}
			return err
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close releases the database and storage clients.
func (c *Container) Close() error {
	var firstErr error
	c.repoMu.Lock()
	if c.repository != nil {
		if err := c.repository.Close(); err != nil {
			firstErr = err
		}
		c.repository = nil
	}
	c.repoMu.Unlock()

	if c.gcs != nil {
		if err := c.gcs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.logger.Debug("Container closed")
	return firstErr
}
