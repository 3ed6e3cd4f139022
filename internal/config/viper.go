// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPEND_ANOMALY_THRESHOLD.
const EnvPrefix = "SPEND"

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Data       DataConfig       `mapstructure:"data" yaml:"data"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts" yaml:"artifacts"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Anomaly    AnomalyConfig    `mapstructure:"anomaly" yaml:"anomaly"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" yaml:"schedule"`
}

// LogConfig controls the logrus adapter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DataConfig points at the historical transaction set.
type DataConfig struct {
	Source     string `mapstructure:"source" yaml:"source"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	CSVPath    string `mapstructure:"csv_path" yaml:"csv_path"`
}

// ArtifactsConfig selects where trained artifacts are persisted.
type ArtifactsConfig struct {
	Backend         string `mapstructure:"backend" yaml:"backend"`
	Directory       string `mapstructure:"directory" yaml:"directory"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"-"`
	ClassifierName  string `mapstructure:"classifier_name" yaml:"classifier_name"`
	BaselinesName   string `mapstructure:"baselines_name" yaml:"baselines_name"`
}

// ClassifierConfig holds the training thresholds of the note classifier.
type ClassifierConfig struct {
	MinRows    int     `mapstructure:"min_rows" yaml:"min_rows"`
	MinClasses int     `mapstructure:"min_classes" yaml:"min_classes"`
	MinDF      int     `mapstructure:"min_df" yaml:"min_df"`
	NgramMin   int     `mapstructure:"ngram_min" yaml:"ngram_min"`
	NgramMax   int     `mapstructure:"ngram_max" yaml:"ngram_max"`
	Alpha      float64 `mapstructure:"alpha" yaml:"alpha"`
}

// AnomalyConfig holds the baseline window and scoring policy.
type AnomalyConfig struct {
	RecencyMonths int     `mapstructure:"recency_months" yaml:"recency_months"`
	MinSamples    int     `mapstructure:"min_samples" yaml:"min_samples"`
	Threshold     float64 `mapstructure:"threshold" yaml:"threshold"`
}

// ScheduleConfig holds cron expressions for the batch jobs. An empty
// expression disables that job.
type ScheduleConfig struct {
	Train     string `mapstructure:"train" yaml:"train"`
	Recompute string `mapstructure:"recompute" yaml:"recompute"`
	Timezone  string `mapstructure:"timezone" yaml:"timezone"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile is InitializeConfig with an explicit config file.
// An empty path falls back to the standard search locations.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.spend-intel")
		v.AddConfigPath(".spend-intel")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.BindEnv("artifacts.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		return nil, fmt.Errorf("failed to bind GOOGLE_APPLICATION_CREDENTIALS: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.source", "sqlite")
	v.SetDefault("data.sqlite_path", "data/finance.db")
	v.SetDefault("data.csv_path", "data/transactions.csv")

	v.SetDefault("artifacts.backend", "file")
	v.SetDefault("artifacts.directory", "models")
	v.SetDefault("artifacts.bucket", "")
	v.SetDefault("artifacts.prefix", "")
	v.SetDefault("artifacts.credentials_file", "")
	v.SetDefault("artifacts.classifier_name", "expense_nb.yaml")
	v.SetDefault("artifacts.baselines_name", "anomaly_stats.yaml")

	v.SetDefault("classifier.min_rows", 10)
	v.SetDefault("classifier.min_classes", 2)
	v.SetDefault("classifier.min_df", 2)
	v.SetDefault("classifier.ngram_min", 1)
	v.SetDefault("classifier.ngram_max", 2)
	v.SetDefault("classifier.alpha", 1.0)

	v.SetDefault("anomaly.recency_months", 3)
	v.SetDefault("anomaly.min_samples", 5)
	v.SetDefault("anomaly.threshold", 3.0)

	v.SetDefault("schedule.train", "0 3 * * *")
	v.SetDefault("schedule.recompute", "30 3 * * *")
	v.SetDefault("schedule.timezone", "UTC")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Data.Source {
	case "sqlite":
		if config.Data.SQLitePath == "" {
			return fmt.Errorf("data.sqlite_path required when data.source is sqlite")
		}
	case "csv":
		if config.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path required when data.source is csv")
		}
	default:
		return fmt.Errorf("invalid data source: %s (must be 'sqlite' or 'csv')", config.Data.Source)
	}

	switch config.Artifacts.Backend {
	case "file":
		if config.Artifacts.Directory == "" {
			return fmt.Errorf("artifacts.directory required for the file backend")
		}
	case "gcs":
		if config.Artifacts.Bucket == "" {
			return fmt.Errorf("artifacts.bucket required for the gcs backend")
		}
	default:
		return fmt.Errorf("invalid artifacts backend: %s (must be 'file' or 'gcs')", config.Artifacts.Backend)
	}
	if config.Artifacts.ClassifierName == "" || config.Artifacts.BaselinesName == "" {
		return fmt.Errorf("artifact names must not be empty")
	}
	if config.Artifacts.ClassifierName == config.Artifacts.BaselinesName {
		return fmt.Errorf("classifier and baselines artifacts must have distinct names")
	}

	c := config.Classifier
	if c.MinRows < 1 {
		return fmt.Errorf("classifier.min_rows must be at least 1, got: %d", c.MinRows)
	}
	if c.MinClasses < 2 {
		return fmt.Errorf("classifier.min_classes must be at least 2, got: %d", c.MinClasses)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("classifier.min_df must be at least 1, got: %d", c.MinDF)
	}
	if c.NgramMin < 1 || c.NgramMax < c.NgramMin {
		return fmt.Errorf("classifier n-gram range invalid: %d-%d", c.NgramMin, c.NgramMax)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("classifier.alpha must be positive, got: %f", c.Alpha)
	}

	a := config.Anomaly
	if a.RecencyMonths < 0 {
		return fmt.Errorf("anomaly.recency_months must not be negative, got: %d", a.RecencyMonths)
	}
	if a.MinSamples < 2 {
		return fmt.Errorf("anomaly.min_samples must be at least 2, got: %d", a.MinSamples)
	}
	if a.Threshold <= 0 {
		return fmt.Errorf("anomaly.threshold must be positive, got: %f", a.Threshold)
	}

	for name, expr := range map[string]string{"train": config.Schedule.Train, "recompute": config.Schedule.Recompute} {
		if expr == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("schedule.%s is not a valid cron expression: %w", name, err)
		}
	}

	return nil
}
