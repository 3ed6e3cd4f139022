package models

import (
	"fjacquet/spend-intel/internal/logging"
)

// TrainingStats summarises one classifier training run.
type TrainingStats struct {
	RunID          string
	Rows           int // qualifying EXPENSE rows with a note
	Used           int // rows whose note survived normalization
	Classes        int
	VocabularySize int
	Written        bool
	SkipReason     string
}

// LogSummary logs a summary of the training run.
func (s TrainingStats) LogSummary(logger logging.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Classifier training summary",
		logging.Field{Key: logging.FieldRunID, Value: s.RunID},
		logging.Field{Key: "rows", Value: s.Rows},
		logging.Field{Key: "used", Value: s.Used},
		logging.Field{Key: "classes", Value: s.Classes},
		logging.Field{Key: "vocabulary_size", Value: s.VocabularySize},
		logging.Field{Key: "written", Value: s.Written},
		logging.Field{Key: logging.FieldReason, Value: s.SkipReason},
	)
}

// BaselineStats summarises one baseline recompute run.
type BaselineStats struct {
	RunID               string
	Users               int
	Pairs               int // (user, category) pairs considered
	Written             int
	RecentWindow        int // baselines built from the recency window
	FullHistory         int // baselines built from the all-time fallback
	SkippedInsufficient int
	SkippedZeroVariance int
}

// Skipped returns the number of pairs that produced no baseline.
func (s BaselineStats) Skipped() int {
	return s.SkippedInsufficient + s.SkippedZeroVariance
}

// LogSummary logs a summary of the recompute run.
func (s BaselineStats) LogSummary(logger logging.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Anomaly baseline summary",
		logging.Field{Key: logging.FieldRunID, Value: s.RunID},
		logging.Field{Key: "users", Value: s.Users},
		logging.Field{Key: "pairs", Value: s.Pairs},
		logging.Field{Key: "written", Value: s.Written},
		logging.Field{Key: "recent_window", Value: s.RecentWindow},
		logging.Field{Key: "full_history", Value: s.FullHistory},
		logging.Field{Key: "skipped_insufficient", Value: s.SkippedInsufficient},
		logging.Field{Key: "skipped_zero_variance", Value: s.SkippedZeroVariance},
	)
}
