// Package categorizer predicts a transaction's category from its free-text
// note with a multinomial Naive Bayes model over unigrams and bigrams, and
// enriches new transactions with the prediction and an anomaly score.
package categorizer

import (
	"context"
	"fmt"
	"time"

	"fjacquet/spend-intel/internal/artifacterror"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
	"fjacquet/spend-intel/internal/source"
	"fjacquet/spend-intel/internal/textutils"

	"github.com/google/uuid"
)

// Reasons a training run can end without writing an artifact.
const (
	SkipReasonInsufficientRows = "insufficient_rows"
	SkipReasonTooFewClasses    = "too_few_classes"
	SkipReasonEmptyVocabulary  = "empty_vocabulary"
)

// TrainResult reports what a training run saw and produced.
type TrainResult = models.TrainingStats

// TrainerConfig holds the training thresholds and model hyperparameters.
type TrainerConfig struct {
	MinRows    int
	MinClasses int
	MinDF      int
	NgramMin   int
	NgramMax   int
	Alpha      float64
}

// DefaultTrainerConfig returns the standard training settings.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		MinRows:    10,
		MinClasses: 2,
		MinDF:      2,
		NgramMin:   1,
		NgramMax:   2,
		Alpha:      1.0,
	}
}

// Trainer fits the category classifier over the full transaction history.
type Trainer struct {
	source   source.TransactionSource
	writer   ClassifierWriter
	config   TrainerConfig
	logger   logging.Logger
	newRunID func() string
}

// NewTrainer creates a Trainer.
func NewTrainer(src source.TransactionSource, writer ClassifierWriter, config TrainerConfig, logger logging.Logger) *Trainer {
	return &Trainer{
		source:   src,
		writer:   writer,
		config:   config,
		logger:   logging.OrDefault(logger),
		newRunID: uuid.NewString,
	}
}

// Train reads every EXPENSE transaction with a note and a category, fits the
// classifier and writes it. Too little data is not an error: the run is
// logged and skipped, and any previous artifact stays in place. Errors are
// returned only for source read and artifact write failures.
func (t *Trainer) Train(ctx context.Context) (TrainResult, error) {
	result := TrainResult{RunID: t.newRunID()}
	logger := t.logger.WithFields(
		logging.F(logging.FieldRunID, result.RunID),
		logging.F(logging.FieldJob, "train"))
	start := time.Now()

	txs, err := t.source.Transactions(ctx)
	if err != nil {
		return result, &artifacterror.SourceError{Source: t.source.Name(), Err: err}
	}

	var texts []string
	var labels []string
	for _, tx := range txs {
		if !tx.IsExpense() || tx.Note == "" || !tx.HasCategory() {
			continue
		}
		result.Rows++

		cleaned := textutils.Normalize(tx.Note)
		if cleaned == "" {
			continue
		}
		texts = append(texts, cleaned)
		labels = append(labels, tx.CategoryID)
	}
	result.Used = len(texts)

	if result.Rows < t.config.MinRows {
		return t.skip(logger, result, SkipReasonInsufficientRows,
			fmt.Sprintf("Not enough data to train model (need at least %d samples)", t.config.MinRows))
	}

	classes := make(map[string]struct{})
	for _, l := range labels {
		classes[l] = struct{}{}
	}
	result.Classes = len(classes)
	if result.Classes < t.config.MinClasses {
		return t.skip(logger, result, SkipReasonTooFewClasses,
			fmt.Sprintf("Need at least %d categories to train classifier", t.config.MinClasses))
	}

	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = analyze(text, t.config.NgramMin, t.config.NgramMax)
	}
	vocab := buildVocabulary(docs, t.config.MinDF)
	result.VocabularySize = len(vocab)
	if len(vocab) == 0 {
		return t.skip(logger, result, SkipReasonEmptyVocabulary,
			"No n-gram occurs in enough notes to build a vocabulary")
	}

	vectors := make([]termCounts, len(docs))
	for i, grams := range docs {
		vectors[i] = vectorize(grams, vocab)
	}
	artifact := fitNaiveBayes(vectors, labels, vocab, t.config.Alpha, t.config.NgramMin, t.config.NgramMax)

	if err := t.writer.SaveClassifier(ctx, artifact); err != nil {
		return result, err
	}
	result.Written = true

	logger.Info("Classifier trained",
		logging.F(logging.FieldCount, result.Used),
		logging.F("classes", result.Classes),
		logging.F("vocabulary_size", result.VocabularySize),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	result.LogSummary(logger)
	return result, nil
}

func (t *Trainer) skip(logger logging.Logger, result TrainResult, reason, msg string) (TrainResult, error) {
	result.SkipReason = reason
	logger.Warn(msg,
		logging.F(logging.FieldReason, reason),
		logging.F("rows", result.Rows),
		logging.F("classes", result.Classes))
	result.LogSummary(logger)
	return result, nil
}
