package categorizer

import (
	"context"

	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/textutils"
)

// Predictor answers category predictions from the cached classifier. It never
// returns errors: every failure is "no prediction".
type Predictor struct {
	models ClassifierProvider
	logger logging.Logger
}

// NewPredictor creates a Predictor over a classifier provider.
func NewPredictor(provider ClassifierProvider, logger logging.Logger) *Predictor {
	return &Predictor{models: provider, logger: logging.OrDefault(logger)}
}

// Predict returns the most probable category for note, or false when no
// classifier is available or the note carries no signal.
func (p *Predictor) Predict(ctx context.Context, note string) (string, bool) {
	return p.PredictFor(ctx, note, nil)
}

// PredictFor is Predict restricted to the allowed categories. A nil slice
// admits every category; an empty one admits none.
func (p *Predictor) PredictFor(ctx context.Context, note string, allowed []string) (label string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Category prediction failed",
				logging.F(logging.FieldError, r))
			label, ok = "", false
		}
	}()

	cleaned := textutils.Normalize(note)
	if cleaned == "" {
		return "", false
	}

	artifact, err := p.models.Classifier(ctx)
	if err != nil {
		p.logger.WithError(err).Error("Classifier unavailable, returning no prediction")
		return "", false
	}
	if artifact == nil {
		return "", false
	}

	var allowedSet map[string]struct{}
	if allowed != nil {
		allowedSet = make(map[string]struct{}, len(allowed))
		for _, a := range allowed {
			allowedSet[a] = struct{}{}
		}
	}

	x := vectorize(analyze(cleaned, artifact.NgramMin, artifact.NgramMax), artifact.Vocabulary)
	return argmax(artifact.Classes, jointLogLikelihood(artifact, x), allowedSet)
}
