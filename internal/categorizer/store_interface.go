package categorizer

import (
	"context"

	"fjacquet/spend-intel/internal/models"
)

// ClassifierProvider serves the cached classifier artifact. A nil artifact
// with a nil error means no classifier has been trained yet.
type ClassifierProvider interface {
	Classifier(ctx context.Context) (*models.ClassifierArtifact, error)
}

// ClassifierWriter persists a freshly trained classifier.
type ClassifierWriter interface {
	SaveClassifier(ctx context.Context, artifact *models.ClassifierArtifact) error
}

// CategoryLister returns the category ids a user may assign.
type CategoryLister interface {
	CategoriesForUser(ctx context.Context, userID string) ([]string, error)
}
