package models

import (
	"fmt"
	"math"
)

// CategoryBaseline is the amount distribution of one user's expenses in one
// category. Only baselines with Count >= the minimum sample size and Std > 0
// are ever persisted.
type CategoryBaseline struct {
	Mean  float64 `yaml:"mean" json:"mean"`
	Std   float64 `yaml:"std" json:"std"`
	Count int     `yaml:"count" json:"count"`
}

// BaselineArtifact is the persisted set of baselines: user id, then category id.
type BaselineArtifact struct {
	SchemaVersion int                                    `yaml:"schema_version"`
	Kind          string                                 `yaml:"kind"`
	Users         map[string]map[string]CategoryBaseline `yaml:"users"`
}

// NewBaselineArtifact returns an empty artifact with the current schema header.
func NewBaselineArtifact() *BaselineArtifact {
	return &BaselineArtifact{
		SchemaVersion: BaselineSchemaVersion,
		Kind:          ArtifactKindBaselines,
		Users:         make(map[string]map[string]CategoryBaseline),
	}
}

// Put records a baseline, creating the user's map on first use.
func (a *BaselineArtifact) Put(userID, categoryID string, b CategoryBaseline) {
	if a.Users == nil {
		a.Users = make(map[string]map[string]CategoryBaseline)
	}
	cats, ok := a.Users[userID]
	if !ok {
		cats = make(map[string]CategoryBaseline)
		a.Users[userID] = cats
	}
	cats[categoryID] = b
}

// Lookup returns the baseline for a (user, category) pair.
func (a *BaselineArtifact) Lookup(userID, categoryID string) (CategoryBaseline, bool) {
	if a == nil {
		return CategoryBaseline{}, false
	}
	cats, ok := a.Users[userID]
	if !ok {
		return CategoryBaseline{}, false
	}
	b, ok := cats[categoryID]
	return b, ok
}

// Len returns the number of baselines across all users.
func (a *BaselineArtifact) Len() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, cats := range a.Users {
		n += len(cats)
	}
	return n
}

// Validate checks the decoded artifact against the schema this build expects.
func (a *BaselineArtifact) Validate() error {
	if a.Kind != ArtifactKindBaselines {
		return fmt.Errorf("unexpected artifact kind %q", a.Kind)
	}
	if a.SchemaVersion != BaselineSchemaVersion {
		return fmt.Errorf("unsupported schema version %d", a.SchemaVersion)
	}
	for userID, cats := range a.Users {
		for categoryID, b := range cats {
			if math.IsNaN(b.Mean) || math.IsInf(b.Mean, 0) || math.IsNaN(b.Std) || math.IsInf(b.Std, 0) {
				return fmt.Errorf("baseline %s/%s has non-finite statistics", userID, categoryID)
			}
			if b.Count < 1 {
				return fmt.Errorf("baseline %s/%s has count %d", userID, categoryID, b.Count)
			}
		}
	}
	return nil
}

// ClassifierArtifact is a fitted multinomial Naive Bayes model over a
// unigram/bigram vocabulary.
//
// FeatureCounts[c][i] is the total count of vocabulary term i over notes of
// class Classes[c]. ClassLogPrior and FeatureLogProb are derived from the
// counts at fit time and persisted so serving never refits.
type ClassifierArtifact struct {
	SchemaVersion  int            `yaml:"schema_version"`
	Kind           string         `yaml:"kind"`
	NgramMin       int            `yaml:"ngram_min"`
	NgramMax       int            `yaml:"ngram_max"`
	Alpha          float64        `yaml:"alpha"`
	Vocabulary     map[string]int `yaml:"vocabulary"`
	Classes        []string       `yaml:"classes"`
	ClassCounts    []int          `yaml:"class_counts"`
	FeatureCounts  [][]int        `yaml:"feature_counts"`
	ClassLogPrior  []float64      `yaml:"class_log_prior"`
	FeatureLogProb [][]float64    `yaml:"feature_log_prob"`
}

// Validate checks internal consistency so a trainer/scorer mismatch surfaces
// as a load error rather than an index panic at serve time.
func (a *ClassifierArtifact) Validate() error {
	if a.Kind != ArtifactKindClassifier {
		return fmt.Errorf("unexpected artifact kind %q", a.Kind)
	}
	if a.SchemaVersion != ClassifierSchemaVersion {
		return fmt.Errorf("unsupported schema version %d", a.SchemaVersion)
	}
	if a.NgramMin < 1 || a.NgramMax < a.NgramMin {
		return fmt.Errorf("invalid n-gram range %d-%d", a.NgramMin, a.NgramMax)
	}
	nClasses := len(a.Classes)
	if nClasses < 2 {
		return fmt.Errorf("classifier has %d classes", nClasses)
	}
	if len(a.ClassCounts) != nClasses || len(a.ClassLogPrior) != nClasses ||
		len(a.FeatureCounts) != nClasses || len(a.FeatureLogProb) != nClasses {
		return fmt.Errorf("per-class tables do not match %d classes", nClasses)
	}

	nTerms := len(a.Vocabulary)
	seen := make([]bool, nTerms)
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= nTerms || seen[idx] {
			return fmt.Errorf("vocabulary index %d for %q is out of range or duplicated", idx, term)
		}
		seen[idx] = true
	}
	for c := 0; c < nClasses; c++ {
		if len(a.FeatureCounts[c]) != nTerms || len(a.FeatureLogProb[c]) != nTerms {
			return fmt.Errorf("class %q feature tables do not match vocabulary size %d", a.Classes[c], nTerms)
		}
	}
	return nil
}
