package categorizer

import (
	"math"
	"sort"

	"fjacquet/spend-intel/internal/models"
)

// fitNaiveBayes fits a multinomial Naive Bayes model with additive smoothing.
// labels[i] is the class of docs[i]. Classes are stored in sorted order.
func fitNaiveBayes(docs []termCounts, labels []string, vocab map[string]int, alpha float64, ngramMin, ngramMax int) *models.ClassifierArtifact {
	classSet := make(map[string]struct{})
	for _, l := range labels {
		classSet[l] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for l := range classSet {
		classes = append(classes, l)
	}
	sort.Strings(classes)

	classIndex := make(map[string]int, len(classes))
	for i, l := range classes {
		classIndex[l] = i
	}

	nTerms := len(vocab)
	classCounts := make([]int, len(classes))
	featureCounts := make([][]int, len(classes))
	for c := range featureCounts {
		featureCounts[c] = make([]int, nTerms)
	}

	for i, doc := range docs {
		c := classIndex[labels[i]]
		classCounts[c]++
		for idx, n := range doc {
			featureCounts[c][idx] += n
		}
	}

	total := float64(len(docs))
	classLogPrior := make([]float64, len(classes))
	featureLogProb := make([][]float64, len(classes))
	for c := range classes {
		classLogPrior[c] = math.Log(float64(classCounts[c])) - math.Log(total)

		sum := 0
		for _, n := range featureCounts[c] {
			sum += n
		}
		denom := math.Log(float64(sum) + alpha*float64(nTerms))

		featureLogProb[c] = make([]float64, nTerms)
		for idx, n := range featureCounts[c] {
			featureLogProb[c][idx] = math.Log(float64(n)+alpha) - denom
		}
	}

	return &models.ClassifierArtifact{
		SchemaVersion:  models.ClassifierSchemaVersion,
		Kind:           models.ArtifactKindClassifier,
		NgramMin:       ngramMin,
		NgramMax:       ngramMax,
		Alpha:          alpha,
		Vocabulary:     vocab,
		Classes:        classes,
		ClassCounts:    classCounts,
		FeatureCounts:  featureCounts,
		ClassLogPrior:  classLogPrior,
		FeatureLogProb: featureLogProb,
	}
}

// jointLogLikelihood returns log P(c) + sum_i x_i log P(t_i | c) for every class.
func jointLogLikelihood(a *models.ClassifierArtifact, x termCounts) []float64 {
	// Sorted indices keep the floating-point sum order stable.
	indices := make([]int, 0, len(x))
	for idx := range x {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	jll := make([]float64, len(a.Classes))
	for c := range a.Classes {
		score := a.ClassLogPrior[c]
		for _, idx := range indices {
			score += float64(x[idx]) * a.FeatureLogProb[c][idx]
		}
		jll[c] = score
	}
	return jll
}

// argmax returns the class with the highest score among those allowed. Ties
// go to the lexicographically smallest label, which is the lowest index
// since classes are sorted. allowed == nil admits every class.
func argmax(classes []string, scores []float64, allowed map[string]struct{}) (string, bool) {
	best := -1
	for c, label := range classes {
		if allowed != nil {
			if _, ok := allowed[label]; !ok {
				continue
			}
		}
		if math.IsNaN(scores[c]) {
			continue
		}
		if best == -1 || scores[c] > scores[best] {
			best = c
		}
	}
	if best == -1 {
		return "", false
	}
	return classes[best], true
}
