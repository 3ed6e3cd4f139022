package categorizer

import (
	"sort"
	"strings"

	"fjacquet/spend-intel/internal/textutils"
)

// minTokenLength drops single-letter words before n-grams are formed.
const minTokenLength = 2

// analyze turns a normalized note into its word n-grams, shortest first.
func analyze(normalized string, ngramMin, ngramMax int) []string {
	words := textutils.Tokens(normalized)
	tokens := words[:0]
	for _, w := range words {
		if len(w) >= minTokenLength {
			tokens = append(tokens, w)
		}
	}

	var grams []string
	for n := ngramMin; n <= ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// buildVocabulary keeps every n-gram that occurs in at least minDF distinct
// documents. Indices follow the sorted term order so equal inputs always
// produce the same vocabulary.
func buildVocabulary(docs [][]string, minDF int) map[string]int {
	df := make(map[string]int)
	for _, grams := range docs {
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= minDF {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}

// termCounts is a sparse term-count vector keyed by vocabulary index.
type termCounts map[int]int

// vectorize counts the in-vocabulary n-grams of a document. Unknown n-grams
// are ignored.
func vectorize(grams []string, vocab map[string]int) termCounts {
	counts := make(termCounts)
	for _, g := range grams {
		if idx, ok := vocab[g]; ok {
			counts[idx]++
		}
	}
	return counts
}
