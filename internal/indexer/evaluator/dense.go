package evaluator

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
)

// DenseWeights is the term-weight matrix computed from a document-term table
// instead of posting chains.
type DenseWeights struct {
	// Terms maps term -> document -> tf*idf.
	Terms map[string]map[string]float64
	// Documents maps document -> term -> (tf*idf)^2.
	Documents map[string]map[string]float64
}

// Norm sums the squared weights of one document.
func (d DenseWeights) Norm(doc string) float64 {
	var sum float64
	for _, w := range d.Documents[doc] {
		sum += w
	}
	return sum
}

// TermWeights weighs a document -> term -> frequency table with the same tf
// and idf rules as the posting path.
func TermWeights(docTerms map[string]map[string]int, idfFn weighting.IDFFunc) (DenseWeights, error) {
	n := len(docTerms)
	maxFreq := make(map[string]int, n)
	for doc, terms := range docTerms {
		for _, freq := range terms {
			if freq > maxFreq[doc] {
				maxFreq[doc] = freq
			}
		}
	}
	out := DenseWeights{
		Terms:     make(map[string]map[string]float64),
		Documents: make(map[string]map[string]float64),
	}
	for term, docs := range index.InvertDocumentTerms(docTerms) {
		idf, err := idfFn(len(docs), n)
		if err != nil {
			return DenseWeights{}, fmt.Errorf("idf of %q: %w", term, err)
		}
		weights := make(map[string]float64, len(docs))
		for doc, freq := range docs {
			tf, err := weighting.MaxTF(float64(freq), float64(maxFreq[doc]), weighting.DocumentAlpha)
			if err != nil {
				return DenseWeights{}, fmt.Errorf("tf of %q in %q: %w", term, doc, err)
			}
			weights[doc] = tf * idf
			sq, ok := out.Documents[doc]
			if !ok {
				sq = make(map[string]float64)
				out.Documents[doc] = sq
			}
			sq[term] = weights[doc] * weights[doc]
		}
		out.Terms[term] = weights
	}
	return out, nil
}
