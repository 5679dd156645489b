// Package ranker scores indexed documents against a query vector, either by
// squared Euclidean distance over the whole vocabulary or by a normalized
// inner product over the query terms, and orders the scores.
package ranker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/evaluator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Mode selects the similarity measure.
type Mode string

const (
	ModeCosine    Mode = "cosine"
	ModeEuclidean Mode = "euclidean"
)

// ParseMode resolves a mode name. An empty name selects fallback.
func ParseMode(s string, fallback Mode) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case ModeCosine:
		return ModeCosine, nil
	case ModeEuclidean:
		return ModeEuclidean, nil
	default:
		return "", fmt.Errorf("unknown ranking mode %q: %w", s, apperrors.ErrInvalidInput)
	}
}

// Order reports how scores of the mode are ranked: distances ascend,
// similarities descend.
func (m Mode) Order() Order {
	if m == ModeEuclidean {
		return Ascending
	}
	return Descending
}

// Scores maps a document ID to its score.
type Scores map[int]float64

// Euclidean accumulates (queryWeight - documentWeight)^2 over every posting
// of every indexed term; a term missing from q has query weight 0. Only
// documents reached by some posting chain are scored. When idf is non-nil
// the document weight is the posting weight times the term's idf, otherwise
// the posting weight alone. An empty query scores nothing.
func Euclidean(ctx context.Context, q query.Vector, ix *index.Index, idf map[string]float64) (Scores, error) {
	scores := make(Scores)
	if len(q) == 0 {
		return scores, nil
	}
	for _, entry := range ix.Lexicon().Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qw := q[entry.Term]
		scale := 1.0
		if idf != nil {
			scale = idf[entry.Term]
		}
		_, err := ix.WalkTerm(entry.ID, func(p index.Posting) error {
			d := qw - p.Weight*scale
			scores[p.DocID] += d * d
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}

// Cosine accumulates queryWeight * postingWeight over the chains of the
// query's terms and divides each document's sum by its norm. Documents
// without a positive norm are left out.
func Cosine(ctx context.Context, q query.Vector, ix *index.Index, eval *evaluator.Evaluation) (Scores, error) {
	acc := make(Scores)
	terms := make([]string, 0, len(q))
	for term := range q {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok := ix.Lexicon().Lookup(term)
		if !ok {
			continue
		}
		qw := q[term]
		_, err := ix.WalkTerm(entry.ID, func(p index.Posting) error {
			acc[p.DocID] += qw * p.Weight
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for docID, sum := range acc {
		norm, ok := eval.Norm(docID)
		if !ok || norm <= 0 {
			delete(acc, docID)
			continue
		}
		acc[docID] = sum / norm
	}
	return acc, nil
}
