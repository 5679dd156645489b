// Package executor runs a query against the index currently being served.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/evaluator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// IndexSource hands out the index and evaluation to search. The pair must
// belong together.
type IndexSource interface {
	Current() (*index.Index, *evaluator.Evaluation, error)
}

// SearchResult is the response to one query. Vector holds the weighted
// query terms found in the index and Dropped the ones that were not.
type SearchResult struct {
	Query     string             `json:"query"`
	Mode      ranker.Mode        `json:"mode"`
	IDF       string             `json:"idf"`
	Vector    query.Vector       `json:"vector"`
	Dropped   []string           `json:"dropped,omitempty"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

// Options configures ranking.
type Options struct {
	// EuclideanTFIDF measures Euclidean distance against posting weight
	// times idf instead of the bare posting weight.
	EuclideanTFIDF bool
}

// Executor answers queries against whatever index its source is serving.
// It is safe for concurrent use.
type Executor struct {
	source IndexSource
	tok    query.Tokenizer
	opts   Options
	logger *slog.Logger
}

func New(source IndexSource, tok query.Tokenizer, opts Options) *Executor {
	return &Executor{
		source: source,
		tok:    tok,
		opts:   opts,
		logger: logger.Component("query-executor"),
	}
}

// Execute processes raw into a query vector, scores the index in the given
// mode and returns the best limit documents. A query with no indexed term
// returns no results. Searching an index built from an empty collection
// fails with ErrEmptyIndex.
func (e *Executor) Execute(ctx context.Context, raw string, mode ranker.Mode, limit int) (*SearchResult, error) {
	ix, eval, err := e.source.Current()
	if err != nil {
		return nil, err
	}
	if ix.Documents().Len() == 0 {
		return nil, fmt.Errorf("searching %q: %w", raw, apperrors.ErrEmptyIndex)
	}

	q := query.Process(raw, e.tok, eval.IDF)
	result := &SearchResult{
		Query:   raw,
		Mode:    mode,
		IDF:     eval.Formula,
		Vector:  q.Vector,
		Dropped: q.Dropped,
		Results: []ranker.ScoredDoc{},
	}
	if q.Empty() {
		e.logger.Debug("query has no indexed terms", "query", raw, "dropped", q.Dropped)
		return result, nil
	}

	var scores ranker.Scores
	switch mode {
	case ranker.ModeEuclidean:
		var idf map[string]float64
		if e.opts.EuclideanTFIDF {
			idf = eval.IDF
		}
		scores, err = ranker.Euclidean(ctx, q.Vector, ix, idf)
	case ranker.ModeCosine:
		scores, err = ranker.Cosine(ctx, q.Vector, ix, eval)
	default:
		return nil, fmt.Errorf("ranking mode %q: %w", mode, apperrors.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("ranking %q: %w", raw, err)
	}

	result.TotalHits = len(scores)
	result.Results = ranker.TopK(scores, ix.Documents(), mode.Order(), limit)
	e.logger.Info("query executed",
		"query", raw,
		"mode", mode,
		"terms", q.Terms(),
		"candidates", len(scores),
		"results", len(result.Results),
	)
	return result, nil
}
