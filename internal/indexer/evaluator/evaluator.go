// Package evaluator derives the per-term idf table and the per-document norm
// table from a built index. Both tables come out of the same pass: a term's
// chain is walked once to count its document frequency and again to add
// (weight*idf)^2 to every document on it.
package evaluator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// Evaluation holds the derived tables of one index under one idf formula.
type Evaluation struct {
	Formula       string             `json:"formula"`
	DocumentCount int                `json:"document_count"`
	IDF           map[string]float64 `json:"idf"`
	Norms         map[int]float64    `json:"norms"`
}

// Norm returns the squared-weight sum of a document. Documents that share
// no term with the index have no entry.
func (e *Evaluation) Norm(docID int) (float64, bool) {
	n, ok := e.Norms[docID]
	return n, ok
}

// chunk is the partial result of one worker over a contiguous term range.
type chunk struct {
	norms   []float64
	touched []bool
}

// Evaluate computes the idf and norm tables of ix under formula f and records
// f's name on the result. Terms are split
// into contiguous ranges handled by up to workers goroutines; partial norms
// are reduced in range order, so the result does not depend on scheduling.
func Evaluate(ctx context.Context, ix *index.Index, f weighting.Formula, workers int) (*Evaluation, error) {
	start := time.Now()
	log := logger.Component("index-evaluator")
	if f.IDF == nil {
		return nil, fmt.Errorf("idf formula %q has no function: %w", f.Name, apperrors.ErrInvalidInput)
	}
	idfFn := f.IDF
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	numTerms := ix.Lexicon().Len()
	numDocs := ix.Documents().Len()
	if workers > numTerms {
		workers = max(numTerms, 1)
	}

	idf := make([]float64, numTerms)
	chunks := make([]chunk, workers)
	size := (numTerms + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * size
		hi := min(lo+size, numTerms)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			c := chunk{norms: make([]float64, numDocs), touched: make([]bool, numDocs)}
			for termID := lo; termID < hi; termID++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := evaluateTerm(ix, termID, numDocs, idfFn, &c)
				if err != nil {
					return err
				}
				idf[termID] = v
			}
			chunks[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating index: %w", err)
	}

	eval := &Evaluation{
		Formula:       f.Name,
		DocumentCount: numDocs,
		IDF:           make(map[string]float64, numTerms),
		Norms:         make(map[int]float64),
	}
	for termID, v := range idf {
		eval.IDF[ix.Lexicon().Entry(termID).Term] = v
	}
	for _, c := range chunks {
		for docID, touched := range c.touched {
			if touched {
				eval.Norms[docID] += c.norms[docID]
			}
		}
	}
	log.Info("index evaluated",
		"idf", f.Name,
		"terms", numTerms,
		"documents", numDocs,
		"normed_documents", len(eval.Norms),
		"workers", workers,
		"duration", time.Since(start),
	)
	return eval, nil
}

func evaluateTerm(ix *index.Index, termID, numDocs int, idfFn weighting.IDFFunc, c *chunk) (float64, error) {
	entry := ix.Lexicon().Entry(termID)
	df, err := ix.WalkTerm(termID, nil)
	if err != nil {
		return 0, err
	}
	if df == 0 {
		return 0, fmt.Errorf("term %q has an empty posting chain: %w", entry.Term, apperrors.ErrCorruptIndex)
	}
	idf, err := idfFn(df, numDocs)
	if err != nil {
		return 0, fmt.Errorf("idf of %q: %w", entry.Term, err)
	}
	_, err = ix.WalkTerm(termID, func(p index.Posting) error {
		w := p.Weight * idf
		c.norms[p.DocID] += w * w
		c.touched[p.DocID] = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	return idf, nil
}
