package index

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// Document is one entry of a collection: a unique name and its tokens.
type Document struct {
	Name   string   `json:"name"`
	Tokens []string `json:"tokens"`
}

// termCounts holds the raw frequencies of one document. order keeps terms
// in first-appearance order so posting layout is stable.
type termCounts struct {
	order []string
	freq  map[string]int
	max   int
}

func countTerms(doc Document) (termCounts, error) {
	if doc.Name == "" {
		return termCounts{}, fmt.Errorf("document name is empty: %w", apperrors.ErrInvalidInput)
	}
	tc := termCounts{freq: make(map[string]int)}
	for i, tok := range doc.Tokens {
		if tok == "" {
			return termCounts{}, fmt.Errorf("document %q: empty token at position %d: %w", doc.Name, i, apperrors.ErrInvalidInput)
		}
		if _, seen := tc.freq[tok]; !seen {
			tc.order = append(tc.order, tok)
		}
		tc.freq[tok]++
		if tc.freq[tok] > tc.max {
			tc.max = tc.freq[tok]
		}
	}
	return tc, nil
}

// Builder accumulates documents into an Index. A rejected document leaves
// the builder unchanged. Builder is not safe for concurrent use.
type Builder struct {
	lexicon  *Lexicon
	docs     *Documents
	postings PostingStore
	docTerms []map[string]int
	done     bool
}

// NewBuilder returns an empty Builder. Documents are added one at a time
// with Add and the result is taken with Index.
func NewBuilder() *Builder {
	return &Builder{
		lexicon: newLexicon(),
		docs:    newDocuments(),
	}
}

// Add registers doc and appends one posting per distinct term.
func (b *Builder) Add(doc Document) error {
	tc, err := countTerms(doc)
	if err != nil {
		return err
	}
	return b.add(doc.Name, tc)
}

func (b *Builder) add(name string, tc termCounts) error {
	if b.done {
		return fmt.Errorf("builder already finished: %w", apperrors.ErrInvalidInput)
	}
	if _, exists := b.docs.ID(name); exists {
		return apperrors.Errorf(apperrors.ErrDocumentExists, "document %q", name)
	}
	docID := b.docs.register(name)
	b.docTerms = append(b.docTerms, tc.freq)
	for _, term := range tc.order {
		// tc.max >= freq >= 1 here, so MaxTF cannot fail.
		weight, _ := weighting.MaxTF(float64(tc.freq[term]), float64(tc.max), weighting.DocumentAlpha)
		termID := b.lexicon.idFor(term)
		ref := len(b.postings)
		b.postings = append(b.postings, Posting{
			TermID: termID,
			DocID:  docID,
			Weight: weight,
			Prev:   b.lexicon.entries[termID].Head,
		})
		b.lexicon.entries[termID].Head = ref
	}
	return nil
}

// Index finishes the build. The builder rejects further documents.
func (b *Builder) Index() *Index {
	b.done = true
	return &Index{
		lexicon:  b.lexicon,
		docs:     b.docs,
		postings: b.postings,
		docTerms: b.docTerms,
	}
}

// Build indexes docs in input order. Term counting runs on up to workers
// goroutines (GOMAXPROCS when workers <= 0); postings are then appended by
// a single writer so term IDs and chain links match a sequential build.
// The first invalid document aborts the build.
func Build(ctx context.Context, docs []Document, workers int) (*Index, error) {
	start := time.Now()
	log := logger.Component("index-builder")
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	counts := make([]termCounts, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tc, err := countTerms(docs[i])
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			counts[i] = tc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("counting terms: %w", err)
	}

	b := NewBuilder()
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.add(doc.Name, counts[i]); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		log.Debug("document indexed",
			"doc", doc.Name,
			"tokens", len(doc.Tokens),
			"distinct_terms", len(counts[i].order),
		)
	}
	ix := b.Index()
	stats := ix.Stats()
	log.Info("index built",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"postings", stats.Postings,
		"workers", workers,
		"duration", time.Since(start),
	)
	return ix, nil
}
