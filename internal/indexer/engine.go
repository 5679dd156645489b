// Package indexer turns a document collection into a served index: it
// tokenizes, builds the posting arena, evaluates idf and norms, and keeps the
// result on disk as a snapshot.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/evaluator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/snapshot"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// Stats describes the index an Engine currently holds.
type Stats struct {
	Ready     bool      `json:"ready"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Postings  int       `json:"postings"`
	Formula   string    `json:"idf"`
	BuiltAt   time.Time `json:"built_at"`

	// Generation changes whenever the served index or its evaluation is
	// replaced. Replicas serving the same snapshot agree on it.
	Generation int64 `json:"generation"`
}

// Engine owns the current index and its evaluation. Build, Load and
// Reevaluate replace them as a unit; readers get a consistent pair from
// Current.
type Engine struct {
	cfg     config.IndexerConfig
	tok     *tokenizer.Tokenizer
	writer  *snapshot.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu         sync.RWMutex
	ix         *index.Index
	eval       *evaluator.Evaluation
	builtAt    time.Time
	generation int64
}

// NewEngine creates an Engine with no index loaded. m may be nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) (*Engine, error) {
	if _, err := weighting.FormulaByName(cfg.IDF); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		tok:     NewTokenizer(cfg),
		writer:  snapshot.NewWriter(cfg.DataDir),
		metrics: m,
		logger:  logger.Component("indexer"),
	}, nil
}

// NewTokenizer returns the tokenizer configured by cfg. Documents and
// queries must go through the same one.
func NewTokenizer(cfg config.IndexerConfig) *tokenizer.Tokenizer {
	return tokenizer.New(tokenizer.Options{
		Clean: cfg.Clean,
		NGram: cfg.NGram,
		Stem:  cfg.Stem,
	})
}

func (e *Engine) Tokenizer() *tokenizer.Tokenizer {
	return e.tok
}

// Build tokenizes docs, builds a fresh index over them and evaluates it with
// the configured idf formula. On error the previous index stays in place.
func (e *Engine) Build(ctx context.Context, docs []corpus.Document) error {
	start := time.Now()
	ix, eval, err := e.build(ctx, docs)
	if err != nil {
		e.countBuild("error")
		return err
	}
	e.swap(ix, eval, time.Now())
	e.countBuild("success")
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(len(docs)))
	}
	stats := ix.Stats()
	e.logger.Info("collection indexed",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"postings", stats.Postings,
		"idf", eval.Formula,
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) build(ctx context.Context, docs []corpus.Document) (*index.Index, *evaluator.Evaluation, error) {
	tokenized, err := e.tokenize(ctx, docs)
	if err != nil {
		return nil, nil, err
	}
	ix, err := index.Build(ctx, tokenized, e.cfg.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("building index: %w", err)
	}
	eval, err := e.evaluate(ctx, ix, e.cfg.IDF)
	if err != nil {
		return nil, nil, err
	}
	return ix, eval, nil
}

func (e *Engine) tokenize(ctx context.Context, docs []corpus.Document) ([]index.Document, error) {
	out := make([]index.Document, len(docs))
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = index.Document{Name: doc.Name, Tokens: e.tok.Tokenize(doc.Body)}
			e.logger.Debug("document tokenized", "document", doc.Name, "tokens", len(out[i].Tokens))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tokenizing collection: %w", err)
	}
	return out, nil
}

func (e *Engine) evaluate(ctx context.Context, ix *index.Index, formula string) (*evaluator.Evaluation, error) {
	f, err := weighting.FormulaByName(formula)
	if err != nil {
		return nil, err
	}
	eval, err := evaluator.Evaluate(ctx, ix, f, e.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("evaluating index: %w", err)
	}
	return eval, nil
}

// Reevaluate recomputes the idf and norm tables of the current index under
// another formula. The posting store is not touched.
func (e *Engine) Reevaluate(ctx context.Context, formula string) error {
	ix, _, err := e.Current()
	if err != nil {
		return err
	}
	eval, err := e.evaluate(ctx, ix, formula)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.ix == ix {
		e.eval = eval
		e.generation = max(e.generation+1, time.Now().UnixNano())
	}
	e.mu.Unlock()
	e.logger.Info("index re-evaluated", "idf", eval.Formula, "terms", len(eval.IDF))
	return nil
}

// Save writes the current index to the configured snapshot path and returns
// that path.
func (e *Engine) Save() (string, error) {
	ix, eval, err := e.Current()
	if err != nil {
		return "", err
	}
	path, err := e.writer.Write(e.cfg.SnapshotName, ix, eval)
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	e.logger.Info("snapshot saved", "path", path)
	return path, nil
}

// Load replaces the current index with the snapshot at path, or at the
// configured snapshot path when path is empty.
func (e *Engine) Load(path string) error {
	if path == "" {
		path = e.cfg.SnapshotPath()
	}
	snap, err := snapshot.Read(path)
	if err != nil {
		e.countReload("error")
		return fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	e.swap(snap.Index, snap.Evaluation, time.Unix(0, snap.Header.CreatedAt).UTC())
	e.countReload("success")
	stats := snap.Index.Stats()
	e.logger.Info("snapshot loaded",
		"path", path,
		"documents", stats.Documents,
		"terms", stats.Terms,
		"idf", snap.Evaluation.Formula,
	)
	return nil
}

// Current returns the index and evaluation being served, or
// ErrIndexNotReady before the first Build or Load.
func (e *Engine) Current() (*index.Index, *evaluator.Evaluation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ix == nil || e.eval == nil {
		return nil, nil, fmt.Errorf("no index loaded: %w", apperrors.ErrIndexNotReady)
	}
	return e.ix, e.eval, nil
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ix == nil {
		return Stats{}
	}
	s := e.ix.Stats()
	return Stats{
		Ready:      true,
		Documents:  s.Documents,
		Terms:      s.Terms,
		Postings:   s.Postings,
		Formula:    e.eval.Formula,
		BuiltAt:    e.builtAt,
		Generation: e.generation,
	}
}

func (e *Engine) swap(ix *index.Index, eval *evaluator.Evaluation, builtAt time.Time) {
	e.mu.Lock()
	e.ix, e.eval, e.builtAt = ix, eval, builtAt
	e.generation = builtAt.UnixNano()
	e.mu.Unlock()
	if e.metrics != nil {
		s := ix.Stats()
		e.metrics.SetIndexSize(s.Documents, s.Terms, s.Postings)
	}
}

func (e *Engine) countBuild(status string) {
	if e.metrics != nil {
		e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	}
}

func (e *Engine) countReload(status string) {
	if e.metrics != nil {
		e.metrics.IndexReloadsTotal.WithLabelValues(status).Inc()
	}
}
