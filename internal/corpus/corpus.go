// Package corpus loads the document collection an index is built from.
package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Document is a named text before tokenization.
type Document struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Source yields the documents of a collection in a stable order.
type Source interface {
	Load(ctx context.Context) ([]Document, error)
	Close() error
}

// Open returns the Source selected by cfg.CorpusSource. The postgres source
// connects with pgCfg.
func Open(cfg config.IndexerConfig, pgCfg config.PostgresConfig) (Source, error) {
	switch cfg.CorpusSource {
	case "", "file":
		return NewFileSource(cfg.CorpusPath), nil
	case "postgres":
		return NewPostgresSource(pgCfg, cfg.CorpusTable)
	default:
		return nil, fmt.Errorf("corpus source %q: %w", cfg.CorpusSource, apperrors.ErrInvalidInput)
	}
}

// validate rejects empty and repeated names before they reach the index
// builder, so the error names the source.
func validate(docs []Document, origin string) error {
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if doc.Name == "" {
			return fmt.Errorf("%s: document %d has no name: %w", origin, i, apperrors.ErrInvalidInput)
		}
		if _, dup := seen[doc.Name]; dup {
			return apperrors.Errorf(apperrors.ErrDocumentExists, "%s: document %q", origin, doc.Name)
		}
		seen[doc.Name] = struct{}{}
	}
	return nil
}
