// Package events carries index lifecycle notifications between the indexer
// and the search service over Kafka. The indexer publishes an
// IndexCompleteEvent per saved snapshot; searchers consume it to reload.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// IndexCompleteEvent announces that a new snapshot is ready to be served.
type IndexCompleteEvent struct {
	Snapshot  string    `json:"snapshot"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Postings  int       `json:"postings"`
	IDF       string    `json:"idf"`
	BuiltAt   time.Time `json:"built_at"`
}

// NewIndexCompleteEvent describes the snapshot at path built from stats.
func NewIndexCompleteEvent(path string, stats indexer.Stats) IndexCompleteEvent {
	return IndexCompleteEvent{
		Snapshot:  path,
		Documents: stats.Documents,
		Terms:     stats.Terms,
		Postings:  stats.Postings,
		IDF:       stats.Formula,
		BuiltAt:   stats.BuiltAt,
	}
}

// Publisher announces snapshots. Producer is the Kafka implementation.
type Publisher interface {
	Publish(ctx context.Context, ev IndexCompleteEvent) error
}

// PublishIndexComplete announces ev. Events are keyed by snapshot path, so
// announcements of the same snapshot stay ordered on one partition.
func PublishIndexComplete(ctx context.Context, p Publisher, ev IndexCompleteEvent) error {
	if ev.Snapshot == "" {
		return fmt.Errorf("index complete event without snapshot path: %w", apperrors.ErrInvalidInput)
	}
	if err := p.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publishing index complete event: %w", err)
	}
	return nil
}

// Reloader loads a snapshot from disk.
type Reloader interface {
	Load(path string) error
}

// Invalidator drops cached search results.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// Handler applies one IndexCompleteEvent.
type Handler func(ctx context.Context, ev IndexCompleteEvent) error

// HandleIndexComplete returns a Handler that reloads the announced snapshot
// and then clears the result cache. inv may be nil. A failed reload is
// returned so the message is not committed; a failed cache flush is only
// logged.
func HandleIndexComplete(r Reloader, inv Invalidator) Handler {
	log := logger.Component("index-events")
	return func(ctx context.Context, ev IndexCompleteEvent) error {
		if err := r.Load(ev.Snapshot); err != nil {
			return fmt.Errorf("reloading announced snapshot: %w", err)
		}
		log.Info("index reloaded from event",
			"snapshot", ev.Snapshot,
			"documents", ev.Documents,
			"terms", ev.Terms,
			"idf", ev.IDF,
			"built_at", ev.BuiltAt,
		)
		if inv == nil {
			return nil
		}
		if _, err := inv.Invalidate(ctx); err != nil {
			log.Error("cache invalidation after reload failed", "error", err)
		}
		return nil
	}
}
