// Package handler exposes search, index statistics and cache control over
// HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, raw string, mode ranker.Mode, limit int) (*executor.SearchResult, error)
}

// IndexControl reports on the served index and re-weights it in place.
// *indexer.Engine implements it.
type IndexControl interface {
	Stats() indexer.Stats
	Reevaluate(ctx context.Context, formula string) error
}

// Options carries the request defaults.
type Options struct {
	DefaultMode  ranker.Mode
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor SearchExecutor
	index    IndexControl
	cache    *cache.QueryCache
	metrics  *metrics.Metrics
	opts     Options
	logger   *slog.Logger
}

// New creates a Handler. queryCache and m may be nil.
func New(exec SearchExecutor, idx IndexControl, queryCache *cache.QueryCache, m *metrics.Metrics, opts Options) *Handler {
	return &Handler{
		executor: exec,
		index:    idx,
		cache:    queryCache,
		metrics:  m,
		opts:     opts,
		logger:   logger.Component("search-handler"),
	}
}

// Search serves GET /api/v1/search?q=&mode=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode, err := ranker.ParseMode(r.URL.Query().Get("mode"), h.opts.DefaultMode)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "mode must be cosine or euclidean")
		return
	}

	limit := h.opts.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.opts.MaxResults {
			parsed = h.opts.MaxResults
		}
		limit = parsed
	}

	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		key := cache.Key{Query: query, Mode: mode, Limit: limit, Generation: h.index.Stats().Generation}
		result, cacheHit, err = h.cache.GetOrCompute(ctx, key, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, query, mode, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, query, mode, limit)
	}

	if err != nil {
		h.observe(mode, "error", cacheHit, start, 0)
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed",
			"query", query,
			"mode", mode,
			"error", err,
		)
		h.writeJSON(w, status, map[string]string{
			"error":      searchErrorMessage(err),
			"request_id": middleware.GetRequestID(ctx),
		})
		return
	}

	resultType := "miss"
	switch {
	case cacheHit:
		resultType = "hit"
	case len(result.Results) == 0:
		resultType = "zero_result"
	}
	h.observe(mode, resultType, cacheHit, start, len(result.Results))

	log.Info("search completed",
		"query", query,
		"mode", mode,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) observe(mode ranker.Mode, resultType string, cacheHit bool, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(string(mode), resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(string(mode), cacheStatus).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.WithLabelValues(string(mode)).Observe(float64(returned))
	}
}

func searchErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrIndexNotReady):
		return "index is not loaded yet"
	case errors.Is(err, apperrors.ErrEmptyIndex):
		return "index holds no documents"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return err.Error()
	default:
		return "search failed"
	}
}

// IndexStats serves GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	stats := h.index.Stats()
	if !stats.Ready {
		h.writeJSON(w, http.StatusServiceUnavailable, stats)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Reevaluate serves POST /api/v1/index/reevaluate?idf=. It recomputes the
// term weights of the loaded index under the named idf formula, then drops
// every cached result.
func (h *Handler) Reevaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formula := r.URL.Query().Get("idf")
	if err := h.index.Reevaluate(ctx, formula); err != nil {
		logger.FromContext(ctx).Error("re-evaluation failed", "idf", formula, "error", err)
		h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{
			"error":      reevaluateErrorMessage(err),
			"request_id": middleware.GetRequestID(ctx),
		})
		return
	}
	if h.cache != nil {
		if _, err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Error("cache invalidation after re-evaluation failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, h.index.Stats())
}

func reevaluateErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrIndexNotReady):
		return "index is not loaded yet"
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrUndefined):
		return err.Error()
	default:
		return "re-evaluation failed"
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
