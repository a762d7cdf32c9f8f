// Package handler exposes the session over a JSON HTTP API. It adds the
// synchronization layer the single-threaded core leaves to its caller:
// corpus loads take the write lock, queries share the read lock.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/textanasearch/textana/internal/analytics"
	"github.com/textanasearch/textana/internal/export"
	"github.com/textanasearch/textana/internal/frequency"
	"github.com/textanasearch/textana/internal/server/cache"
	"github.com/textanasearch/textana/internal/session"
	"github.com/textanasearch/textana/pkg/config"
	apperrors "github.com/textanasearch/textana/pkg/errors"
	"github.com/textanasearch/textana/pkg/logger"
	"github.com/textanasearch/textana/pkg/metrics"
)

// Handler serves the session over HTTP. Cache, collector, metrics, and the
// Postgres sink are optional; a nil field disables the corresponding
// behavior.
type Handler struct {
	mu        sync.RWMutex
	session   *session.Session
	cache     *cache.QueryCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	pgSink    *export.PostgresSink
	exportCfg config.ExportConfig
	searchCfg config.SearchConfig
	logger    *slog.Logger
}

// New creates a Handler over the given session.
func New(
	sess *session.Session,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	pgSink *export.PostgresSink,
	exportCfg config.ExportConfig,
	searchCfg config.SearchConfig,
) *Handler {
	return &Handler{
		session:   sess,
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		pgSink:    pgSink,
		exportCfg: exportCfg,
		searchCfg: searchCfg,
		logger:    slog.Default().With("component", "api-handler"),
	}
}

// LoadRequest is the JSON body of POST /api/v1/corpus/load.
type LoadRequest struct {
	Paths []string `json:"paths"`
}

// Load ingests documents and rebuilds the derived structures.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Paths) == 0 {
		h.writeError(w, http.StatusBadRequest, "paths must not be empty")
		return
	}

	h.mu.Lock()
	stats, err := h.session.Load(req.Paths)
	h.mu.Unlock()
	if err != nil {
		log.Error("corpus load failed", "paths", req.Paths, "error", err)
		h.countLoad(err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countLoad(nil)

	latencyMs := time.Since(start).Milliseconds()
	if h.metrics != nil {
		h.metrics.DocumentsLoaded.Set(float64(stats.Documents))
		h.metrics.TokensLoaded.Set(float64(stats.Tokens))
		h.metrics.IndexedTerms.Set(float64(stats.Terms))
		h.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Error("cache invalidation after load failed", "error", err)
		}
	}
	if h.collector != nil {
		h.collector.Track(analytics.LoadEvent{
			Type:      analytics.EventLoad,
			Paths:     req.Paths,
			Documents: stats.Documents,
			Tokens:    stats.Tokens,
			LatencyMs: latencyMs,
			Timestamp: time.Now().UTC(),
		})
	}
	log.Info("corpus loaded",
		"documents", stats.Documents,
		"tokens", stats.Tokens,
		"terms", stats.Terms,
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusOK, stats)
}

// SearchResponse is the payload of GET /api/v1/search.
type SearchResponse struct {
	Word           string                    `json:"word"`
	TotalDocuments int                       `json:"total_documents"`
	Occurrences    []session.WordOccurrences `json:"occurrences"`
}

// SearchWord answers an exact word lookup with line-level context.
func (h *Handler) SearchWord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	word := r.URL.Query().Get("word")

	h.mu.RLock()
	occurrences, err := h.session.SearchWord(word)
	h.mu.RUnlock()
	if err != nil {
		h.countQuery("word", -1)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countQuery("word", len(occurrences))
	h.observeLatency("word", start)

	latencyMs := time.Since(start).Milliseconds()
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Type:      analytics.EventWordSearch,
			Word:      word,
			Results:   len(occurrences),
			LatencyMs: latencyMs,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	log.Info("word search completed", "word", word, "documents", len(occurrences), "latency_ms", latencyMs)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Word:           word,
		TotalDocuments: len(occurrences),
		Occurrences:    occurrences,
	})
}

// Retrieve answers a ranked multi-keyword query in OR or AND mode.
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	keywords := splitKeywords(r.URL.Query().Get("keywords"))
	if len(keywords) == 0 {
		h.writeError(w, http.StatusBadRequest, "query parameter 'keywords' is required")
		return
	}
	modeParam := r.URL.Query().Get("mode")
	if modeParam == "" {
		modeParam = string(session.ModeOr)
	}
	mode, err := session.ParseMode(modeParam)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	limit := h.searchCfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.searchCfg.MaxResults {
			parsed = h.searchCfg.MaxResults
		}
		limit = parsed
	}

	compute := func() (*cache.Result, error) {
		h.mu.RLock()
		defer h.mu.RUnlock()
		docs, err := h.session.Retrieve(keywords, mode)
		if err != nil {
			return nil, err
		}
		total := len(docs)
		if limit > 0 && len(docs) > limit {
			docs = docs[:limit]
		}
		return &cache.Result{
			Mode:      string(mode),
			Keywords:  keywords,
			TotalHits: total,
			Results:   docs,
		}, nil
	}

	var result *cache.Result
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, string(mode), keywords, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("retrieval failed", "keywords", keywords, "mode", mode, "error", err)
		h.countQuery(string(mode), -1)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countQuery(string(mode), result.TotalHits)
	h.observeLatency(string(mode), start)
	if h.metrics != nil && h.cache != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}

	latencyMs := time.Since(start).Milliseconds()
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Type:      analytics.EventRetrieve,
			Mode:      string(mode),
			Keywords:  keywords,
			Results:   result.TotalHits,
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	log.Info("retrieval completed",
		"keywords", keywords,
		"mode", mode,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusOK, result)
}

// FrequencyResponse is the payload of the top-N endpoints.
type FrequencyResponse struct {
	Scope   string            `json:"scope"`
	Path    string            `json:"path,omitempty"`
	N       int               `json:"n"`
	Entries []frequency.Entry `json:"entries"`
}

// TopCorpus returns the N most frequent corpus words.
func (h *Handler) TopCorpus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	n, err := parseN(r.URL.Query().Get("n"))
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.mu.RLock()
	entries, err := h.session.TopNInCorpus(n)
	h.mu.RUnlock()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countQuery("top_corpus", len(entries))
	h.trackTopN(r, "corpus", len(entries), start)
	h.writeJSON(w, http.StatusOK, FrequencyResponse{Scope: "corpus", N: n, Entries: entries})
}

// TopDocument returns the N most frequent words of one document.
func (h *Handler) TopDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	n, err := parseN(r.URL.Query().Get("n"))
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.mu.RLock()
	entries, err := h.session.TopNInDocument(path, n)
	h.mu.RUnlock()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countQuery("top_document", len(entries))
	h.trackTopN(r, "document", len(entries), start)
	h.writeJSON(w, http.StatusOK, FrequencyResponse{Scope: "document", Path: path, N: n, Entries: entries})
}

func (h *Handler) trackTopN(r *http.Request, scope string, results int, start time.Time) {
	if h.collector == nil {
		return
	}
	h.collector.Track(analytics.QueryEvent{
		Type:      analytics.EventTopN,
		Mode:      scope,
		Results:   results,
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(r.Context()),
	})
}

// ExportRequest is the JSON body of POST /api/v1/frequency/export.
type ExportRequest struct {
	Path string `json:"path"`
	Sink string `json:"sink"`
}

// Export persists the full corpus frequency ranking to CSV or Postgres.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Sink == "" {
		req.Sink = "csv"
	}
	if req.Path == "" {
		req.Path = h.exportCfg.DefaultPath
	}

	h.mu.RLock()
	loaded := h.session.Loaded()
	entries := h.session.CorpusFrequencies()
	h.mu.RUnlock()
	if !loaded {
		h.writeError(w, http.StatusBadRequest, "no frequencies computed, load documents first")
		return
	}

	switch req.Sink {
	case "csv":
		if err := export.WriteCSV(req.Path, entries); err != nil {
			log.Error("csv export failed", "path", req.Path, "error", err)
			h.countExport("csv", err)
			h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
			return
		}
		h.countExport("csv", nil)
		log.Info("frequencies exported", "sink", "csv", "path", req.Path, "entries", len(entries))
		h.writeJSON(w, http.StatusOK, map[string]any{
			"sink":    "csv",
			"path":    req.Path,
			"entries": len(entries),
		})
	case "postgres":
		if h.pgSink == nil {
			h.writeError(w, http.StatusServiceUnavailable, "postgres sink is not configured")
			return
		}
		snapshotID, err := h.pgSink.SaveSnapshot(ctx, entries)
		if err != nil {
			log.Error("postgres export failed", "error", err)
			h.countExport("postgres", err)
			h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
			return
		}
		h.countExport("postgres", nil)
		log.Info("frequencies exported", "sink", "postgres", "snapshot_id", snapshotID, "entries", len(entries))
		h.writeJSON(w, http.StatusOK, map[string]any{
			"sink":        "postgres",
			"snapshot_id": snapshotID,
			"entries":     len(entries),
		})
	default:
		h.writeError(w, http.StatusBadRequest, "sink must be \"csv\" or \"postgres\"")
	}
}

// CacheStats reports retrieval cache hit/miss counters.
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
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

// CacheInvalidate clears the retrieval cache.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Documents lists the loaded document paths.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	docs := h.session.Documents()
	h.mu.RUnlock()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func parseN(raw string) (int, error) {
	if raw == "" {
		return 0, apperrors.InvalidInputf("query parameter 'n' is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInputf("'n' must be an integer, got %q", raw)
	}
	if n < 0 {
		return 0, apperrors.InvalidInputf("'n' must not be negative, got %d", n)
	}
	return n, nil
}

func splitKeywords(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

func (h *Handler) countQuery(kind string, results int) {
	if h.metrics == nil {
		return
	}
	result := "hit"
	switch {
	case results < 0:
		result = "error"
	case results == 0:
		result = "zero_result"
	}
	h.metrics.QueriesTotal.WithLabelValues(kind, result).Inc()
}

func (h *Handler) observeLatency(kind string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.QueryLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (h *Handler) countLoad(err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		status = "not_found"
	default:
		status = "io_error"
	}
	h.metrics.LoadsTotal.WithLabelValues(status).Inc()
}

func (h *Handler) countExport(sink string, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.ExportsTotal.WithLabelValues(sink, status).Inc()
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
