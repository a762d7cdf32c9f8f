package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/textanasearch/textana/pkg/kafka"
)

// KeywordCount is one entry of a keyword popularity ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

// AggregatedStats is the rollup served on the analytics endpoint.
type AggregatedStats struct {
	TotalQueries        int64          `json:"total_queries"`
	TotalLoads          int64          `json:"total_loads"`
	DocumentsLoaded     int64          `json:"documents_loaded"`
	CacheHits           int64          `json:"cache_hits"`
	CacheMisses         int64          `json:"cache_misses"`
	ZeroResultCount     int64          `json:"zero_result_count"`
	AvgLatencyMs        float64        `json:"avg_latency_ms"`
	P50LatencyMs        int64          `json:"p50_latency_ms"`
	P95LatencyMs        int64          `json:"p95_latency_ms"`
	P99LatencyMs        int64          `json:"p99_latency_ms"`
	TopKeywords         []KeywordCount `json:"top_keywords"`
	ZeroResultKeywords  []KeywordCount `json:"zero_result_keywords"`
	QueriesPerMinute    float64        `json:"queries_per_minute"`
}

// Aggregator consumes the analytics topic and keeps in-memory rollups.
type Aggregator struct {
	mu                 sync.RWMutex
	totalQueries       atomic.Int64
	totalLoads         atomic.Int64
	documentsLoaded    atomic.Int64
	cacheHits          atomic.Int64
	cacheMisses        atomic.Int64
	zeroResults        atomic.Int64
	latencies          []int64
	keywordCounts      map[string]int64
	zeroResultKeywords map[string]int64
	startTime          time.Time

	logger *slog.Logger
}

// NewAggregator creates an empty Aggregator. Events arrive either through a
// Kafka consumer wired to HandleEvent, or directly via RecordQuery and
// RecordLoad.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:          make([]int64, 0, 10000),
		keywordCounts:      make(map[string]int64),
		zeroResultKeywords: make(map[string]int64),
		startTime:          time.Now(),
		logger:             slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start enters the consume loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns the Kafka message handler feeding agg.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		var probe struct {
			Type EventType `json:"type"`
		}
		if err := json.Unmarshal(value, &probe); err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch probe.Type {
		case EventLoad:
			event, err := kafka.DecodeJSON[LoadEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode load event", "error", err)
				return nil
			}
			agg.RecordLoad(event)
		default:
			event, err := kafka.DecodeJSON[QueryEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode query event", "error", err)
				return nil
			}
			agg.RecordQuery(event)
		}
		return nil
	}
}

// RecordQuery folds one query event into the rollups.
func (a *Aggregator) RecordQuery(event QueryEvent) {
	a.totalQueries.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	if event.Results == 0 {
		a.zeroResults.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	for _, kw := range a.eventKeywords(event) {
		a.keywordCounts[kw]++
		if event.Results == 0 {
			a.zeroResultKeywords[kw]++
		}
	}
	a.mu.Unlock()
}

// RecordLoad folds one load event into the rollups.
func (a *Aggregator) RecordLoad(event LoadEvent) {
	a.totalLoads.Add(1)
	a.documentsLoaded.Store(int64(event.Documents))
}

func (a *Aggregator) eventKeywords(event QueryEvent) []string {
	if event.Word != "" {
		return []string{strings.ToLower(event.Word)}
	}
	out := make([]string, 0, len(event.Keywords))
	for _, kw := range event.Keywords {
		out = append(out, strings.ToLower(kw))
	}
	return out
}

// Stats returns the current rollup.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:    a.totalQueries.Load(),
		TotalLoads:      a.totalLoads.Load(),
		DocumentsLoaded: a.documentsLoaded.Load(),
		CacheHits:       a.cacheHits.Load(),
		CacheMisses:     a.cacheMisses.Load(),
		ZeroResultCount: a.zeroResults.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopKeywords = topN(a.keywordCounts, 10)
	stats.ZeroResultKeywords = topN(a.zeroResultKeywords, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []KeywordCount {
	result := make([]KeywordCount, 0, len(counts))
	for kw, count := range counts {
		result = append(result, KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Keyword < result[j].Keyword
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
