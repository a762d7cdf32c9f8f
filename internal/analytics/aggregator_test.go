package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestRecordQueryRollup(t *testing.T) {
	agg := NewAggregator()

	agg.RecordQuery(QueryEvent{
		Type:      EventRetrieve,
		Mode:      "or",
		Keywords:  []string{"Cat", "dog"},
		Results:   3,
		LatencyMs: 10,
		CacheHit:  true,
	})
	agg.RecordQuery(QueryEvent{
		Type:      EventRetrieve,
		Mode:      "and",
		Keywords:  []string{"cat"},
		Results:   0,
		LatencyMs: 30,
	})
	agg.RecordQuery(QueryEvent{
		Type:      EventWordSearch,
		Word:      "cat",
		Results:   1,
		LatencyMs: 20,
	})

	stats := agg.Stats()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", stats.CacheHits, stats.CacheMisses)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	if stats.AvgLatencyMs != 20 {
		t.Errorf("AvgLatencyMs = %v, want 20", stats.AvgLatencyMs)
	}

	// "cat" appears in all three queries, case-folded.
	if len(stats.TopKeywords) == 0 || stats.TopKeywords[0].Keyword != "cat" || stats.TopKeywords[0].Count != 3 {
		t.Errorf("TopKeywords = %v, want cat with count 3 first", stats.TopKeywords)
	}
	if len(stats.ZeroResultKeywords) != 1 || stats.ZeroResultKeywords[0].Keyword != "cat" {
		t.Errorf("ZeroResultKeywords = %v, want only cat", stats.ZeroResultKeywords)
	}
}

func TestRecordLoadRollup(t *testing.T) {
	agg := NewAggregator()
	agg.RecordLoad(LoadEvent{Type: EventLoad, Documents: 5, Tokens: 120})
	agg.RecordLoad(LoadEvent{Type: EventLoad, Documents: 7, Tokens: 200})

	stats := agg.Stats()
	if stats.TotalLoads != 2 {
		t.Errorf("TotalLoads = %d, want 2", stats.TotalLoads)
	}
	// DocumentsLoaded tracks the current corpus size, not a running sum.
	if stats.DocumentsLoaded != 7 {
		t.Errorf("DocumentsLoaded = %d, want 7", stats.DocumentsLoaded)
	}
}

func TestHandleEventDispatch(t *testing.T) {
	agg := NewAggregator()
	handler := HandleEvent(agg)
	ctx := context.Background()

	query, _ := json.Marshal(QueryEvent{
		Type:      EventRetrieve,
		Mode:      "or",
		Keywords:  []string{"cat"},
		Results:   2,
		LatencyMs: 5,
		Timestamp: time.Now().UTC(),
	})
	if err := handler(ctx, []byte("analytics"), query); err != nil {
		t.Fatalf("handler returned error for query event: %v", err)
	}

	load, _ := json.Marshal(LoadEvent{
		Type:      EventLoad,
		Paths:     []string{"/corpus"},
		Documents: 4,
		Tokens:    99,
		Timestamp: time.Now().UTC(),
	})
	if err := handler(ctx, []byte("analytics"), load); err != nil {
		t.Fatalf("handler returned error for load event: %v", err)
	}

	// Malformed payloads are logged and skipped, never fatal to the consumer.
	if err := handler(ctx, []byte("analytics"), []byte("{not json")); err != nil {
		t.Fatalf("handler returned error for malformed payload: %v", err)
	}

	stats := agg.Stats()
	if stats.TotalQueries != 1 {
		t.Errorf("TotalQueries = %d, want 1", stats.TotalQueries)
	}
	if stats.TotalLoads != 1 {
		t.Errorf("TotalLoads = %d, want 1", stats.TotalLoads)
	}
	if stats.DocumentsLoaded != 4 {
		t.Errorf("DocumentsLoaded = %d, want 4", stats.DocumentsLoaded)
	}
}

func TestPercentiles(t *testing.T) {
	agg := NewAggregator()
	for i := int64(1); i <= 100; i++ {
		agg.RecordQuery(QueryEvent{Type: EventWordSearch, Word: "w", Results: 1, LatencyMs: i})
	}
	stats := agg.Stats()
	if stats.P50LatencyMs < 45 || stats.P50LatencyMs > 55 {
		t.Errorf("P50LatencyMs = %d, want around 50", stats.P50LatencyMs)
	}
	if stats.P99LatencyMs < 95 {
		t.Errorf("P99LatencyMs = %d, want >= 95", stats.P99LatencyMs)
	}
}
