// Package analytics collects query and load events, publishes them to Kafka,
// and aggregates the stream into usage statistics.
package analytics

import "time"

// EventType distinguishes analytics event payloads.
type EventType string

const (
	EventWordSearch EventType = "word_search"
	EventRetrieve   EventType = "retrieve"
	EventTopN       EventType = "top_n"
	EventLoad       EventType = "corpus_load"
)

// QueryEvent describes one served query.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Mode      string    `json:"mode,omitempty"`
	Word      string    `json:"word,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Results   int       `json:"results"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// LoadEvent describes one completed corpus load.
type LoadEvent struct {
	Type      EventType `json:"type"`
	Paths     []string  `json:"paths"`
	Documents int       `json:"documents"`
	Tokens    int       `json:"tokens"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}
