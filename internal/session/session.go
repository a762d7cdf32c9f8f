// Package session ties the loader, frequency analyzer, inverted index, and
// retriever into one explicitly owned session object. Every Load runs the
// full rebuild pipeline; queries serve from the structures the last rebuild
// produced. The session itself is single-threaded — callers that share one
// across goroutines must add their own synchronization.
package session

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/textanasearch/textana/internal/corpus"
	"github.com/textanasearch/textana/internal/frequency"
	"github.com/textanasearch/textana/internal/index"
	"github.com/textanasearch/textana/internal/retriever"
	"github.com/textanasearch/textana/pkg/config"
	apperrors "github.com/textanasearch/textana/pkg/errors"
)

// Mode selects how multi-keyword retrieval combines keywords.
type Mode string

const (
	// ModeOr ranks documents containing at least one keyword.
	ModeOr Mode = "or"
	// ModeAnd ranks only documents containing every keyword.
	ModeAnd Mode = "and"
)

// ParseMode validates a user-supplied retrieval mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeOr:
		return ModeOr, nil
	case ModeAnd:
		return ModeAnd, nil
	default:
		return "", apperrors.InvalidInputf("retrieval mode must be %q or %q, got %q", ModeOr, ModeAnd, s)
	}
}

// LoadStats summarizes a completed load and rebuild.
type LoadStats struct {
	Paths     []string `json:"paths"`
	Documents int      `json:"documents"`
	Tokens    int      `json:"tokens"`
	Terms     int      `json:"terms"`
}

// LineMatch is one occurrence line of a word search, with its raw text for
// context.
type LineMatch struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// WordOccurrences lists where a searched word appears within one document.
type WordOccurrences struct {
	Path  string      `json:"path"`
	Lines []LineMatch `json:"lines"`
}

// Session owns the corpus stores and the structures derived from them.
type Session struct {
	loader    *corpus.Loader
	analyzer  *frequency.Analyzer
	index     *index.InvertedIndex
	retriever *retriever.Retriever
	loaded    bool
	logger    *slog.Logger
}

// New creates an empty session.
func New(cfg config.LoaderConfig) *Session {
	return &Session{
		loader:   corpus.NewLoader(cfg),
		analyzer: frequency.NewAnalyzer(),
		index:    index.Build(nil),
		logger:   slog.Default().With("component", "session"),
	}
}

// Load ingests the given paths and rebuilds index, frequency tables, and
// retriever from the full document stores. On error nothing changes and
// previously loaded documents stay queryable.
func (s *Session) Load(paths []string) (LoadStats, error) {
	loaded, err := s.loader.Load(paths)
	if err != nil {
		return LoadStats{}, err
	}
	s.rebuild()
	stats := LoadStats{
		Paths:     loaded,
		Documents: s.loader.Len(),
		Tokens:    s.tokenCount(),
		Terms:     s.index.Terms(),
	}
	s.logger.Info("corpus rebuilt",
		"documents", stats.Documents,
		"tokens", stats.Tokens,
		"terms", stats.Terms,
	)
	return stats, nil
}

// Recompute rebuilds frequency tables and retriever from the current stores
// without reloading any file.
func (s *Session) Recompute() error {
	if !s.loaded {
		return apperrors.InvalidInputf("no documents loaded")
	}
	s.rebuild()
	return nil
}

func (s *Session) rebuild() {
	s.index = index.Build(s.loader.Lines())
	s.analyzer.ComputePerDocument(s.loader.Documents(), s.loader.Tokens())
	s.analyzer.ComputeCorpus()
	s.retriever = retriever.New(s.index, s.analyzer.DocumentTables())
	s.loaded = true
}

func (s *Session) tokenCount() int {
	total := 0
	for _, toks := range s.loader.Tokens() {
		total += len(toks)
	}
	return total
}

// Loaded reports whether at least one load has completed.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Documents returns the loaded document paths in load order.
func (s *Session) Documents() []string {
	return s.loader.Documents()
}

// SearchWord returns every document and line on which the word occurs,
// with raw line text for context, sorted by document path. An absent word
// yields an empty slice, never an error.
func (s *Session) SearchWord(word string) ([]WordOccurrences, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, apperrors.InvalidInputf("search word must not be empty")
	}
	postings := s.index.Search(word)
	result := make([]WordOccurrences, 0, len(postings))
	lines := s.loader.Lines()
	for path, lineNums := range postings {
		docLines := lines[path]
		matches := make([]LineMatch, 0, len(lineNums))
		for _, num := range lineNums {
			match := LineMatch{Number: num}
			if num >= 1 && num <= len(docLines) {
				match.Text = docLines[num-1]
			}
			matches = append(matches, match)
		}
		result = append(result, WordOccurrences{Path: path, Lines: matches})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

// TopNInCorpus returns the n most frequent words across the corpus.
func (s *Session) TopNInCorpus(n int) ([]frequency.Entry, error) {
	return s.analyzer.TopNInCorpus(n)
}

// TopNInDocument returns the n most frequent words of one document.
func (s *Session) TopNInDocument(path string, n int) ([]frequency.Entry, error) {
	return s.analyzer.TopNInDocument(path, n)
}

// CorpusFrequencies returns the full corpus ranking, for persistence.
func (s *Session) CorpusFrequencies() []frequency.Entry {
	return s.analyzer.CorpusEntries()
}

// CorpusSize returns the number of distinct words in the corpus.
func (s *Session) CorpusSize() int {
	return s.analyzer.CorpusSize()
}

// Terms returns the number of distinct indexed words.
func (s *Session) Terms() int {
	return s.index.Terms()
}

// Retrieve runs a multi-keyword query in the given mode against the current
// retriever snapshot.
func (s *Session) Retrieve(keywords []string, mode Mode) ([]retriever.ScoredDocument, error) {
	if s.retriever == nil {
		return nil, apperrors.InvalidInputf("no documents loaded")
	}
	switch mode {
	case ModeOr:
		return s.retriever.Retrieve(keywords), nil
	case ModeAnd:
		return s.retriever.RetrieveAll(keywords), nil
	default:
		return nil, apperrors.InvalidInputf("retrieval mode must be %q or %q, got %q", ModeOr, ModeAnd, mode)
	}
}
