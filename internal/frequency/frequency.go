// Package frequency computes per-document and corpus-wide word frequency
// tables and answers top-N queries over them.
package frequency

import (
	"log/slog"
	"sort"

	apperrors "github.com/textanasearch/textana/pkg/errors"
)

// Entry is one (word, count) pair of a frequency ranking.
type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Table counts word occurrences while remembering the order in which words
// were first seen, so that equal counts rank in first-encountered order.
type Table struct {
	counts map[string]int
	order  []string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{counts: make(map[string]int)}
}

// Add counts one occurrence of word.
func (t *Table) Add(word string) {
	if _, seen := t.counts[word]; !seen {
		t.order = append(t.order, word)
	}
	t.counts[word]++
}

// Merge adds every count of other into t, preserving t's first-encounter
// order for words both tables share.
func (t *Table) Merge(other *Table) {
	for _, word := range other.order {
		if _, seen := t.counts[word]; !seen {
			t.order = append(t.order, word)
		}
		t.counts[word] += other.counts[word]
	}
}

// Count returns the occurrence count for word, zero if absent.
func (t *Table) Count(word string) int {
	return t.counts[word]
}

// Len returns the number of distinct words.
func (t *Table) Len() int {
	return len(t.counts)
}

// TopN returns up to n entries sorted by count descending; equal counts keep
// their first-encountered order. An n larger than the distinct-word count
// returns every entry.
func (t *Table) TopN(n int) []Entry {
	entries := t.Entries()
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Entries returns the full ranking of the table.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, len(t.order))
	for i, word := range t.order {
		entries[i] = Entry{Word: word, Count: t.counts[word]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// Analyzer owns the per-document and corpus frequency tables. Both are
// rebuilt wholesale by their compute calls; computing the corpus table
// without per-document tables yields an empty table, so callers must order
// the two calls.
type Analyzer struct {
	perDoc   map[string]*Table
	docOrder []string
	corpus   *Table
	logger   *slog.Logger
}

// NewAnalyzer returns an Analyzer with empty tables.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		perDoc: make(map[string]*Table),
		corpus: NewTable(),
		logger: slog.Default().With("component", "frequency"),
	}
}

// ComputePerDocument builds a fresh count table for every document from its
// token sequence, replacing all prior per-document state. docs fixes the
// document order used when the corpus table is aggregated.
func (a *Analyzer) ComputePerDocument(docs []string, tokens map[string][]string) {
	a.perDoc = make(map[string]*Table, len(docs))
	a.docOrder = make([]string, len(docs))
	copy(a.docOrder, docs)
	for _, doc := range docs {
		table := NewTable()
		for _, tok := range tokens[doc] {
			table.Add(tok)
		}
		a.perDoc[doc] = table
	}
	a.logger.Debug("per-document frequencies computed", "documents", len(docs))
}

// ComputeCorpus aggregates the current per-document tables into a fresh
// corpus table. The corpus count of every word equals the sum of its
// per-document counts.
func (a *Analyzer) ComputeCorpus() {
	corpus := NewTable()
	for _, doc := range a.docOrder {
		corpus.Merge(a.perDoc[doc])
	}
	a.corpus = corpus
	a.logger.Debug("corpus frequencies computed", "distinct_words", corpus.Len())
}

// TopNInDocument returns the n most frequent words of the given document.
// It fails with NotFound if the document was never analyzed and with
// InvalidInput for negative n.
func (a *Analyzer) TopNInDocument(path string, n int) ([]Entry, error) {
	if n < 0 {
		return nil, apperrors.InvalidInputf("top-n count must not be negative, got %d", n)
	}
	table, ok := a.perDoc[path]
	if !ok {
		return nil, apperrors.NotFoundf("document %q was never analyzed", path)
	}
	return table.TopN(n), nil
}

// TopNInCorpus returns the n most frequent words across all documents.
func (a *Analyzer) TopNInCorpus(n int) ([]Entry, error) {
	if n < 0 {
		return nil, apperrors.InvalidInputf("top-n count must not be negative, got %d", n)
	}
	return a.corpus.TopN(n), nil
}

// CorpusEntries returns the full corpus ranking, for result persistence.
func (a *Analyzer) CorpusEntries() []Entry {
	return a.corpus.Entries()
}

// CorpusSize returns the number of distinct words in the corpus table.
func (a *Analyzer) CorpusSize() int {
	return a.corpus.Len()
}

// DocumentTables returns the per-document tables. The returned map is the
// snapshot a Retriever is constructed over; recomputation installs a new map
// and never mutates a handed-out one.
func (a *Analyzer) DocumentTables() map[string]*Table {
	return a.perDoc
}

// Documents returns the analyzed document paths in analysis order.
func (a *Analyzer) Documents() []string {
	out := make([]string, len(a.docOrder))
	copy(out, a.docOrder)
	return out
}
