// Package index builds the word-level inverted index: word → document →
// ascending 1-based line numbers.
package index

import (
	"strings"

	"github.com/textanasearch/textana/internal/corpus"
)

// Postings maps a document path to the 1-based line numbers on which a word
// occurs. A word occurring twice on one line lists that line number twice.
type Postings map[string][]int

// InvertedIndex answers "which documents and lines contain this word".
// Instances are immutable once built; a corpus change means building a new
// one, so stale holders keep serving the old snapshot.
type InvertedIndex struct {
	entries map[string]Postings
}

// Build constructs a fresh index from the full per-document line store.
// Every line is normalized and tokenized the same way document text is, and
// each token occurrence appends the current line number.
func Build(docLines map[string][]string) *InvertedIndex {
	ix := &InvertedIndex{entries: make(map[string]Postings)}
	for path, lines := range docLines {
		for i, line := range lines {
			lineNo := i + 1
			for _, word := range corpus.Tokenize(line) {
				postings, ok := ix.entries[word]
				if !ok {
					postings = make(Postings)
					ix.entries[word] = postings
				}
				postings[path] = append(postings[path], lineNo)
			}
		}
	}
	return ix
}

// Search returns the postings for word after lowercasing it, or an empty
// mapping if the word is absent. The result is a copy; mutating it does not
// affect the index.
func (ix *InvertedIndex) Search(word string) Postings {
	postings, ok := ix.entries[strings.ToLower(word)]
	if !ok {
		return Postings{}
	}
	out := make(Postings, len(postings))
	for path, lineNums := range postings {
		nums := make([]int, len(lineNums))
		copy(nums, lineNums)
		out[path] = nums
	}
	return out
}

// Contains reports whether the lowercased word has an index entry.
func (ix *InvertedIndex) Contains(word string) bool {
	_, ok := ix.entries[strings.ToLower(word)]
	return ok
}

// Terms returns the number of distinct indexed words.
func (ix *InvertedIndex) Terms() int {
	return len(ix.entries)
}
