// Package retriever answers multi-keyword document queries over a snapshot
// of the inverted index and the per-document frequency tables.
package retriever

import (
	"sort"
	"strings"

	"github.com/textanasearch/textana/internal/frequency"
	"github.com/textanasearch/textana/internal/index"
)

// ScoredDocument is one ranked retrieval result. Score is the sum of the
// matched keywords' term frequencies in the document.
type ScoredDocument struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// Retriever serves ranked queries against the index and frequency snapshot
// it was constructed with. After a corpus rebuild a new Retriever must be
// constructed; existing ones keep answering from the old snapshot.
type Retriever struct {
	index *index.InvertedIndex
	freq  map[string]*frequency.Table
}

// New constructs a Retriever over the given snapshots.
func New(ix *index.InvertedIndex, freq map[string]*frequency.Table) *Retriever {
	return &Retriever{index: ix, freq: freq}
}

// Retrieve ranks documents containing at least one of the keywords (OR
// mode). Each keyword adds its per-document term frequency to the score of
// every document it appears in; keywords absent from the index contribute
// nothing and are silently skipped. An empty keyword list yields an empty
// result.
func (r *Retriever) Retrieve(keywords []string) []ScoredDocument {
	if len(keywords) == 0 {
		return []ScoredDocument{}
	}
	scores := make(map[string]int)
	for _, kw := range keywords {
		word := strings.ToLower(kw)
		for path := range r.index.Search(word) {
			scores[path] += r.count(path, word)
		}
	}
	return ranked(scores)
}

// RetrieveAll ranks only documents containing every keyword (AND mode),
// scoring them exactly like Retrieve. Any keyword entirely absent from the
// index empties the intersection. An empty keyword list yields an empty
// result.
func (r *Retriever) RetrieveAll(keywords []string) []ScoredDocument {
	if len(keywords) == 0 {
		return []ScoredDocument{}
	}

	words := make([]string, len(keywords))
	docSets := make([]map[string]struct{}, len(keywords))
	for i, kw := range keywords {
		words[i] = strings.ToLower(kw)
		postings := r.index.Search(words[i])
		if len(postings) == 0 {
			return []ScoredDocument{}
		}
		set := make(map[string]struct{}, len(postings))
		for path := range postings {
			set[path] = struct{}{}
		}
		docSets[i] = set
	}

	// Intersect starting from the smallest candidate set.
	smallest := 0
	for i, set := range docSets {
		if len(set) < len(docSets[smallest]) {
			smallest = i
		}
	}
	intersection := make(map[string]struct{}, len(docSets[smallest]))
	for path := range docSets[smallest] {
		intersection[path] = struct{}{}
	}
	for i, set := range docSets {
		if i == smallest {
			continue
		}
		for path := range intersection {
			if _, ok := set[path]; !ok {
				delete(intersection, path)
			}
		}
	}

	scores := make(map[string]int, len(intersection))
	for path := range intersection {
		total := 0
		for _, word := range words {
			total += r.count(path, word)
		}
		scores[path] = total
	}
	return ranked(scores)
}

func (r *Retriever) count(path, word string) int {
	table, ok := r.freq[path]
	if !ok {
		return 0
	}
	return table.Count(word)
}

// ranked sorts by score descending with document path ascending as the
// deterministic tie-break.
func ranked(scores map[string]int) []ScoredDocument {
	result := make([]ScoredDocument, 0, len(scores))
	for path, score := range scores {
		result = append(result, ScoredDocument{Path: path, Score: score})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Path < result[j].Path
	})
	return result
}
