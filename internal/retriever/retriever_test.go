package retriever

import (
	"reflect"
	"testing"

	"github.com/textanasearch/textana/internal/frequency"
	"github.com/textanasearch/textana/internal/index"
)

// newTestRetriever builds a retriever over three documents:
//
//	a.txt: cat cat dog
//	b.txt: cat bird
//	c.txt: dog dog dog
func newTestRetriever() *Retriever {
	lines := map[string][]string{
		"a.txt": {"cat cat dog"},
		"b.txt": {"cat bird"},
		"c.txt": {"dog dog dog"},
	}
	tokens := map[string][]string{
		"a.txt": {"cat", "cat", "dog"},
		"b.txt": {"cat", "bird"},
		"c.txt": {"dog", "dog", "dog"},
	}
	freq := make(map[string]*frequency.Table, len(tokens))
	for doc, toks := range tokens {
		table := frequency.NewTable()
		for _, tok := range toks {
			table.Add(tok)
		}
		freq[doc] = table
	}
	return New(index.Build(lines), freq)
}

func TestRetrieveOrMode(t *testing.T) {
	r := newTestRetriever()

	got := r.Retrieve([]string{"cat", "dog"})
	want := []ScoredDocument{
		{Path: "a.txt", Score: 3}, // cat 2 + dog 1
		{Path: "c.txt", Score: 3}, // dog 3
		{Path: "b.txt", Score: 1}, // cat 1
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Retrieve(cat, dog) = %v, want %v", got, want)
	}
}

func TestRetrieveSkipsAbsentKeywords(t *testing.T) {
	r := newTestRetriever()

	withAbsent := r.Retrieve([]string{"cat", "zebra"})
	without := r.Retrieve([]string{"cat"})
	if !reflect.DeepEqual(withAbsent, without) {
		t.Errorf("absent keyword changed the ranking: %v vs %v", withAbsent, without)
	}

	if got := r.Retrieve([]string{"zebra"}); len(got) != 0 {
		t.Errorf("Retrieve(zebra) = %v, want empty", got)
	}
}

func TestRetrieveEmptyKeywords(t *testing.T) {
	r := newTestRetriever()
	if got := r.Retrieve(nil); len(got) != 0 {
		t.Errorf("Retrieve(nil) = %v, want empty", got)
	}
	if got := r.RetrieveAll(nil); len(got) != 0 {
		t.Errorf("RetrieveAll(nil) = %v, want empty", got)
	}
}

func TestRetrieveAllIntersects(t *testing.T) {
	r := newTestRetriever()

	got := r.RetrieveAll([]string{"cat", "dog"})
	// Only a.txt has both; score sums both keywords.
	want := []ScoredDocument{{Path: "a.txt", Score: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RetrieveAll(cat, dog) = %v, want %v", got, want)
	}
}

func TestRetrieveAllAbsentKeywordEmptiesResult(t *testing.T) {
	r := newTestRetriever()
	if got := r.RetrieveAll([]string{"cat", "zebra"}); len(got) != 0 {
		t.Errorf("RetrieveAll(cat, zebra) = %v, want empty", got)
	}
}

func TestRetrieveIsCaseInsensitive(t *testing.T) {
	r := newTestRetriever()
	upper := r.Retrieve([]string{"CAT"})
	lower := r.Retrieve([]string{"cat"})
	if !reflect.DeepEqual(upper, lower) {
		t.Errorf("keyword case changed the ranking: %v vs %v", upper, lower)
	}
}

func TestTieBreakByPath(t *testing.T) {
	r := newTestRetriever()
	// a.txt and c.txt tie at 3: the tie resolves by ascending path.
	got := r.Retrieve([]string{"cat", "dog"})
	if len(got) < 2 || got[0].Path != "a.txt" || got[1].Path != "c.txt" {
		t.Errorf("equal scores not ordered by path: %v", got)
	}
}

// Every AND result must also appear in the OR result for the same keywords,
// with the same score.
func TestAndResultsSubsetOfOr(t *testing.T) {
	r := newTestRetriever()
	keywords := []string{"cat", "dog"}

	orScores := make(map[string]int)
	for _, doc := range r.Retrieve(keywords) {
		orScores[doc.Path] = doc.Score
	}
	for _, doc := range r.RetrieveAll(keywords) {
		orScore, ok := orScores[doc.Path]
		if !ok {
			t.Errorf("AND result %s missing from OR result", doc.Path)
			continue
		}
		if doc.Score != orScore {
			t.Errorf("AND score for %s = %d, OR score = %d", doc.Path, doc.Score, orScore)
		}
	}
}

// Adding a keyword in OR mode never decreases any document's score.
func TestOrScoreMonotonicity(t *testing.T) {
	r := newTestRetriever()

	base := make(map[string]int)
	for _, doc := range r.Retrieve([]string{"cat"}) {
		base[doc.Path] = doc.Score
	}
	for _, doc := range r.Retrieve([]string{"cat", "dog", "bird"}) {
		if doc.Score < base[doc.Path] {
			t.Errorf("score for %s dropped from %d to %d after adding keywords", doc.Path, base[doc.Path], doc.Score)
		}
	}
}

func TestRepeatedKeywordCountsTwice(t *testing.T) {
	r := newTestRetriever()
	once := r.Retrieve([]string{"cat"})
	twice := r.Retrieve([]string{"cat", "cat"})
	for i := range twice {
		if twice[i].Score != 2*once[i].Score {
			t.Errorf("repeated keyword: score for %s = %d, want %d", twice[i].Path, twice[i].Score, 2*once[i].Score)
		}
	}
}
