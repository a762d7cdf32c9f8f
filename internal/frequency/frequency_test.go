package frequency

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	apperrors "github.com/textanasearch/textana/pkg/errors"
)

func TestTableTopN(t *testing.T) {
	table := NewTable()
	for _, w := range []string{"cat", "dog", "cat", "bird", "cat", "dog"} {
		table.Add(w)
	}

	got, want := table.TopN(2), []Entry{{"cat", 3}, {"dog", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopN(2) = %v, want %v", got, want)
	}

	// An oversized n returns the full ranking, no error.
	got = table.TopN(100)
	want = []Entry{{"cat", 3}, {"dog", 2}, {"bird", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopN(100) = %v, want %v", got, want)
	}

	if got := table.TopN(0); len(got) != 0 {
		t.Errorf("TopN(0) = %v, want empty", got)
	}
}

func TestTableTieBreakIsFirstEncounterOrder(t *testing.T) {
	table := NewTable()
	for _, w := range []string{"zebra", "apple", "mango", "zebra", "apple", "mango"} {
		table.Add(w)
	}
	// All counts equal: the ranking keeps the order words were first seen,
	// not lexicographic order.
	want := []Entry{{"zebra", 2}, {"apple", 2}, {"mango", 2}}
	if got := table.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestMergePreservesOrderAndSums(t *testing.T) {
	a := NewTable()
	for _, w := range []string{"cat", "dog"} {
		a.Add(w)
	}
	b := NewTable()
	for _, w := range []string{"dog", "bird", "dog"} {
		b.Add(w)
	}
	a.Merge(b)

	if got := a.Count("dog"); got != 3 {
		t.Errorf("Count(dog) = %d, want 3", got)
	}
	want := []Entry{{"dog", 3}, {"cat", 1}, {"bird", 1}}
	if got := a.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestAnalyzerPerDocumentAndCorpus(t *testing.T) {
	a := NewAnalyzer()
	docs := []string{"a.txt", "b.txt"}
	tokens := map[string][]string{
		"a.txt": {"the", "cat", "sat", "the", "cat", "ran"},
		"b.txt": {"the", "dog", "ran"},
	}
	a.ComputePerDocument(docs, tokens)
	a.ComputeCorpus()

	entries, err := a.TopNInDocument("a.txt", 2)
	if err != nil {
		t.Fatalf("TopNInDocument returned error: %v", err)
	}
	want := []Entry{{"the", 2}, {"cat", 2}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("TopNInDocument(a.txt, 2) = %v, want %v", entries, want)
	}

	entries, err = a.TopNInCorpus(1)
	if err != nil {
		t.Fatalf("TopNInCorpus returned error: %v", err)
	}
	if !reflect.DeepEqual(entries, []Entry{{"the", 3}}) {
		t.Errorf("TopNInCorpus(1) = %v, want [{the 3}]", entries)
	}
	if a.CorpusSize() != 5 {
		t.Errorf("CorpusSize() = %d, want 5", a.CorpusSize())
	}
}

func TestAnalyzerErrors(t *testing.T) {
	a := NewAnalyzer()
	a.ComputePerDocument([]string{"a.txt"}, map[string][]string{"a.txt": {"word"}})
	a.ComputeCorpus()

	if _, err := a.TopNInDocument("unknown.txt", 3); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("TopNInDocument(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := a.TopNInDocument("a.txt", -1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("TopNInDocument(n=-1) error = %v, want ErrInvalidInput", err)
	}
	if _, err := a.TopNInCorpus(-5); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("TopNInCorpus(n=-5) error = %v, want ErrInvalidInput", err)
	}
}

// The corpus count of every word must equal the sum of its per-document
// counts, whatever the corpus looks like.
func TestCorpusCountsAreSumOfDocumentCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocabulary := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}

	docs := make([]string, 8)
	tokens := make(map[string][]string, len(docs))
	for i := range docs {
		doc := string(rune('a'+i)) + ".txt"
		docs[i] = doc
		n := rng.Intn(200)
		toks := make([]string, n)
		for j := range toks {
			toks[j] = vocabulary[rng.Intn(len(vocabulary))]
		}
		tokens[doc] = toks
	}

	a := NewAnalyzer()
	a.ComputePerDocument(docs, tokens)
	a.ComputeCorpus()

	for _, word := range vocabulary {
		sum := 0
		for _, doc := range docs {
			table := a.DocumentTables()[doc]
			sum += table.Count(word)
		}
		corpusEntries := a.CorpusEntries()
		got := 0
		for _, e := range corpusEntries {
			if e.Word == word {
				got = e.Count
				break
			}
		}
		if got != sum {
			t.Errorf("corpus count of %q = %d, want sum of document counts %d", word, got, sum)
		}
	}
}

func TestComputeReplacesPriorState(t *testing.T) {
	a := NewAnalyzer()
	a.ComputePerDocument([]string{"a.txt"}, map[string][]string{"a.txt": {"old"}})
	a.ComputeCorpus()

	snapshot := a.DocumentTables()

	a.ComputePerDocument([]string{"b.txt"}, map[string][]string{"b.txt": {"new"}})
	a.ComputeCorpus()

	// The handed-out snapshot still answers from the old state.
	if snapshot["a.txt"].Count("old") != 1 {
		t.Error("prior snapshot was mutated by recompute")
	}
	if _, ok := a.DocumentTables()["a.txt"]; ok {
		t.Error("recompute kept a document that is no longer analyzed")
	}
	if a.CorpusSize() != 1 {
		t.Errorf("CorpusSize() = %d, want 1", a.CorpusSize())
	}
}
