package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/textanasearch/textana/pkg/config"
	apperrors "github.com/textanasearch/textana/pkg/errors"
)

func testLoaderConfig() config.LoaderConfig {
	return config.LoaderConfig{
		Extensions:     []string{".txt"},
		EncodingPolicy: config.EncodingDrop,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "The cat sat.\nThe cat ran!\n")

	l := NewLoader(testLoaderConfig())
	committed, err := l.Load([]string{path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(committed, []string{path}) {
		t.Errorf("committed = %v, want [%s]", committed, path)
	}

	wantLines := []string{"The cat sat.", "The cat ran!"}
	if got := l.Lines()[path]; !reflect.DeepEqual(got, wantLines) {
		t.Errorf("Lines()[%s] = %v, want %v", path, got, wantLines)
	}
	wantTokens := []string{"the", "cat", "sat", "the", "cat", "ran"}
	if got := l.Tokens()[path]; !reflect.DeepEqual(got, wantTokens) {
		t.Errorf("Tokens()[%s] = %v, want %v", path, got, wantTokens)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLoadDirectoryRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, sub, "b.txt", "beta")
	writeFile(t, dir, "skip.md", "not a text document")

	l := NewLoader(testLoaderConfig())
	committed, err := l.Load([]string{dir})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(committed) != 2 {
		t.Fatalf("committed %d documents, want 2: %v", len(committed), committed)
	}
}

func TestLoadMissingPathAborts(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.txt", "alpha")

	l := NewLoader(testLoaderConfig())
	_, err := l.Load([]string{good, filepath.Join(dir, "missing.txt")})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
	// The eligible file listed alongside the bad path must not be committed.
	if l.Len() != 0 {
		t.Errorf("Len() = %d after failed load, want 0", l.Len())
	}
}

func TestLoadIneligibleExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "alpha")

	l := NewLoader(testLoaderConfig())
	_, err := l.Load([]string{path})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
}

func TestLoadFailureKeepsEarlierDocuments(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.txt", "alpha")

	l := NewLoader(testLoaderConfig())
	if _, err := l.Load([]string{first}); err != nil {
		t.Fatalf("first Load returned error: %v", err)
	}
	if _, err := l.Load([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Fatal("second Load succeeded, want error")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (first load must survive)", l.Len())
	}
	if got := l.Raw()[first]; got != "alpha" {
		t.Errorf("Raw()[%s] = %q, want %q", first, got, "alpha")
	}
}

func TestLoadSamePathOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "old content")

	l := NewLoader(testLoaderConfig())
	if _, err := l.Load([]string{path}); err != nil {
		t.Fatal(err)
	}
	other := writeFile(t, dir, "b.txt", "other")
	if _, err := l.Load([]string{other}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "a.txt", "new content")
	if _, err := l.Load([]string{path}); err != nil {
		t.Fatal(err)
	}

	if got := l.Raw()[path]; got != "new content" {
		t.Errorf("Raw()[%s] = %q, want %q", path, got, "new content")
	}
	// Reloading a known path keeps its original position.
	wantOrder := []string{path, other}
	if got := l.Documents(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("Documents() = %v, want %v", got, wantOrder)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
}

func TestLoadTrailingNewlineAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "first\r\nsecond\r\n")

	l := NewLoader(testLoaderConfig())
	if _, err := l.Load([]string{path}); err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second"}
	if got := l.Lines()[path]; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines()[%s] = %v, want %v", path, got, want)
	}
}

func TestEncodingPolicyDrop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	// "caf" + invalid byte + "e corpus"
	data := append([]byte("caf"), 0xff)
	data = append(data, []byte("e corpus")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(testLoaderConfig())
	if _, err := l.Load([]string{path}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"cafe", "corpus"}
	if got := l.Tokens()[path]; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens()[%s] = %v, want %v", path, got, want)
	}
}

func TestEncodingPolicyFail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte{'a', 0xff, 'b'}, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testLoaderConfig()
	cfg.EncodingPolicy = config.EncodingFail
	l := NewLoader(cfg)
	_, err := l.Load([]string{path})
	if !errors.Is(err, apperrors.ErrIOFailure) {
		t.Fatalf("Load error = %v, want ErrIOFailure", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d after failed load, want 0", l.Len())
	}
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "")

	l := NewLoader(testLoaderConfig())
	if _, err := l.Load([]string{path}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := l.Lines()[path]; len(got) != 0 {
		t.Errorf("Lines()[%s] = %v, want empty", path, got)
	}
	if got := l.Tokens()[path]; len(got) != 0 {
		t.Errorf("Tokens()[%s] = %v, want empty", path, got)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (empty documents still count)", l.Len())
	}
}
