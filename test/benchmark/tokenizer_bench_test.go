package benchmark

import (
	"strings"
	"testing"

	"github.com/textanasearch/textana/internal/corpus"
)

// BenchmarkTokenize measures tokenization throughput on a mixed-case,
// punctuation-heavy paragraph.
func BenchmarkTokenize(b *testing.B) {
	text := strings.Repeat("The Corpus-Loader reads files, splits Lines; then Tokens are counted! ", 50)
	b.SetBytes(int64(len(text)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokens := corpus.Tokenize(text)
		_ = tokens
	}
}

// BenchmarkNormalize measures the normalization pass alone.
func BenchmarkNormalize(b *testing.B) {
	text := strings.Repeat("Mixed CASE text, with punctuation! And unicode: café déjà. ", 50)
	b.SetBytes(int64(len(text)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		normalized := corpus.Normalize(text)
		_ = normalized
	}
}
