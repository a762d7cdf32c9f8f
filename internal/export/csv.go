// Package export persists corpus frequency rankings: a two-column CSV file
// sink and a PostgreSQL snapshot sink.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/textanasearch/textana/internal/frequency"
	apperrors "github.com/textanasearch/textana/pkg/errors"
)

// WriteCSV writes the ranking to path as a header line followed by one
// "word,count" row per entry. Failures surface as IOFailure with the
// offending path; the caller's session stays usable.
func WriteCSV(path string, entries []frequency.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.IOFailuref("creating %q: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"word", "count"}); err != nil {
		return apperrors.IOFailuref("writing header to %q: %v", path, err)
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Word, strconv.Itoa(e.Count)}); err != nil {
			return apperrors.IOFailuref("writing entry to %q: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.IOFailuref("flushing %q: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.IOFailuref("closing %q: %v", path, err)
	}
	return nil
}
