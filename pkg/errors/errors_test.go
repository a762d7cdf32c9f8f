package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSentinelWrapping(t *testing.T) {
	err := NotFoundf("document %q was never analyzed", "a.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFoundf result does not match ErrNotFound: %v", err)
	}
	if !errors.Is(IOFailuref("reading %q", "a.txt"), ErrIOFailure) {
		t.Error("IOFailuref result does not match ErrIOFailure")
	}
	if !errors.Is(InvalidInputf("bad n"), ErrInvalidInput) {
		t.Error("InvalidInputf result does not match ErrInvalidInput")
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFoundf("missing"), http.StatusNotFound},
		{"invalid input", InvalidInputf("bad"), http.StatusBadRequest},
		{"io failure", IOFailuref("disk"), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("outer: %w", NotFoundf("inner")), http.StatusNotFound},
		{"bare sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"unknown", errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := Newf(ErrNotFound, http.StatusNotFound, "path %q does not exist", "/x")
	want := `not found: path "/x" does not exist`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
