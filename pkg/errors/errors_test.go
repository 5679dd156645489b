package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate document", fmt.Errorf("build: %w", ErrDocumentExists), http.StatusConflict},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"undefined weight", fmt.Errorf("idf: %w", ErrUndefined), http.StatusBadRequest},
		{"empty index", ErrEmptyIndex, http.StatusUnprocessableEntity},
		{"not ready", ErrIndexNotReady, http.StatusServiceUnavailable},
		{"corrupt", ErrCorruptIndex, http.StatusInternalServerError},
		{"app error wins", New(ErrCorruptIndex, http.StatusTeapot, "x"), http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorfUnwraps(t *testing.T) {
	err := Errorf(ErrDocumentExists, "document %q", "d1")
	if !errors.Is(err, ErrDocumentExists) {
		t.Fatalf("errors.Is(%v, ErrDocumentExists) = false", err)
	}
	if err.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want %d", err.StatusCode, http.StatusConflict)
	}
	if got, want := err.Error(), `document already exists: document "d1"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
