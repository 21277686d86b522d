package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/garnizeh/pawfect/internal/apperr"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindAuth, http.StatusUnauthorized},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindClassifier, http.StatusInternalServerError},
		{apperr.KindParse, http.StatusInternalServerError},
		{apperr.KindStorage, http.StatusInternalServerError},
		{apperr.KindDelivery, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.want {
				t.Fatalf("status for %s: want %d got %d", tt.kind, tt.want, got)
			}
		})
	}
}

func TestKindOfAndMessage_ThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("submit: %w", apperr.Wrap(apperr.KindStorage, "Failed to submit adoption request", cause))

	if k := apperr.KindOf(err); k != apperr.KindStorage {
		t.Fatalf("expected storage kind, got %s", k)
	}
	if m := apperr.Message(err); m != "Failed to submit adoption request" {
		t.Fatalf("unexpected message %q", m)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if !apperr.Is(err, apperr.KindStorage) || apperr.Is(err, apperr.KindParse) {
		t.Fatalf("Is reported the wrong kind")
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	err := errors.New("boom")
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("foreign errors must map to internal")
	}
	if apperr.Message(err) == "boom" {
		t.Fatalf("foreign error text must not leak")
	}
}
