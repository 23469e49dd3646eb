package net_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	perr "tokeisrv/internal/platform/errors"
	pnet "tokeisrv/internal/platform/net"
)

func TestOK(t *testing.T) {
	status, w := pnet.OK(map[string]any{"size": 1}, "req-1")
	if status != http.StatusOK || w.StatusCode != http.StatusOK || w.Status != "OK" {
		t.Fatalf("wire status mismatch: %d %+v", status, w)
	}
	if w.RequestID != "req-1" {
		t.Fatalf("req id %q", w.RequestID)
	}
	if got, ok := w.Data.(map[string]any)["size"]; !ok || got != 1 {
		t.Fatalf("data mismatch: %+v", w.Data)
	}
}

func TestError_NilFallsBackToOK(t *testing.T) {
	status, w := pnet.Error(nil, "req-4")
	if status != http.StatusOK || w.Error != "" || w.Code != 0 {
		t.Fatalf("unexpected envelope %d %+v", status, w)
	}
}

func TestError_ProjectErrorMapped(t *testing.T) {
	err := perr.WithField(perr.Validationf("category must be one of lines code blanks comments files"), "category")

	status, w := pnet.Error(err, "req-5")

	if status != http.StatusBadRequest || w.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d want %d", status, http.StatusBadRequest)
	}
	if w.Status != http.StatusText(http.StatusBadRequest) || w.RequestID != "req-5" {
		t.Fatalf("wire mismatch: %+v", w)
	}
	if w.Code != perr.ErrorCodeValidation || w.Field != "category" || w.Error == "" {
		t.Fatalf("error fields mismatch: %+v", w)
	}
	if w.Data != nil {
		t.Fatalf("expected data to be nil on error, got %v", w.Data)
	}
}

func statusOf(err error) int {
	status, _ := pnet.Error(err, "")
	return status
}

func TestError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
		{"forbidden", perr.Forbiddenf("owner not whitelisted"), http.StatusForbidden},
		{"upstream", perr.Upstreamf("clone failed"), http.StatusBadGateway},
		{"deadline", fmt.Errorf("head: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(tt.err); got != tt.want {
				t.Fatalf("want %d got %d", tt.want, got)
			}
		})
	}
}
