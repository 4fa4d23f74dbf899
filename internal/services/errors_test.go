package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"quill/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStoreLocked, "workbook", "mark done", "file in use", base)
	if !errors.Is(err, services.ErrStoreLocked) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"workbook", "mark done", "file in use", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerOrCause(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if err == nil || err.Error() != "service failure" {
		t.Fatalf("unexpected error %v", err)
	}
	if services.Classify(err) != services.KindTransient {
		t.Fatalf("untagged error should be transient")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, services.KindNone},
		{"rate limited", services.Wrap(services.ErrRateLimited, "poster", "post", "429", nil), services.KindRateLimited},
		{"locked", services.Wrap(services.ErrStoreLocked, "workbook", "open", "", nil), services.KindLocked},
		{"unavailable", services.Wrap(services.ErrStoreUnavailable, "sheets", "open", "not found", nil), services.KindUnavailable},
		{"configuration", services.Wrap(services.ErrConfiguration, "queueaccess", "open", "", nil), services.KindUnavailable},
		{"post failed", services.Wrap(services.ErrPostFailed, "poster", "post", "401", nil), services.KindPostFailed},
		{"double wrapped", fmt.Errorf("cycle: %w", services.Wrap(services.ErrRateLimited, "", "", "", nil)), services.KindRateLimited},
		{"plain", errors.New("disk full"), services.KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
