package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStoreUnavailable marks a missing spreadsheet, sheet, workbook, or a table
	// without the required columns. Operators must fix the data or config.
	ErrStoreUnavailable = errors.New("content store unavailable")
	// ErrStoreLocked marks a store held by another writer. Transient.
	ErrStoreLocked = errors.New("content store locked")
	// ErrRateLimited marks a "too many requests" answer from the posting API.
	ErrRateLimited = errors.New("rate limited")
	// ErrPostFailed marks any other posting API failure (network, auth, rejected content).
	ErrPostFailed = errors.New("post failed")
	// ErrConfiguration marks unusable settings detected at runtime.
	ErrConfiguration = errors.New("configuration error")
)

// Kind is the poster loop's view of a failure.
type Kind string

const (
	KindNone        Kind = ""
	KindUnavailable Kind = "store_unavailable"
	KindLocked      Kind = "store_locked"
	KindRateLimited Kind = "rate_limited"
	KindPostFailed  Kind = "post_failed"
	KindTransient   Kind = "transient"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the handling kind the poster loop switches on.
// Configuration errors count as an unavailable store: nothing can be read until
// an operator intervenes. Untagged errors are transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrStoreLocked):
		return KindLocked
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrConfiguration):
		return KindUnavailable
	case errors.Is(err, ErrPostFailed):
		return KindPostFailed
	default:
		return KindTransient
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
