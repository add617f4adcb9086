package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid request")

// UpstreamError is returned when the places provider could not be reached
// (Status == 0) or answered with a non-2xx status.
type UpstreamError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RenderError wraps a failure of a single aggregator action. Accumulated
// state is never mutated when one is produced.
type RenderError struct {
	Op  string // "search" | "load more"
	Err error
}

func (e *RenderError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }
