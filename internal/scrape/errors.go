package scrape

import (
	"errors"
	"fmt"
)

// ErrInvalidSource indicates the requested URL is outside the allowed
// source pattern. Surfaced verbatim to the caller as a client error.
var ErrInvalidSource = errors.New("url must be a wikipedia article URL (https://<lang>.wikipedia.org/wiki/...)")

// ErrNotModified indicates the origin answered 304 for our stored
// validators but no cached body is available to serve the request.
// This is distinct from an empty successful fetch.
var ErrNotModified = errors.New("content not modified; cached copy required for processing")

// FetchError indicates the origin answered with a non-success status or the
// transport failed.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("failed to fetch article: status %d", e.Status)
	}
	return fmt.Sprintf("failed to fetch article: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
