// Package fetch retrieves venue program pages as raw markup.
//
// Two interchangeable Fetchers exist: HTTPFetcher for server-rendered pages and
// BrowserFetcher for pages that need JavaScript. Callers only ever see the markup string
// or a *FetchError.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// UserAgent mimics a desktop browser; several venue sites reject unknown clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	DefaultTimeout        = 10 * time.Second
	DefaultBrowserTimeout = 30 * time.Second
)

// ScrollPolicy drives infinite-scroll pages: scroll to the bottom, pause, and stop once
// the page height no longer grows or MaxScrolls is reached.
type ScrollPolicy struct {
	MaxScrolls int
	Pause      time.Duration
}

// Request describes one page retrieval
type Request struct {
	URL string
	// WaitFor is a CSS selector the browser waits for before capturing markup.
	// The direct fetcher ignores it.
	WaitFor string
	Scroll  *ScrollPolicy
	// Timeout overrides the fetcher's default bound for this request
	Timeout time.Duration
}

// Fetcher returns the fully rendered markup for a request or fails with a *FetchError
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies fetch failures
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindStatus     ErrorKind = "status"
	KindTimeout    ErrorKind = "timeout"
	KindNavigation ErrorKind = "navigation"
	KindWait       ErrorKind = "wait"
)

// FetchError reports a document that could not be retrieved.
// Fetch errors are transient: the orchestrator retries the venue once.
type FetchError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err wraps a *FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// classify maps a transport error to timeout or network
func classify(ctx context.Context, err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
