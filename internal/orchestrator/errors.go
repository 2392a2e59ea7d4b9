package orchestrator

import (
	"errors"
	"fmt"
)

// ErrNoExtractor marks venues the run cannot handle at all
var ErrNoExtractor = errors.New("no extractor")

// NoExtractorError means no strategy can serve a venue: no captured data, no parser, or a
// parser that needs the browser while it is disabled. It is terminal and never retried.
type NoExtractorError struct {
	Venue  string
	Reason string
}

func (e *NoExtractorError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s for venue %q", ErrNoExtractor, e.Venue)
	}
	return fmt.Sprintf("%s for venue %q: %s", ErrNoExtractor, e.Venue, e.Reason)
}

func (e *NoExtractorError) Unwrap() error { return ErrNoExtractor }
