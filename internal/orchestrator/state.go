package orchestrator

import "fmt"

// State is the lifecycle position of one venue within a run
type State string

const (
	StatePending     State = "PENDING"
	StateAttempted   State = "ATTEMPTED"
	StateSucceeded   State = "SUCCEEDED"
	StateFailed      State = "FAILED"
	StateRetried     State = "RETRIED"
	StateFailedFinal State = "FAILED_FINAL"
)

// IsTerminal reports whether no further attempt will be made
func IsTerminal(s State) bool {
	return s == StateSucceeded || s == StateFailedFinal
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StatePending:
		// a venue without an extractor is terminal before any attempt
		return to == StateAttempted || to == StateFailedFinal
	case StateAttempted:
		return to == StateSucceeded || to == StateFailed
	case StateFailed:
		return to == StateRetried || to == StateFailedFinal
	case StateRetried:
		return to == StateSucceeded || to == StateFailedFinal
	default:
		return false
	}
}

// transition moves an outcome to a new state, recording the path taken
func (o *Outcome) transition(to State) error {
	if !isAllowedTransition(o.State, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", o.Venue, o.State, to)
	}
	o.State = to
	o.History = append(o.History, to)
	return nil
}
