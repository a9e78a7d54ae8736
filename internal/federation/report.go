package federation

import "time"

// Outcome is what happened to one owner during a pass.
type Outcome int

const (
	// OutcomeCommitted means local items were created on the surface.
	OutcomeCommitted Outcome = iota
	// OutcomeDelegated means the remote owner acknowledged its items.
	OutcomeDelegated
	// OutcomeFailed means creation or delegation failed.
	OutcomeFailed
	// OutcomeSkipped means the pass halted before reaching the owner.
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeDelegated:
		return "delegated"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// OwnerResult is the outcome of one owner in a pass.
type OwnerResult struct {
	OwnerID string
	Local   bool
	Items   int
	Outcome Outcome
	Err     error
}

// Report summarizes a materialization pass.
type Report struct {
	PassID   string
	Started  time.Time
	Finished time.Time
	Results  []OwnerResult
}

// Complete reports whether every owner was committed or delegated.
func (r *Report) Complete() bool {
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed || res.Outcome == OutcomeSkipped {
			return false
		}
	}
	return true
}

// Err returns the first failure of the pass, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			return res.Err
		}
	}
	return nil
}

// Count returns how many owners ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Duration returns how long the pass took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
