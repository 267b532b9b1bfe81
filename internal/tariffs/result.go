package tariffs

import (
	"fmt"
	"time"
)

// Outcome is the per-warehouse result of one reconciliation decision.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Result is the outcome for a single warehouse. Err is set only for failed.
type Result struct {
	Warehouse string
	Outcome   Outcome
	Err       error
}

// BatchResult records one full reconciliation pass, in snapshot order.
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
}

// Count returns the number of warehouses with the given outcome.
func (b *BatchResult) Count(o Outcome) int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Failures returns the failed results, in snapshot order.
func (b *BatchResult) Failures() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Outcome == OutcomeFailed {
			out = append(out, r)
		}
	}
	return out
}

// Summary renders a one-line overview suitable for logs.
func (b *BatchResult) Summary() string {
	return fmt.Sprintf("total=%d created=%d updated=%d unchanged=%d failed=%d",
		len(b.Results),
		b.Count(OutcomeCreated),
		b.Count(OutcomeUpdated),
		b.Count(OutcomeUnchanged),
		b.Count(OutcomeFailed))
}
