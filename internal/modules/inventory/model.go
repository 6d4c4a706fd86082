package inventory

import "time"

// State is the terminal outcome of one product group.
type State string

const (
	// StateNotFound: no storefront product carries the title yet. Not an error.
	StateNotFound State = "NOT_FOUND"
	// StateSkipped: the catalog marks the product as not for sale yet (no image).
	StateSkipped State = "SKIPPED"
	// StateSaved: policies were written back to the storefront.
	StateSaved State = "SAVED"
)

// Outcome describes how one product group was resolved.
type Outcome struct {
	Title      string `json:"title"`
	State      State  `json:"state"`
	ProductID  int64  `json:"product_id,omitempty"`
	Matched    int    `json:"matched"`
	Mismatched int    `json:"mismatched"`
	Changed    int    `json:"changed"`
	Retried    bool   `json:"retried"`
}

// Summary aggregates the outcomes of a full pass.
type Summary struct {
	Groups     int       `json:"groups"`
	Saved      int       `json:"saved"`
	NotFound   int       `json:"not_found"`
	Skipped    int       `json:"skipped"`
	Mismatched int       `json:"mismatched"`
	Changed    int       `json:"changed"`
	Retries    int       `json:"retries"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Mismatched += o.Mismatched
	s.Changed += o.Changed
	if o.Retried {
		s.Retries++
	}
	switch o.State {
	case StateSaved:
		s.Saved++
	case StateNotFound:
		s.NotFound++
	case StateSkipped:
		s.Skipped++
	}
}

// Timing holds the fixed pauses of the update loop.
type Timing struct {
	// ProductDelay runs after every group, whatever its outcome, to respect rate limits.
	ProductDelay time.Duration
	// SaveRetryDelay runs once before the single save retry.
	SaveRetryDelay time.Duration
}

// DefaultTiming matches the storefront's documented REST budget.
func DefaultTiming() Timing {
	return Timing{ProductDelay: 500 * time.Millisecond, SaveRetryDelay: time.Second}
}
