package run

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of one synchronization run.
type Status string

const (
	StatusRunning             Status = "RUNNING"
	StatusSucceeded           Status = "SUCCEEDED"
	StatusCompletedWithErrors Status = "COMPLETED_WITH_ERRORS"
	StatusFailed              Status = "FAILED"
)

// Run is the persisted record of one pass over the catalog.
type Run struct {
	ID                   uuid.UUID  `json:"id"`
	Status               Status     `json:"status"`
	DryRun               bool       `json:"dry_run"`
	FilterModel          string     `json:"filter_model,omitempty"`
	Groups               int        `json:"groups"`
	Saved                int        `json:"saved"`
	NotFound             int        `json:"not_found"`
	Skipped              int        `json:"skipped"`
	Changed              int        `json:"changed"`
	ReconciliationErrors int        `json:"reconciliation_errors"`
	QuantityWarnings     int        `json:"quantity_warnings"`
	Error                string     `json:"error,omitempty"`
	StartedAt            time.Time  `json:"started_at"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
}

// ErrorCount is the run-scoped tally of row-level data-quality errors.
func (r *Run) ErrorCount() int {
	return r.ReconciliationErrors + r.QuantityWarnings
}

// Options are the per-invocation switches of a run.
type Options struct {
	DryRun            bool   `json:"dry_run"`
	FilterSingleModel string `json:"filter_single_model,omitempty"`
	NotifyError       bool   `json:"notify_error"`
	NotifySuccess     bool   `json:"notify_success"`
}
