package runner

import (
	"github.com/google/uuid"
)

// RunContext carries the mutable state of one run: counters, the edit
// ceiling and the log sinks. It is passed explicitly through the driver.
type RunContext struct {
	Sinks     *Sinks
	ID        string
	MaxEdits  int
	DryRun    bool
	edits     int
	processed int
	failed    int
}

// NewRunContext creates a RunContext with a fresh run id. maxEdits <= 0
// means no ceiling.
func NewRunContext(maxEdits int, dryRun bool, sinks *Sinks) *RunContext {
	if sinks == nil {
		sinks = DiscardSinks()
	}

	return &RunContext{
		Sinks:    sinks,
		ID:       uuid.NewString(),
		MaxEdits: maxEdits,
		DryRun:   dryRun,
	}
}

// Edits returns the number of saved (or, in dry-run, recorded) edits.
func (rc *RunContext) Edits() int { return rc.edits }

// Processed returns the number of articles rewritten without error.
func (rc *RunContext) Processed() int { return rc.processed }

// Failed returns the number of articles that failed.
func (rc *RunContext) Failed() int { return rc.failed }

// QuotaReached reports whether the edit ceiling has been hit.
func (rc *RunContext) QuotaReached() bool {
	return rc.MaxEdits > 0 && rc.edits >= rc.MaxEdits
}
