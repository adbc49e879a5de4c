// -----------------------------------------------------------------------
// Phase Result - Execution trace of one pipeline phase
// -----------------------------------------------------------------------

package models

import "time"

// PhaseStatus is the outcome of a single pipeline phase.
type PhaseStatus string

const (
	// PhaseComplete - every module produced its declared outputs.
	PhaseComplete PhaseStatus = "complete"
	// PhasePartial - at least one module failed or produced only
	// unavailable output, the rest completed.
	PhasePartial PhaseStatus = "partial"
	// PhaseSkipped - the capability gate excluded every module in the
	// phase for this entity class. Not an error.
	PhaseSkipped PhaseStatus = "skipped"
	// PhaseFailed - an input required by every module in the phase was
	// unavailable; no module ran.
	PhaseFailed PhaseStatus = "failed"
)

// ModuleStatus is the outcome of a single module run inside a phase.
type ModuleStatus string

const (
	ModuleOK          ModuleStatus = "ok"
	ModuleSkipped     ModuleStatus = "skipped"     // gated out for this entity class
	ModuleUnavailable ModuleStatus = "unavailable" // ran, but inputs were missing
	ModuleFailed      ModuleStatus = "failed"      // returned an error or panicked
)

// ModuleResult records one module's run inside a phase.
type ModuleResult struct {
	Module   string        `json:"module"`
	Status   ModuleStatus  `json:"status"`
	Err      string        `json:"error,omitempty"`
	Produced []string      `json:"produced,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PhaseResult is the execution trace of one phase, kept for the report
// and for diagnosing partial runs.
type PhaseResult struct {
	PhaseID   string         `json:"phase_id"`
	Title     string         `json:"title,omitempty"`
	Status    PhaseStatus    `json:"status"`
	Modules   []ModuleResult `json:"modules,omitempty"`
	Err       string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// Failed reports whether the phase contributed nothing usable.
func (r PhaseResult) Failed() bool {
	return r.Status == PhaseFailed
}
