// -----------------------------------------------------------------------
// Module contract - What the pipeline schedules and isolates
// -----------------------------------------------------------------------

// Package pipeline executes analysis modules in dependency order with
// per-module fault isolation. The pipeline core performs no I/O: every
// external fact arrives in the seed envelope set before Run.
package pipeline

import (
	"context"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Inputs is the read-only view a module receives. The envelope set
// must not be mutated; produce new envelopes instead.
type Inputs struct {
	Profile   models.Profile
	Envelopes models.Set
}

// Result is what a module hands back. Envelopes are merged into the
// run state after the phase's layer completes. Vote is nil for
// non-voting modules. Trust is set only by the cross-source validator.
type Result struct {
	Envelopes []models.Envelope
	Vote      *models.Vote
	Trust     *models.TrustReport
}

// Module is a single analysis computation scheduled by the pipeline.
//
// Run must treat missing inputs as the expected case: emit Unavailable
// envelopes for everything it cannot compute and return a nil error.
// A returned error or panic is a module fault; the pipeline isolates
// it, substitutes Unavailable envelopes for the declared produces and
// continues.
type Module interface {
	Name() string
	// Requires lists envelope names the module consumes. Used to place
	// the module's phase in the dependency graph.
	Requires() []string
	// Produces lists envelope names the module emits. Every name must
	// be emitted on every run, as Unavailable when not computable.
	Produces() []string
	Run(ctx context.Context, in *Inputs) (Result, error)
}

// Voter is implemented by modules that register a consensus vote slot.
// The slot is always registered when the module runs or faults; it is
// absent only when the capability gate excluded the module.
type Voter interface {
	SignalName() string
}

// Gated is implemented by modules that only apply to some entity
// classes. A module reporting false is skipped: no envelopes, no vote
// slot, no fault.
type Gated interface {
	AppliesTo(profile models.Profile) bool
}

// Phase groups modules that share hard input requirements and run as
// one scheduling unit. Requires lists envelope names every module in
// the phase consumes; when one is unavailable the phase fails as a
// whole and all declared produces are emitted Unavailable.
type Phase struct {
	ID       string
	Title    string
	Requires []string
	Modules  []Module
}

// produces returns the union of the phase modules' declared produces.
func (p Phase) produces() []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range p.Modules {
		for _, name := range m.Produces() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// requires returns the union of phase-level and module-level requires.
func (p Phase) requires() []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range p.Requires {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, m := range p.Modules {
		for _, name := range m.Requires() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
