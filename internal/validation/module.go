package validation

import (
	"context"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// Module wraps the validator as a pipeline module so cross-source
// validation participates in the phase graph: it runs after ingestion
// and the governance phase, and its trust score is an envelope any
// later consumer can read.
type Module struct {
	validator *Validator
}

// NewModule builds the pipeline adapter around a validator.
func NewModule(v *Validator) *Module {
	return &Module{validator: v}
}

func (m *Module) Name() string { return "cross_source_validator" }

// Requires declares only the auditor envelopes as scheduling inputs.
// Concept pair envelopes are deliberately not required: a missing side
// is a legitimate unverifiable outcome, not a reason to skip
// validation.
func (m *Module) Requires() []string {
	return []string{"governance.auditor_flag_count", "governance.going_concern"}
}

func (m *Module) Produces() []string {
	return []string{"validation.trust_score"}
}

func (m *Module) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	report := m.validator.Validate(in.Envelopes)

	return pipeline.Result{
		Envelopes: []models.Envelope{
			models.NewScalar("validation.trust_score", report.Score, models.UnitCount, models.SourceDerived),
		},
		Trust: report,
	}, nil
}
