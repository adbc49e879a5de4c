package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
	"github.com/rushabhkhandhar/one-stock-solution/internal/textintel"
)

// AuditorModule reads the independent auditor's report for opinion
// qualifications and going-concern doubt. Its outputs feed both the
// consensus (as a vote) and the trust score (as governance
// envelopes), which is why the flag count and labels are published
// rather than kept internal.
type AuditorModule struct {
	lexicon *textintel.Lexicon
}

var (
	_ pipeline.Module = (*AuditorModule)(nil)
	_ pipeline.Voter  = (*AuditorModule)(nil)
)

func NewAuditorModule(lexicon *textintel.Lexicon) *AuditorModule {
	return &AuditorModule{lexicon: lexicon}
}

func (m *AuditorModule) Name() string       { return "auditor" }
func (m *AuditorModule) SignalName() string { return "governance.auditor" }

func (m *AuditorModule) Requires() []string { return []string{"doc.auditor_report"} }

func (m *AuditorModule) Produces() []string {
	return []string{
		"governance.auditor_flag_count",
		"governance.auditor_flag_labels",
		"governance.going_concern",
	}
}

func (m *AuditorModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	text, err := needText(in.Envelopes, "doc.auditor_report")
	if err != nil {
		return pipeline.Result{}, err
	}

	result := m.lexicon.AuditorSeverity(text)

	labels := make([]string, 0, len(result.Flags))
	worst := textintel.SeverityLow
	for _, flag := range result.Flags {
		labels = append(labels, flag.Kind)
		if flag.Severity.Outranks(worst) {
			worst = flag.Severity
		}
	}

	goingConcern := 0.0
	if result.GoingConcern {
		goingConcern = 1
	}

	out := []models.Envelope{
		scalar("governance.auditor_flag_count", float64(len(result.Flags)), models.UnitCount),
		models.NewText("governance.auditor_flag_labels", strings.Join(labels, "\n"), models.SourceFiling),
		scalar("governance.going_concern", goingConcern, models.UnitCount),
	}

	vote := m.vote(result, worst)
	return pipeline.Result{Envelopes: out, Vote: &vote}, nil
}

func (m *AuditorModule) vote(result textintel.AuditorResult, worst textintel.FlagSeverity) models.Vote {
	switch {
	case result.GoingConcern:
		return models.NegativeVote(m.SignalName(), "auditor raises going-concern doubt")
	case worst == textintel.SeverityCritical:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("auditor opinion carries a critical qualification (%s)", firstKind(result)))
	case worst == textintel.SeverityHigh:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("auditor qualified the opinion (%s)", firstKind(result)))
	case len(result.Flags) > 0:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("%d emphasis-of-matter note(s), opinion otherwise clean", len(result.Flags)))
	default:
		return models.PositiveVote(m.SignalName(), "clean audit opinion, no qualifications")
	}
}

func firstKind(result textintel.AuditorResult) string {
	for _, flag := range result.Flags {
		if flag.Severity != textintel.SeverityLow {
			return strings.ReplaceAll(flag.Kind, "_", " ")
		}
	}
	return "unspecified"
}
