package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
	"github.com/rushabhkhandhar/one-stock-solution/internal/textintel"
)

// ToneModule scores the management discussion from the annual report
// with the keyword lexicon. Hedging language counts against the
// optimism the prepared text always carries.
type ToneModule struct {
	lexicon *textintel.Lexicon
}

var (
	_ pipeline.Module = (*ToneModule)(nil)
	_ pipeline.Voter  = (*ToneModule)(nil)
)

func NewToneModule(lexicon *textintel.Lexicon) *ToneModule {
	return &ToneModule{lexicon: lexicon}
}

func (m *ToneModule) Name() string       { return "tone" }
func (m *ToneModule) SignalName() string { return "text.tone" }

func (m *ToneModule) Requires() []string { return []string{"doc.mda"} }

func (m *ToneModule) Produces() []string {
	return []string{"text.tone_score", "text.tone_label"}
}

func (m *ToneModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	text, err := needText(in.Envelopes, "doc.mda")
	if err != nil {
		return pipeline.Result{}, err
	}

	tone := m.lexicon.Tone(text)
	vote := m.vote(tone)
	return pipeline.Result{
		Envelopes: []models.Envelope{
			scalar("text.tone_score", tone.Score, models.UnitCount),
			models.NewText("text.tone_label", string(tone.Label), models.SourceDerived),
		},
		Vote: &vote,
	}, nil
}

func (m *ToneModule) vote(tone textintel.ToneResult) models.Vote {
	detail := fmt.Sprintf("management discussion tone %.2f (%d positive, %d negative, %d hedging terms)",
		tone.Score, tone.PositiveHits, tone.NegativeHits, tone.HedgingHits)
	switch tone.Label {
	case textintel.TonePositive:
		return models.PositiveVote(m.SignalName(), detail)
	case textintel.ToneNegative:
		return models.NegativeVote(m.SignalName(), detail)
	default:
		return models.NeutralVote(m.SignalName(), detail)
	}
}

// MoatModule looks for durable-advantage language in the annual
// report narrative. Claimed moats are weak evidence, so only a clear
// dominant theme earns a positive vote and nothing here ever votes
// negative.
type MoatModule struct {
	lexicon *textintel.Lexicon
}

var (
	_ pipeline.Module = (*MoatModule)(nil)
	_ pipeline.Voter  = (*MoatModule)(nil)
)

func NewMoatModule(lexicon *textintel.Lexicon) *MoatModule {
	return &MoatModule{lexicon: lexicon}
}

func (m *MoatModule) Name() string       { return "moat" }
func (m *MoatModule) SignalName() string { return "text.moat" }

func (m *MoatModule) Requires() []string { return []string{"doc.mda"} }

func (m *MoatModule) Produces() []string {
	return []string{"text.moat_score", "text.moat_kind"}
}

func (m *MoatModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	text, err := needText(in.Envelopes, "doc.mda")
	if err != nil {
		return pipeline.Result{}, err
	}

	moat := m.lexicon.Moat(text)
	vote := m.vote(moat)
	return pipeline.Result{
		Envelopes: []models.Envelope{
			scalar("text.moat_score", float64(moat.Score), models.UnitCount),
			models.NewText("text.moat_kind", moat.Kind, models.SourceDerived),
		},
		Vote: &vote,
	}, nil
}

func (m *MoatModule) vote(moat textintel.MoatResult) models.Vote {
	if moat.Score >= 4 && moat.Kind != "" {
		detail := fmt.Sprintf("recurring %s language in the narrative", strings.ReplaceAll(moat.Kind, "_", " "))
		if len(moat.Evidence) > 0 {
			detail += ": " + moat.Evidence[0]
		}
		return models.PositiveVote(m.SignalName(), detail)
	}
	return models.NeutralVote(m.SignalName(), "no consistent durable-advantage theme in the narrative")
}
