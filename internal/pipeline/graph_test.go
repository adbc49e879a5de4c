package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// stubModule is a configurable test module.
type stubModule struct {
	name     string
	requires []string
	produces []string
	signal   string
	applies  func(models.Profile) bool
	run      func(ctx context.Context, in *Inputs) (Result, error)
}

func (m *stubModule) Name() string       { return m.name }
func (m *stubModule) Requires() []string { return m.requires }
func (m *stubModule) Produces() []string { return m.produces }

func (m *stubModule) Run(ctx context.Context, in *Inputs) (Result, error) {
	if m.run != nil {
		return m.run(ctx, in)
	}
	var res Result
	for _, name := range m.produces {
		res.Envelopes = append(res.Envelopes, models.NewScalar(name, 1, models.UnitRatio, models.SourceDerived))
	}
	if m.signal != "" {
		v := models.PositiveVote(m.signal, "ok")
		res.Vote = &v
	}
	return res, nil
}

// voterStub registers a consensus vote slot.
type voterStub struct {
	*stubModule
}

func (m *voterStub) SignalName() string {
	return m.signal
}

// gatedStub adds the capability gate to a voting stub.
type gatedStub struct {
	*voterStub
}

func (m *gatedStub) AppliesTo(profile models.Profile) bool {
	return m.applies(profile)
}

func phaseOf(id string, requires []string, modules ...Module) Phase {
	return Phase{ID: id, Requires: requires, Modules: modules}
}

func simpleModule(name string, requires, produces []string) *stubModule {
	return &stubModule{name: name, requires: requires, produces: produces}
}

func TestGraphLayering(t *testing.T) {
	seed := []string{"pnl.revenue", "price.close"}
	phases := []Phase{
		phaseOf("growth", nil, simpleModule("growth", []string{"pnl.revenue"}, []string{"growth.cagr"})),
		phaseOf("technicals", nil, simpleModule("technicals", []string{"price.close"}, []string{"tech.rsi"})),
		phaseOf("verdictprep", nil, simpleModule("verdictprep", []string{"growth.cagr", "tech.rsi"}, []string{"prep.done"})),
	}

	g, err := buildGraph(seed, phases)
	if err != nil {
		t.Fatalf("buildGraph() error = %v", err)
	}

	want := [][]string{{"growth", "technicals"}, {"verdictprep"}}
	if !reflect.DeepEqual(g.LayerIDs(), want) {
		t.Errorf("LayerIDs() = %v, want %v", g.LayerIDs(), want)
	}
}

func TestGraphMisconfigurations(t *testing.T) {
	seed := []string{"pnl.revenue"}

	tests := []struct {
		name   string
		phases []Phase
	}{
		{
			name: "duplicate producer",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", nil, []string{"x"})),
				phaseOf("b", nil, simpleModule("b", nil, []string{"x"})),
			},
		},
		{
			name: "phase shadows seed envelope",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", nil, []string{"pnl.revenue"})),
			},
		},
		{
			name: "unknown requirement",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", []string{"never.produced"}, []string{"x"})),
			},
		},
		{
			name: "dependency cycle",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", []string{"y"}, []string{"x"})),
				phaseOf("b", nil, simpleModule("b", []string{"x"}, []string{"y"})),
			},
		},
		{
			name: "self dependency",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", []string{"x"}, []string{"x"})),
			},
		},
		{
			name: "duplicate phase id",
			phases: []Phase{
				phaseOf("a", nil, simpleModule("a", nil, []string{"x"})),
				phaseOf("a", nil, simpleModule("b", nil, []string{"y"})),
			},
		},
		{
			name: "empty phase",
			phases: []Phase{
				{ID: "a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildGraph(seed, tt.phases)
			if err == nil {
				t.Fatal("buildGraph() accepted an invalid graph")
			}
			if !errors.Is(err, models.ErrPipelineMisconfiguration) {
				t.Errorf("error %v is not a pipeline misconfiguration", err)
			}
		})
	}
}

func TestGraphSeedSatisfiesRequirements(t *testing.T) {
	// A requirement met by the seed contract needs no producing phase.
	phases := []Phase{
		phaseOf("a", []string{"pnl.revenue"}, simpleModule("a", nil, []string{"x"})),
	}
	if _, err := buildGraph([]string{"pnl.revenue"}, phases); err != nil {
		t.Fatalf("buildGraph() error = %v", err)
	}
}
