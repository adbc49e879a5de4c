package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func newTestPipeline(t *testing.T, seed []string, phases []Phase) *Pipeline {
	t.Helper()
	p, err := New(common.NewDefaultConfig(), arbor.NewLogger(), seed, phases)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func seedSet(names ...string) models.Set {
	s := models.Set{}
	for _, name := range names {
		s = s.Merge(models.NewScalar(name, 100, models.UnitCurrencyCrore, models.SourceScraped))
	}
	return s
}

func phaseStatus(t *testing.T, run *RunResult, id string) models.PhaseResult {
	t.Helper()
	for _, ph := range run.Phases {
		if ph.PhaseID == id {
			return ph
		}
	}
	t.Fatalf("no phase result for %q", id)
	return models.PhaseResult{}
}

func voteFor(run *RunResult, signal string) (models.Vote, bool) {
	for _, v := range run.Votes {
		if v.Signal == signal {
			return v, true
		}
	}
	return models.Vote{}, false
}

func TestRunHappyPath(t *testing.T) {
	seed := []string{"pnl.revenue", "price.close"}
	phases := []Phase{
		phaseOf("growth", nil,
			&voterStub{simpleModuleWithSignal("growth", []string{"pnl.revenue"}, []string{"growth.cagr"}, "growth.revenue")}),
		phaseOf("downstream", nil,
			&voterStub{simpleModuleWithSignal("downstream", []string{"growth.cagr"}, []string{"down.x"}, "down.signal")}),
	}

	p := newTestPipeline(t, seed, phases)
	run, err := p.Run(context.Background(), models.Profile{Symbol: "RELIANCE"}, seedSet(seed...))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, id := range []string{"growth", "downstream"} {
		if st := phaseStatus(t, run, id); st.Status != models.PhaseComplete {
			t.Errorf("phase %s status = %s, want complete", id, st.Status)
		}
	}
	if !run.Envelopes.Has("growth.cagr") || !run.Envelopes.Has("down.x") {
		t.Error("produced envelopes missing from the final state")
	}
	if len(run.Votes) != 2 {
		t.Fatalf("votes = %d, want 2", len(run.Votes))
	}
	for _, v := range run.Votes {
		if !v.Available {
			t.Errorf("vote %s unavailable: %s", v.Signal, v.Rationale)
		}
	}
}

func TestModulePanicIsIsolated(t *testing.T) {
	seed := []string{"pnl.revenue"}
	panicker := &voterStub{&stubModule{
		name:     "panicker",
		requires: []string{"pnl.revenue"},
		produces: []string{"bad.one", "bad.two"},
		signal:   "bad.signal",
		run: func(ctx context.Context, in *Inputs) (Result, error) {
			panic("index out of range")
		},
	}}
	healthy := &voterStub{simpleModuleWithSignal("healthy", []string{"pnl.revenue"}, []string{"good.one"}, "good.signal")}

	p := newTestPipeline(t, seed, []Phase{phaseOf("mixed", nil, panicker, healthy)})
	run, err := p.Run(context.Background(), models.Profile{Symbol: "X"}, seedSet(seed...))
	if err != nil {
		t.Fatalf("Run() must not propagate the panic, got %v", err)
	}

	st := phaseStatus(t, run, "mixed")
	if st.Status != models.PhasePartial {
		t.Errorf("phase status = %s, want partial", st.Status)
	}

	for _, name := range []string{"bad.one", "bad.two"} {
		e, ok := run.Envelopes.Get(name)
		if !ok {
			t.Fatalf("declared produce %s absent after panic", name)
		}
		if e.Available {
			t.Errorf("%s available after panic", name)
		}
	}
	if !run.Envelopes.Has("good.one") {
		t.Error("healthy module output lost to a sibling's panic")
	}

	if v, ok := voteFor(run, "bad.signal"); !ok || v.Available {
		t.Error("panicked voter must register an unavailable vote slot")
	}
	if v, ok := voteFor(run, "good.signal"); !ok || !v.Available {
		t.Error("healthy voter lost its vote")
	}
}

func TestModuleErrorVsExpectedDegradation(t *testing.T) {
	seed := []string{"pnl.revenue"}
	faulty := &stubModule{
		name: "faulty", requires: []string{"pnl.revenue"}, produces: []string{"f.x"},
		run: func(ctx context.Context, in *Inputs) (Result, error) {
			return Result{}, fmt.Errorf("unexpected parse state")
		},
	}
	degraded := &stubModule{
		name: "degraded", requires: []string{"pnl.revenue"}, produces: []string{"d.x"},
		run: func(ctx context.Context, in *Inputs) (Result, error) {
			return Result{}, fmt.Errorf("beta: %w", models.ErrDataUnavailable)
		},
	}

	p := newTestPipeline(t, seed, []Phase{phaseOf("p", nil, faulty, degraded)})
	run, err := p.Run(context.Background(), models.Profile{}, seedSet(seed...))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := phaseStatus(t, run, "p")
	statuses := map[string]models.ModuleStatus{}
	for _, m := range st.Modules {
		statuses[m.Module] = m.Status
	}
	if statuses["faulty"] != models.ModuleFailed {
		t.Errorf("faulty status = %s, want failed", statuses["faulty"])
	}
	if statuses["degraded"] != models.ModuleUnavailable {
		t.Errorf("degraded status = %s, want unavailable (expected degradation is not a fault)", statuses["degraded"])
	}
}

func TestPhaseFailsOnMissingHardRequirement(t *testing.T) {
	seed := []string{"pnl.revenue", "price.close"}
	phases := []Phase{
		phaseOf("needsprices", []string{"price.close"},
			&voterStub{simpleModuleWithSignal("m", nil, []string{"t.x"}, "t.signal")}),
	}

	p := newTestPipeline(t, seed, phases)

	// price.close is in the contract but ingestion failed to deliver it.
	run, err := p.Run(context.Background(), models.Profile{}, seedSet("pnl.revenue"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := phaseStatus(t, run, "needsprices")
	if st.Status != models.PhaseFailed {
		t.Fatalf("phase status = %s, want failed", st.Status)
	}
	if e, ok := run.Envelopes.Get("t.x"); !ok || e.Available {
		t.Error("failed phase must still emit its declared produces as unavailable")
	}
	if v, ok := voteFor(run, "t.signal"); !ok || v.Available {
		t.Error("failed phase must register unavailable vote slots")
	}
}

func TestCapabilityGateSkips(t *testing.T) {
	seed := []string{"pnl.revenue"}
	standardOnly := func(p models.Profile) bool { return p.Classification == models.ClassStandard }

	dcf := &gatedStub{&voterStub{&stubModule{
		name: "dcf", requires: []string{"pnl.revenue"}, produces: []string{"val.dcf"},
		signal: "valuation.dcf", applies: standardOnly,
	}}}
	growth := &voterStub{simpleModuleWithSignal("growth", []string{"pnl.revenue"}, []string{"growth.cagr"}, "growth.revenue")}

	phases := []Phase{
		phaseOf("valuation", nil, dcf),
		phaseOf("growth", nil, growth),
	}

	p := newTestPipeline(t, seed, phases)
	run, err := p.Run(context.Background(), models.Profile{Classification: models.ClassBank}, seedSet(seed...))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st := phaseStatus(t, run, "valuation"); st.Status != models.PhaseSkipped {
		t.Errorf("valuation status = %s, want skipped for a bank", st.Status)
	}
	if st := phaseStatus(t, run, "growth"); st.Status != models.PhaseComplete {
		t.Errorf("growth status = %s, want complete", st.Status)
	}

	// Skipped is not failed: no vote slot at all, so the consensus
	// denominator shrinks instead of counting a miss.
	if _, ok := voteFor(run, "valuation.dcf"); ok {
		t.Error("gated-out module must not register a vote slot")
	}
	if _, ok := run.Envelopes.Get("val.dcf"); ok {
		t.Error("gated-out module must not emit envelopes")
	}
}

func TestUndeliveredSeedBecomesUnavailable(t *testing.T) {
	seed := []string{"pnl.revenue", "doc.mda"}
	p := newTestPipeline(t, seed, []Phase{
		phaseOf("p", nil, simpleModule("m", []string{"pnl.revenue"}, []string{"x"})),
	})

	run, err := p.Run(context.Background(), models.Profile{}, seedSet("pnl.revenue"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	e, ok := run.Envelopes.Get("doc.mda")
	if !ok {
		t.Fatal("contracted seed name absent from run state")
	}
	if e.Available {
		t.Error("undelivered seed envelope must be unavailable, not fabricated")
	}
}

func TestRunIsRepeatable(t *testing.T) {
	seed := []string{"pnl.revenue"}
	phases := []Phase{
		phaseOf("a", nil, &voterStub{simpleModuleWithSignal("a", []string{"pnl.revenue"}, []string{"a.x"}, "a.sig")}),
		phaseOf("b", nil, &voterStub{simpleModuleWithSignal("b", []string{"a.x"}, []string{"b.x"}, "b.sig")}),
	}
	p := newTestPipeline(t, seed, phases)

	first, err := p.Run(context.Background(), models.Profile{}, seedSet(seed...))
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := p.Run(context.Background(), models.Profile{}, seedSet(seed...))
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if len(first.Votes) != len(second.Votes) {
		t.Fatalf("vote counts differ across runs: %d vs %d", len(first.Votes), len(second.Votes))
	}
	for i := range first.Votes {
		if first.Votes[i].Signal != second.Votes[i].Signal {
			t.Errorf("vote order differs at %d: %s vs %s", i, first.Votes[i].Signal, second.Votes[i].Signal)
		}
	}
}

func TestRunCancelledBetweenLayers(t *testing.T) {
	seed := []string{"pnl.revenue"}
	p := newTestPipeline(t, seed, []Phase{
		phaseOf("p", nil, simpleModule("m", []string{"pnl.revenue"}, []string{"x"})),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, models.Profile{}, seedSet(seed...))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func simpleModuleWithSignal(name string, requires, produces []string, signal string) *stubModule {
	m := simpleModule(name, requires, produces)
	m.signal = signal
	return m
}
