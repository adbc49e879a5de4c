// -----------------------------------------------------------------------
// Pipeline runner - Layered execution with module fault isolation
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Pipeline is the validated, ready-to-run phase executor. Construct
// once with New; Run may be called for any number of entities.
type Pipeline struct {
	cfg    common.PipelineConfig
	logger arbor.ILogger
	graph  *graph
	seed   []string
}

// RunResult is the complete outcome of one pipeline run: the merged
// envelope state, every registered vote in deterministic order, the
// trust report when the validator ran, and the per-phase trace.
type RunResult struct {
	Profile   models.Profile
	Envelopes models.Set
	Votes     []models.Vote
	Trust     *models.TrustReport
	Phases    []models.PhaseResult
}

// phaseOutcome carries one phase's results from a worker back to the
// runner for the atomic between-layer merge.
type phaseOutcome struct {
	index     int
	result    models.PhaseResult
	envelopes []models.Envelope
	votes     []models.Vote
	trust     *models.TrustReport
}

// New validates the phase graph against the seed contract and returns
// a runnable pipeline. Cycles, duplicate producers and unsatisfiable
// requirements are misconfigurations and abort startup.
func New(cfg *common.Config, logger arbor.ILogger, seedNames []string, phases []Phase) (*Pipeline, error) {
	g, err := buildGraph(seedNames, phases)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg.Pipeline,
		logger: logger,
		graph:  g,
		seed:   append([]string(nil), seedNames...),
	}

	logger.Info().
		Int("phases", len(phases)).
		Int("layers", len(g.layers)).
		Int("workers", p.cfg.Workers).
		Msg("Pipeline constructed")
	for i, ids := range g.LayerIDs() {
		logger.Debug().Int("layer", i).Strs("phases", ids).Msg("Pipeline layer")
	}

	return p, nil
}

// Run executes all phases in topological layers. Phases within a layer
// run concurrently on a bounded worker pool; the envelope state is
// extended once, atomically, after each layer completes. Degradation
// never returns an error: the only error Run reports is context
// cancellation between layers.
func (p *Pipeline) Run(ctx context.Context, profile models.Profile, seed models.Set) (*RunResult, error) {
	started := time.Now()

	// The seed contract promises every declared name exists. Anything
	// ingestion failed to deliver becomes a definitive Unavailable so
	// downstream requirement checks read one way.
	state := make(models.Set, len(seed)+16)
	for k, v := range seed {
		state[k] = v
	}
	for _, name := range p.seed {
		if _, ok := state[name]; !ok {
			state[name] = models.Unavailable(name, "not delivered by ingestion")
		}
	}

	result := &RunResult{
		Profile: profile,
		Phases:  make([]models.PhaseResult, 0, len(p.graph.phases)),
	}

	for layerIdx, layer := range p.graph.layers {
		if err := ctx.Err(); err != nil {
			p.logger.Warn().Int("layer", layerIdx).Msg("Run cancelled between layers")
			result.Envelopes = state
			return result, err
		}

		outcomes := make(chan phaseOutcome, len(layer))
		workers := p.cfg.Workers
		if workers > len(layer) {
			workers = len(layer)
		}
		pl := newPool(workers, p.logger)
		pl.start(ctx)

		view := state // immutable during the layer
		for _, phaseIdx := range layer {
			idx := phaseIdx
			pl.submit(func(taskCtx context.Context) {
				outcomes <- p.runPhase(taskCtx, p.graph.phases[idx], idx, profile, view)
			})
		}
		pl.wait()
		close(outcomes)

		// Merge deterministically in phase declaration order.
		byIndex := make(map[int]phaseOutcome, len(layer))
		for oc := range outcomes {
			byIndex[oc.index] = oc
		}
		var layerEnvs []models.Envelope
		for _, phaseIdx := range layer {
			oc, ok := byIndex[phaseIdx]
			if !ok {
				// Task skipped by a cancelled worker.
				continue
			}
			layerEnvs = append(layerEnvs, oc.envelopes...)
			result.Votes = append(result.Votes, oc.votes...)
			result.Phases = append(result.Phases, oc.result)
			if oc.trust != nil {
				result.Trust = oc.trust
			}
		}
		state = state.Merge(layerEnvs...)
	}

	result.Envelopes = state

	available, unavailable := state.Counts()
	p.logger.Info().
		Str("symbol", profile.Symbol).
		Int("phases", len(result.Phases)).
		Int("votes", len(result.Votes)).
		Int("envelopes_available", available).
		Int("envelopes_unavailable", unavailable).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Pipeline run complete")

	return result, nil
}

// runPhase executes one phase: capability gating, hard requirement
// check, then each module with fault isolation.
func (p *Pipeline) runPhase(ctx context.Context, phase Phase, index int, profile models.Profile, view models.Set) phaseOutcome {
	started := time.Now()
	oc := phaseOutcome{
		index: index,
		result: models.PhaseResult{
			PhaseID:   phase.ID,
			Title:     phase.Title,
			StartedAt: started,
		},
	}

	// Partition modules by the capability gate.
	var active []Module
	for _, m := range phase.Modules {
		if g, ok := m.(Gated); ok && !g.AppliesTo(profile) {
			oc.result.Modules = append(oc.result.Modules, models.ModuleResult{
				Module: m.Name(),
				Status: models.ModuleSkipped,
			})
			continue
		}
		active = append(active, m)
	}

	if len(active) == 0 {
		oc.result.Status = models.PhaseSkipped
		oc.result.Duration = time.Since(started)
		p.logger.Info().
			Str("phase", phase.ID).
			Str("classification", string(profile.Classification)).
			Msg("Phase skipped by capability gate")
		return oc
	}

	// Hard requirement check: one missing input every module needs
	// fails the phase as a whole.
	for _, name := range phase.Requires {
		if view.Has(name) {
			continue
		}
		reason := fmt.Sprintf("required input %s unavailable", name)
		oc.result.Status = models.PhaseFailed
		oc.result.Err = reason
		for _, m := range active {
			oc.result.Modules = append(oc.result.Modules, models.ModuleResult{
				Module: m.Name(),
				Status: models.ModuleUnavailable,
				Err:    reason,
			})
			for _, produced := range m.Produces() {
				oc.envelopes = append(oc.envelopes, models.Unavailable(produced, reason))
			}
			if v, ok := m.(Voter); ok {
				oc.votes = append(oc.votes, models.UnavailableVote(v.SignalName(), reason))
			}
		}
		oc.result.Duration = time.Since(started)
		p.logger.Warn().Str("phase", phase.ID).Str("reason", reason).Msg("Phase failed on missing requirement")
		return oc
	}

	in := &Inputs{Profile: profile, Envelopes: view}
	okCount := 0
	for _, m := range active {
		res, mr := p.runModule(ctx, m, in)
		oc.result.Modules = append(oc.result.Modules, mr)
		oc.envelopes = append(oc.envelopes, res.Envelopes...)
		if res.Trust != nil {
			oc.trust = res.Trust
		}
		if v, ok := m.(Voter); ok {
			if res.Vote != nil {
				oc.votes = append(oc.votes, *res.Vote)
			} else {
				oc.votes = append(oc.votes, models.UnavailableVote(v.SignalName(), mr.Err))
			}
		}
		if mr.Status == models.ModuleOK {
			okCount++
		}
	}

	switch {
	case okCount == len(active):
		oc.result.Status = models.PhaseComplete
	default:
		oc.result.Status = models.PhasePartial
	}
	oc.result.Duration = time.Since(started)

	p.logger.Info().
		Str("phase", phase.ID).
		Str("status", string(oc.result.Status)).
		Int("modules", len(active)).
		Str("duration", oc.result.Duration.Round(time.Millisecond).String()).
		Msg("Phase complete")

	return oc
}

// runModule executes one module with panic isolation. A panic or
// returned error becomes Unavailable envelopes for every declared
// produce; the pipeline continues.
func (p *Pipeline) runModule(ctx context.Context, m Module, in *Inputs) (res Result, mr models.ModuleResult) {
	started := time.Now()
	mr = models.ModuleResult{Module: m.Name(), Status: models.ModuleOK}

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			fault := models.NewFault(m.Name(), fmt.Errorf("panic: %v", r), buf[:n])

			p.logger.Error().
				Str("module", m.Name()).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Msg("Recovered module panic - substituting unavailable outputs")

			res = p.unavailableResult(m, fault.Error())
			mr.Status = models.ModuleFailed
			mr.Err = fault.Error()
		}
		mr.Produced = m.Produces()
		mr.Duration = time.Since(started)
	}()

	res, err := m.Run(ctx, in)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			// Expected degradation, not a fault.
			p.logger.Debug().Str("module", m.Name()).Str("reason", err.Error()).Msg("Module inputs unavailable")
			res = p.unavailableResult(m, err.Error())
			mr.Status = models.ModuleUnavailable
			mr.Err = err.Error()
			return res, mr
		}

		fault := models.NewFault(m.Name(), err, nil)
		p.logger.Error().
			Str("module", m.Name()).
			Err(err).
			Msg("Module returned error - substituting unavailable outputs")
		res = p.unavailableResult(m, fault.Error())
		mr.Status = models.ModuleFailed
		mr.Err = fault.Error()
		return res, mr
	}

	// A module that emitted only unavailable envelopes degraded, even
	// though it did not error.
	anyAvailable := false
	for _, e := range res.Envelopes {
		if e.Available {
			anyAvailable = true
			break
		}
	}
	if !anyAvailable && len(res.Envelopes) > 0 {
		mr.Status = models.ModuleUnavailable
		if len(res.Envelopes[0].Reason) > 0 {
			mr.Err = res.Envelopes[0].Reason
		}
	}

	return res, mr
}

// unavailableResult fills every declared produce with a definitive
// Unavailable envelope carrying the failure reason.
func (p *Pipeline) unavailableResult(m Module, reason string) Result {
	var res Result
	for _, name := range m.Produces() {
		res.Envelopes = append(res.Envelopes, models.Unavailable(name, reason))
	}
	if v, ok := m.(Voter); ok {
		uv := models.UnavailableVote(v.SignalName(), reason)
		res.Vote = &uv
	}
	return res
}
