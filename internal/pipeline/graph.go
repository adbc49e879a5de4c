// -----------------------------------------------------------------------
// Phase graph - Dependency validation and topological layering
// -----------------------------------------------------------------------

package pipeline

import (
	"sort"
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// graph is the validated phase dependency structure. Built once at
// pipeline construction; an invalid graph is a misconfiguration and
// aborts startup, the only fatal error class.
type graph struct {
	phases []Phase
	// layers holds phase indices grouped by topological depth. Phases
	// in the same layer have no dependencies on each other and may run
	// concurrently.
	layers [][]int
}

// buildGraph validates the phase list against the seed contract and
// computes topological layers.
//
// Rules enforced:
//   - every envelope name has at most one producer (seed or phase)
//   - every required name is produced by the seed or some phase
//   - the phase dependency relation is acyclic
func buildGraph(seedNames []string, phases []Phase) (*graph, error) {
	seed := make(map[string]bool, len(seedNames))
	for _, name := range seedNames {
		seed[name] = true
	}

	// Map each produced envelope name to its producing phase.
	producer := make(map[string]int)
	seenPhase := make(map[string]bool)
	for i, p := range phases {
		if p.ID == "" {
			return nil, models.Misconfigf("phase %d has no id", i)
		}
		if seenPhase[p.ID] {
			return nil, models.Misconfigf("duplicate phase id %q", p.ID)
		}
		seenPhase[p.ID] = true
		if len(p.Modules) == 0 {
			return nil, models.Misconfigf("phase %q has no modules", p.ID)
		}
		for _, name := range p.produces() {
			if seed[name] {
				return nil, models.Misconfigf("phase %q produces %q which is already a seed envelope", p.ID, name)
			}
			if prev, dup := producer[name]; dup {
				return nil, models.Misconfigf("envelope %q produced by both phase %q and phase %q", name, phases[prev].ID, p.ID)
			}
			producer[name] = i
		}
	}

	// Resolve requirements into phase-to-phase edges.
	deps := make([]map[int]bool, len(phases))
	for i, p := range phases {
		deps[i] = make(map[int]bool)
		for _, name := range p.requires() {
			if seed[name] {
				continue
			}
			src, ok := producer[name]
			if !ok {
				return nil, models.Misconfigf("phase %q requires %q which nothing produces", p.ID, name)
			}
			if src == i {
				return nil, models.Misconfigf("phase %q requires its own output %q", p.ID, name)
			}
			deps[i][src] = true
		}
	}

	// Kahn layering. Unplaced phases after exhaustion form a cycle.
	layers := make([][]int, 0, len(phases))
	placed := make([]bool, len(phases))
	remaining := len(phases)

	for remaining > 0 {
		var layer []int
		for i := range phases {
			if placed[i] {
				continue
			}
			ready := true
			for dep := range deps[i] {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, i)
			}
		}
		if len(layer) == 0 {
			var cyclic []string
			for i := range phases {
				if !placed[i] {
					cyclic = append(cyclic, phases[i].ID)
				}
			}
			sort.Strings(cyclic)
			return nil, models.Misconfigf("phase dependency cycle involving: %s", strings.Join(cyclic, ", "))
		}
		sort.Ints(layer)
		for _, i := range layer {
			placed[i] = true
		}
		remaining -= len(layer)
		layers = append(layers, layer)
	}

	return &graph{phases: phases, layers: layers}, nil
}

// LayerIDs exposes the computed layering as phase IDs, primarily for
// logging and tests.
func (g *graph) LayerIDs() [][]string {
	out := make([][]string, len(g.layers))
	for i, layer := range g.layers {
		ids := make([]string, len(layer))
		for j, idx := range layer {
			ids[j] = g.phases[idx].ID
		}
		out[i] = ids
	}
	return out
}
