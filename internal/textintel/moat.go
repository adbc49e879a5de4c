package textintel

import "sort"

// MoatResult is the outcome of moat evidence classification.
type MoatResult struct {
	// Kind is the dominant moat family, empty when no evidence found.
	Kind string
	// Score counts weighted evidence across all families, 0..10.
	Score float64
	// Evidence holds one excerpt per matched family.
	Evidence []string
}

// Moat scans narrative text for durable-advantage evidence. Breadth
// beats repetition: two distinct moat families score higher than one
// family mentioned twice.
func (l *Lexicon) Moat(text string) MoatResult {
	norm := normalize(text)

	type hit struct {
		kind  string
		count int
		quote string
	}

	var hits []hit
	for kind, patterns := range l.MoatFamilies {
		count := countHits(norm, patterns)
		if count == 0 {
			continue
		}
		quote := ""
		for _, p := range patterns {
			if quote = excerpt(norm, p, 60); quote != "" {
				break
			}
		}
		hits = append(hits, hit{kind: kind, count: count, quote: quote})
	}

	if len(hits) == 0 {
		return MoatResult{}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].kind < hits[j].kind
	})

	res := MoatResult{Kind: hits[0].kind}
	for _, h := range hits {
		// 2 points per family plus 1 for depth beyond a single mention
		res.Score += 2
		if h.count > 1 {
			res.Score++
		}
		if h.quote != "" {
			res.Evidence = append(res.Evidence, h.kind+": "+h.quote)
		}
	}
	if res.Score > 10 {
		res.Score = 10
	}
	return res
}
