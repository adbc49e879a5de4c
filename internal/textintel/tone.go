package textintel

// ToneLabel is the narrative tone classification.
type ToneLabel string

const (
	TonePositive ToneLabel = "POSITIVE"
	ToneNeutral  ToneLabel = "NEUTRAL"
	ToneNegative ToneLabel = "NEGATIVE"
)

// ToneResult is the outcome of narrative tone classification.
type ToneResult struct {
	Label ToneLabel
	// Score is the normalized net sentiment in [-1, 1].
	Score float64
	// PositiveHits/NegativeHits/HedgingHits are raw pattern counts.
	PositiveHits int
	NegativeHits int
	HedgingHits  int
}

// Tone classifies the tone of management narrative. Hedging language
// drags the net score down at half weight: a confident paragraph
// wrapped in qualifiers is not confident.
func (l *Lexicon) Tone(text string) ToneResult {
	norm := normalize(text)

	res := ToneResult{
		PositiveHits: countHits(norm, l.Positive),
		NegativeHits: countHits(norm, l.Negative),
		HedgingHits:  countHits(norm, l.Hedging),
	}

	total := res.PositiveHits + res.NegativeHits + res.HedgingHits
	if total == 0 {
		res.Label = ToneNeutral
		return res
	}

	net := float64(res.PositiveHits) - float64(res.NegativeHits) - 0.5*float64(res.HedgingHits)
	res.Score = net / float64(total)
	if res.Score > 1 {
		res.Score = 1
	} else if res.Score < -1 {
		res.Score = -1
	}

	switch {
	case res.Score >= 0.2:
		res.Label = TonePositive
	case res.Score <= -0.2:
		res.Label = ToneNegative
	default:
		res.Label = ToneNeutral
	}
	return res
}
