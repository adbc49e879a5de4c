package models

// Direction is a module's directional stance on the stock.
type Direction string

const (
	VotePositive Direction = "positive"
	VoteNeutral  Direction = "neutral"
	VoteNegative Direction = "negative"
)

// Vote is one analysis module's contribution to the consensus. A module
// registers exactly one vote slot; when its inputs were unavailable the
// slot is present with Available=false and is excluded from both the
// numerator and denominator of the consensus, never counted as neutral.
type Vote struct {
	Signal    string    `json:"signal"` // e.g. "quality.piotroski"
	Direction Direction `json:"direction,omitempty"`
	Available bool      `json:"available"`
	Rationale string    `json:"rationale,omitempty"`
}

// PositiveVote/NeutralVote/NegativeVote build an available vote.
func PositiveVote(signal, rationale string) Vote {
	return Vote{Signal: signal, Direction: VotePositive, Available: true, Rationale: rationale}
}

func NeutralVote(signal, rationale string) Vote {
	return Vote{Signal: signal, Direction: VoteNeutral, Available: true, Rationale: rationale}
}

func NegativeVote(signal, rationale string) Vote {
	return Vote{Signal: signal, Direction: VoteNegative, Available: true, Rationale: rationale}
}

// UnavailableVote registers the slot without a stance.
func UnavailableVote(signal, reason string) Vote {
	return Vote{Signal: signal, Available: false, Rationale: reason}
}

// Confidence grades how much evidence backed the consensus.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Consensus is the synthesizer's candidate outcome before the safety
// gate is applied.
type Consensus struct {
	Rating           Rating     `json:"rating"`
	PositiveFraction float64    `json:"positive_fraction"`
	Positive         int        `json:"positive"`
	Neutral          int        `json:"neutral"`
	Negative         int        `json:"negative"`
	Available        int        `json:"available"`  // votes with a stance
	Registered       int        `json:"registered"` // all vote slots including unavailable
	Confidence       Confidence `json:"confidence"`
	Drivers          []string   `json:"drivers,omitempty"` // strongest rationales for the report
}
