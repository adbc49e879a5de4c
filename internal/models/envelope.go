// -----------------------------------------------------------------------
// Signal Envelope - Universal value container passed between modules
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"sort"
	"time"
)

// Unit identifies the unit of an envelope's numeric payload.
type Unit string

const (
	UnitCount            Unit = "count"
	UnitCurrencyCrore    Unit = "currency_crore" // statement figures in ₹ Crore
	UnitCurrencyPerShare Unit = "currency_per_share"
	UnitPercent          Unit = "percent"
	UnitRatio            Unit = "ratio"
	UnitDays             Unit = "days"
	UnitText             Unit = "text"
)

// Source identifies where an envelope's payload came from.
type Source string

const (
	SourceScraped Source = "scraped" // fundamentals page
	SourceFiling  Source = "filing"  // annual report / exchange filing
	SourceMarket  Source = "market"  // quote / market parameter feed
	SourceDerived Source = "derived" // computed by an analysis module
)

// PayloadKind identifies which payload field of an envelope is meaningful.
type PayloadKind string

const (
	PayloadScalar PayloadKind = "scalar"
	PayloadSeries PayloadKind = "series"
	PayloadText   PayloadKind = "text"
	PayloadNone   PayloadKind = "none" // unavailable envelopes carry no payload
)

// SeriesPoint is a single dated observation in a series envelope.
// Fiscal-year observations carry a Period label ("FY2025"); daily
// observations carry the Date only. Series are ordered oldest first.
type SeriesPoint struct {
	Period string    `json:"period,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	Value  float64   `json:"value"`
}

// Envelope is the value container crossing every module boundary.
// An envelope is either Available with exactly one payload class set,
// or Unavailable with a Reason and no usable payload. Consumers must
// branch on Available; a missing value is never replaced by a default.
// Envelopes are immutable once constructed.
type Envelope struct {
	Name       string        `json:"name"`
	Kind       PayloadKind   `json:"kind"`
	Value      float64       `json:"value,omitempty"`
	Series     []SeriesPoint `json:"series,omitempty"`
	Text       string        `json:"text,omitempty"`
	Unit       Unit          `json:"unit,omitempty"`
	Source     Source        `json:"source,omitempty"`
	Confidence float64       `json:"confidence,omitempty"` // 0..1, raw data defaults to 1
	ComputedAt time.Time     `json:"computed_at"`
	Available  bool          `json:"available"`
	Reason     string        `json:"reason,omitempty"` // set when unavailable
}

// NewScalar returns an available scalar envelope.
func NewScalar(name string, value float64, unit Unit, source Source) Envelope {
	return Envelope{
		Name:       name,
		Kind:       PayloadScalar,
		Value:      value,
		Unit:       unit,
		Source:     source,
		Confidence: 1.0,
		ComputedAt: time.Now(),
		Available:  true,
	}
}

// NewSeries returns an available series envelope. The points slice is
// copied so later mutation of the caller's slice cannot leak in.
func NewSeries(name string, points []SeriesPoint, unit Unit, source Source) Envelope {
	cp := make([]SeriesPoint, len(points))
	copy(cp, points)
	return Envelope{
		Name:       name,
		Kind:       PayloadSeries,
		Series:     cp,
		Unit:       unit,
		Source:     source,
		Confidence: 1.0,
		ComputedAt: time.Now(),
		Available:  true,
	}
}

// NewText returns an available text envelope.
func NewText(name, text string, source Source) Envelope {
	return Envelope{
		Name:       name,
		Kind:       PayloadText,
		Text:       text,
		Unit:       UnitText,
		Source:     source,
		Confidence: 1.0,
		ComputedAt: time.Now(),
		Available:  true,
	}
}

// Unavailable returns the definitive "no data" envelope for name.
// Reason should say which input was missing, not restate the name.
func Unavailable(name, reason string) Envelope {
	return Envelope{
		Name:       name,
		Kind:       PayloadNone,
		ComputedAt: time.Now(),
		Available:  false,
		Reason:     reason,
	}
}

// WithConfidence returns a copy of the envelope with confidence c (clamped 0..1).
func (e Envelope) WithConfidence(c float64) Envelope {
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}
	e.Confidence = c
	return e
}

// Latest returns the last point of a series envelope.
func (e Envelope) Latest() (SeriesPoint, bool) {
	if !e.Available || e.Kind != PayloadSeries || len(e.Series) == 0 {
		return SeriesPoint{}, false
	}
	return e.Series[len(e.Series)-1], true
}

// Values returns the raw values of a series envelope, oldest first.
func (e Envelope) Values() []float64 {
	if !e.Available || e.Kind != PayloadSeries {
		return nil
	}
	out := make([]float64, len(e.Series))
	for i, p := range e.Series {
		out[i] = p.Value
	}
	return out
}

// Set is the read view of envelopes a module receives. Treated as
// immutable: producers return new envelopes and the pipeline merges
// them into a fresh map between layers.
type Set map[string]Envelope

// Get returns the named envelope. The second return is false when the
// name was never produced at all (distinct from produced-but-unavailable).
func (s Set) Get(name string) (Envelope, bool) {
	e, ok := s[name]
	return e, ok
}

// Has reports whether name exists and is available.
func (s Set) Has(name string) bool {
	e, ok := s[name]
	return ok && e.Available
}

// ScalarOf returns the scalar payload of name, or false when the
// envelope is missing, unavailable, or not a scalar.
func (s Set) ScalarOf(name string) (float64, bool) {
	e, ok := s[name]
	if !ok || !e.Available || e.Kind != PayloadScalar {
		return 0, false
	}
	return e.Value, true
}

// SeriesOf returns the series payload of name.
func (s Set) SeriesOf(name string) ([]SeriesPoint, bool) {
	e, ok := s[name]
	if !ok || !e.Available || e.Kind != PayloadSeries {
		return nil, false
	}
	return e.Series, true
}

// TextOf returns the text payload of name.
func (s Set) TextOf(name string) (string, bool) {
	e, ok := s[name]
	if !ok || !e.Available || e.Kind != PayloadText {
		return "", false
	}
	return e.Text, true
}

// LatestOf returns the last point value of a series envelope.
func (s Set) LatestOf(name string) (float64, bool) {
	e, ok := s[name]
	if !ok {
		return 0, false
	}
	p, ok := e.Latest()
	if !ok {
		return 0, false
	}
	return p.Value, true
}

// Merge returns a new Set containing s plus the given envelopes.
// The receiver is never modified.
func (s Set) Merge(envs ...Envelope) Set {
	out := make(Set, len(s)+len(envs))
	for k, v := range s {
		out[k] = v
	}
	for _, e := range envs {
		out[e.Name] = e
	}
	return out
}

// Names returns all envelope names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Counts returns (available, unavailable) envelope counts.
func (s Set) Counts() (available, unavailable int) {
	for _, e := range s {
		if e.Available {
			available++
		} else {
			unavailable++
		}
	}
	return available, unavailable
}

// unavailableReason chains the reason of a missing operand so derived
// envelopes name the input that broke the chain.
func unavailableReason(e Envelope) string {
	if e.Reason != "" {
		return fmt.Sprintf("%s unavailable: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s unavailable", e.Name)
}

func scalarOperands(name string, a, b Envelope) (Envelope, bool) {
	if !a.Available {
		return Unavailable(name, unavailableReason(a)), false
	}
	if !b.Available {
		return Unavailable(name, unavailableReason(b)), false
	}
	if a.Kind != PayloadScalar || b.Kind != PayloadScalar {
		return Unavailable(name, "operands are not scalar"), false
	}
	return Envelope{}, true
}

// Add returns a+b as a derived envelope, propagating unavailability.
func Add(name string, a, b Envelope, unit Unit) Envelope {
	if bad, ok := scalarOperands(name, a, b); !ok {
		return bad
	}
	return NewScalar(name, a.Value+b.Value, unit, SourceDerived)
}

// Sub returns a-b as a derived envelope, propagating unavailability.
func Sub(name string, a, b Envelope, unit Unit) Envelope {
	if bad, ok := scalarOperands(name, a, b); !ok {
		return bad
	}
	return NewScalar(name, a.Value-b.Value, unit, SourceDerived)
}

// Mul returns a*b as a derived envelope, propagating unavailability.
func Mul(name string, a, b Envelope, unit Unit) Envelope {
	if bad, ok := scalarOperands(name, a, b); !ok {
		return bad
	}
	return NewScalar(name, a.Value*b.Value, unit, SourceDerived)
}

// Div returns a/b as a derived envelope. Division by zero yields an
// Unavailable envelope, never Inf or NaN.
func Div(name string, a, b Envelope, unit Unit) Envelope {
	if bad, ok := scalarOperands(name, a, b); !ok {
		return bad
	}
	if b.Value == 0 {
		return Unavailable(name, fmt.Sprintf("%s is zero", b.Name))
	}
	return NewScalar(name, a.Value/b.Value, unit, SourceDerived)
}

// GrowthPct returns the percentage change from prev to cur,
// propagating unavailability and refusing a zero base.
func GrowthPct(name string, cur, prev Envelope) Envelope {
	if bad, ok := scalarOperands(name, cur, prev); !ok {
		return bad
	}
	if prev.Value == 0 {
		return Unavailable(name, fmt.Sprintf("%s base is zero", prev.Name))
	}
	return NewScalar(name, (cur.Value-prev.Value)/prev.Value*100, UnitPercent, SourceDerived)
}
