package textintel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTone(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name string
		text string
		want ToneLabel
	}{
		{
			name: "upbeat narrative",
			text: "The year saw strong growth across segments with record revenue and margin expansion supported by robust demand.",
			want: TonePositive,
		},
		{
			name: "distressed narrative",
			text: "Weak demand and margin pressure persisted; the impairment and ongoing litigation weighed on results.",
			want: ToneNegative,
		},
		{
			name: "no lexicon hits",
			text: "The company manufactures industrial valves at three plants.",
			want: ToneNeutral,
		},
		{
			name: "confidence wrapped in qualifiers",
			text: "We expect momentum, subject to macro uncertainty; results are uncertain and depend on a challenging environment. No assurance can be given.",
			want: ToneNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lex.Tone(tt.text)
			if res.Label != tt.want {
				t.Errorf("Tone() = %s (score %.2f, +%d -%d ~%d), want %s",
					res.Label, res.Score, res.PositiveHits, res.NegativeHits, res.HedgingHits, tt.want)
			}
		})
	}
}

func TestToneIsDeterministic(t *testing.T) {
	lex := DefaultLexicon()
	text := "Record revenue with margin pressure and macro uncertainty."
	first := lex.Tone(text)
	for i := 0; i < 5; i++ {
		if got := lex.Tone(text); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestMoat(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("breadth beats repetition", func(t *testing.T) {
		broad := lex.Moat("Our brand equity and premium positioning, combined with economies of scale and backward integration, sustain returns.")
		narrow := lex.Moat("Brand equity remains central. Our brand equity strengthened further.")
		if broad.Score <= narrow.Score {
			t.Errorf("two families scored %.0f, one repeated family scored %.0f", broad.Score, narrow.Score)
		}
	})

	t.Run("dominant family wins", func(t *testing.T) {
		res := lex.Moat("Long-term contract and sticky customer relationships with high retention; we also hold a license.")
		if res.Kind != "switching_costs" {
			t.Errorf("Kind = %q, want switching_costs", res.Kind)
		}
		if len(res.Evidence) == 0 {
			t.Error("no evidence excerpts collected")
		}
	})

	t.Run("no evidence", func(t *testing.T) {
		res := lex.Moat("The company operates in a commoditized market.")
		if res.Kind != "" || res.Score != 0 {
			t.Errorf("Moat() = %+v, want zero result", res)
		}
	})
}

func TestAuditorSeverity(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("clean report with boilerplate", func(t *testing.T) {
		// Every clean report mentions going concern inside standard
		// assurance language; that must not raise a flag.
		text := `We conducted our audit in accordance with the Standards on Auditing.
		Our objectives are to obtain reasonable assurance about whether the financial
		statements are free from material misstatement. Management's use of the
		going concern basis of accounting is appropriate. In our opinion the
		statements give a true and fair view.`
		res := lex.AuditorSeverity(text)
		if len(res.Flags) != 0 {
			t.Errorf("Flags = %+v, want none for a clean report", res.Flags)
		}
		if res.GoingConcern {
			t.Error("boilerplate going-concern language raised the flag")
		}
	})

	t.Run("qualified opinion", func(t *testing.T) {
		res := lex.AuditorSeverity("Except for the matter described in the Basis for Qualified Opinion section, the statements present fairly.")
		if len(res.Flags) == 0 {
			t.Fatal("qualified opinion not detected")
		}
		if res.Flags[0].Severity != SeverityHigh {
			t.Errorf("Severity = %s, want HIGH", res.Flags[0].Severity)
		}
	})

	t.Run("material going concern doubt", func(t *testing.T) {
		res := lex.AuditorSeverity("These conditions indicate a material uncertainty exists that may cast significant doubt on the company's ability to continue as a going concern.")
		if !res.GoingConcern {
			t.Fatal("going concern doubt not detected")
		}
		found := false
		for _, f := range res.Flags {
			if f.Kind == "going_concern" && f.Severity == SeverityCritical {
				found = true
			}
		}
		if !found {
			t.Errorf("Flags = %+v, want a critical going_concern flag", res.Flags)
		}
	})
}

func TestSeverityOutranks(t *testing.T) {
	if !SeverityCritical.Outranks(SeverityHigh) || !SeverityHigh.Outranks(SeverityLow) {
		t.Error("severity ordering broken")
	}
	if SeverityLow.Outranks(SeverityCritical) {
		t.Error("LOW outranks CRITICAL")
	}
}

func TestLoadLexiconOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "positive:\n  - bumper harvest\nmoat:\n  brand:\n    - beloved marque\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon() error = %v", err)
	}

	if res := lex.Tone("A bumper harvest year."); res.Label != TonePositive {
		t.Errorf("override positive family not applied: %+v", res)
	}
	// Families absent from the file keep their defaults.
	if res := lex.Tone("Severe margin pressure."); res.Label != ToneNegative {
		t.Errorf("default negative family lost in overlay: %+v", res)
	}
	if res := lex.Moat("A beloved marque."); res.Kind != "brand" {
		t.Errorf("override moat family not applied: %+v", res)
	}

	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadLexicon() accepted a missing file")
	}
}
