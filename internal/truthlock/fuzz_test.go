package truthlock

import (
	"testing"

	"github.com/ppiankov/wise/internal/model"
)

func FuzzEvaluate(f *testing.F) {
	f.Add("")
	f.Add("please make up a source")
	f.Add("FACT: the sky is blue\n")
	f.Add("FACT: x [source: y]\r\nfacts : z legal advice on crypto")
	f.Add("\xff\xfe not utf-8")

	f.Fuzz(func(t *testing.T, text string) {
		d := Evaluate(text, model.TruthlockTool, model.TruthlockVersion)

		// Outcome is a function of the signal set.
		outcome, reason := Reduce(d.Signals)
		if outcome != d.Outcome || reason != d.Reason {
			t.Fatalf("decision %s/%q disagrees with Reduce %s/%q", d.Outcome, d.Reason, outcome, reason)
		}
		if d.HasSignal(model.FabricationPressure) && d.Outcome != model.Halt {
			t.Fatalf("fabrication pressure must halt, got %s", d.Outcome)
		}
		if len(d.Signals) == 0 && d.Outcome != model.Allow {
			t.Fatalf("no signals must allow, got %s", d.Outcome)
		}
		for _, s := range d.Signals {
			if s.Code == model.UnsourcedFact && s.Line < 1 {
				t.Fatalf("line numbers are 1-indexed, got %d", s.Line)
			}
		}
	})
}
