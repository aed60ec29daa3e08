// Package truthlock classifies text into an ALLOW, FLAG or HALT decision.
// Classification is pattern based: fixed phrase tables for fabrication
// pressure and risk domains, plus a line rule requiring FACT: lines to
// carry a [source: ...] citation. No semantic analysis is attempted.
package truthlock

import (
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/wise/internal/model"
)

// Decision reasons, one per outcome.
const (
	ReasonHalt  = "Fabrication pressure detected."
	ReasonFlag  = "Governance signals detected."
	ReasonAllow = "No blocking signals detected."
)

// now is swapped in tests.
var now = time.Now

// Evaluate scans text and returns a Decision carrying every signal found.
// It has no side effects; only CreatedUTC depends on the clock.
func Evaluate(text, tool, version string) model.Decision {
	signals := Scan(text)
	outcome, reason := Reduce(signals)

	return model.Decision{
		Schema:     model.DecisionSchema,
		Tool:       tool,
		Version:    version,
		CreatedUTC: now().Unix(),
		Outcome:    outcome,
		Reason:     reason,
		Signals:    signals,
	}
}

// Scan returns all signals for text in discovery order: fabrication
// patterns, then risk domains, then unsourced fact lines. The result is
// never nil.
func Scan(text string) []model.Signal {
	text = turkishI.Replace(norm.NFC.String(text))
	signals := []model.Signal{}

	for _, p := range fabricationPatterns {
		if p.re.MatchString(text) {
			signals = append(signals, model.Signal{
				Code:     model.FabricationPressure,
				Severity: model.SevHigh,
				Pattern:  p.Source,
			})
		}
	}

	for _, p := range riskPatterns {
		if p.re.MatchString(text) {
			signals = append(signals, model.Signal{
				Code:     model.RiskDomain,
				Severity: model.SevMed,
				Domain:   p.Domain,
			})
		}
	}

	for i, line := range splitLines(text) {
		if factLineRe.MatchString(line) && !sourceTagRe.MatchString(line) {
			signals = append(signals, model.Signal{
				Code:     model.UnsourcedFact,
				Severity: model.SevHigh,
				Line:     i + 1,
			})
		}
	}

	return signals
}

// Reduce picks the outcome for a set of signals, most severe rule first.
// The result does not depend on signal order.
func Reduce(signals []model.Signal) (model.Outcome, string) {
	var fabrication, governance bool
	for _, s := range signals {
		switch s.Code {
		case model.FabricationPressure:
			fabrication = true
		case model.UnsourcedFact, model.RiskDomain:
			governance = true
		}
	}

	switch {
	case fabrication:
		return model.Halt, ReasonHalt
	case governance:
		return model.Flag, ReasonFlag
	default:
		return model.Allow, ReasonAllow
	}
}
