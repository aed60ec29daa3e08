package wise

import (
	"fmt"

	"github.com/ppiankov/wise/internal/model"
)

// Outcome is the gate's verdict.
type Outcome string

const (
	Allow Outcome = Outcome(model.Allow)
	Flag  Outcome = Outcome(model.Flag)
	Halt  Outcome = Outcome(model.Halt)
)

// Signal is one finding behind a decision. Exactly one of Pattern,
// Domain or Line is set.
type Signal struct {
	Code     string
	Severity string
	Pattern  string
	Domain   string
	Line     int
}

// Decision is the result of gating text.
type Decision struct {
	Outcome Outcome
	Reason  string
	Signals []Signal
}

// ExitCode returns the CLI exit status for the decision: 0, 3 or 4.
func (d Decision) ExitCode() int {
	return model.ExitCode(model.Outcome(d.Outcome))
}

// Proof summarizes a written proof document.
type Proof struct {
	FilePath    string
	FileSize    int64
	FileMtimeNS int64
	SHA256      string
}

// VerifyResult reports a comparison against a proof.
type VerifyResult struct {
	Verified bool
	Expected string
	Observed string
}

// HaltedError is returned when a wrapped call is stopped by a HALT.
// Stage is "input" or "output".
type HaltedError struct {
	Stage    string
	Decision Decision
}

func (e *HaltedError) Error() string {
	return fmt.Sprintf("wise halted %s: %s", e.Stage, e.Decision.Reason)
}

func toDecision(d model.Decision) Decision {
	signals := make([]Signal, 0, len(d.Signals))
	for _, s := range d.Signals {
		signals = append(signals, Signal{
			Code:     string(s.Code),
			Severity: string(s.Severity),
			Pattern:  s.Pattern,
			Domain:   s.Domain,
			Line:     s.Line,
		})
	}
	return Decision{Outcome: Outcome(d.Outcome), Reason: d.Reason, Signals: signals}
}

func toProof(p model.Proof) Proof {
	return Proof{
		FilePath:    p.FilePath,
		FileSize:    p.FileSize,
		FileMtimeNS: p.FileMtimeNS,
		SHA256:      p.SHA256,
	}
}
