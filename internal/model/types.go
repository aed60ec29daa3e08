package model

// Outcome is the governance decision for a piece of input text.
type Outcome string

const (
	Allow Outcome = "ALLOW"
	Flag  Outcome = "FLAG"
	Halt  Outcome = "HALT"
)

// SignalCode identifies the kind of observation the evaluator made.
type SignalCode string

const (
	FabricationPressure SignalCode = "FABRICATION_PRESSURE"
	RiskDomain          SignalCode = "RISK_DOMAIN"
	UnsourcedFact       SignalCode = "UNSOURCED_FACT"
)

// Severity grades a signal.
type Severity string

const (
	SevHigh Severity = "HIGH"
	SevMed  Severity = "MED"
)

// Schema identifiers written into every persisted document.
const (
	DecisionSchema = "truthlock.decision.v1"
	ProofSchema    = "winstack.proof.v1"
)

// Tool identity stamped into documents.
const (
	TruthlockTool    = "truthlock"
	TruthlockVersion = "3.0.0"
	WinstackTool     = "winstack"
	WinstackVersion  = "3.0.0"
)

// Signal is one observation emitted during evaluation. Exactly one of
// Pattern, Domain or Line carries the detail, depending on Code.
//
// Fields are declared in JSON key order so encoding/json emits sorted keys.
type Signal struct {
	Code     SignalCode `json:"code"`
	Domain   string     `json:"domain,omitempty"`
	Line     int        `json:"line,omitempty"`
	Pattern  string     `json:"pattern,omitempty"`
	Severity Severity   `json:"severity"`
}

// Decision is the result of evaluating a piece of text.
type Decision struct {
	CreatedUTC int64    `json:"created_utc"`
	Outcome    Outcome  `json:"decision"`
	Reason     string   `json:"reason"`
	Schema     string   `json:"schema"`
	Signals    []Signal `json:"signals"`
	Tool       string   `json:"tool"`
	Version    string   `json:"version"`
}

// HasSignal reports whether any signal carries the given code.
func (d Decision) HasSignal(code SignalCode) bool {
	for _, s := range d.Signals {
		if s.Code == code {
			return true
		}
	}
	return false
}

// Proof is an integrity snapshot of a file at a point in time.
// SHA256 is authoritative; size and mtime are informational.
type Proof struct {
	CreatedUTC  int64  `json:"created_utc"`
	FileMtimeNS int64  `json:"file_mtime_ns"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	Schema      string `json:"schema"`
	SHA256      string `json:"sha256"`
	Tool        string `json:"tool"`
	Version     string `json:"version"`
}
