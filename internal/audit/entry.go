package audit

import (
	"fmt"
	"time"

	"github.com/ppiankov/wise/internal/model"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Results an entry may carry besides the decision outcomes.
const (
	ResultSealed   = "SEALED"
	ResultVerified = "VERIFIED"
	ResultTampered = "TAMPERED"
	ResultFailed   = "FAILED"
)

var knownResults = map[string]bool{
	string(model.Allow): true,
	string(model.Flag):  true,
	string(model.Halt):  true,
	ResultSealed:        true,
	ResultVerified:      true,
	ResultTampered:      true,
	ResultFailed:        true,
}

// AuditAction is the command and the file it acted on.
type AuditAction struct {
	Command  string `json:"command"`
	Resource string `json:"resource"`
}

// AuditEntry is one line in the hash-chained JSONL audit log. Fields are
// structs only, so json.Marshal output and therefore line hashes are stable.
// SHA256 is the content digest the flow produced or observed, if any.
type AuditEntry struct {
	Timestamp  string      `json:"ts"`
	TraceID    string      `json:"trace_id"`
	Action     AuditAction `json:"action"`
	Result     string      `json:"result"`
	Reason     string      `json:"reason"`
	SHA256     string      `json:"sha256,omitempty"`
	ConfigHash string      `json:"config_hash"`
	PrevHash   string      `json:"prev_hash"`
}

// Validate checks the entry's own fields. Chain links are checked by Verify.
func (e AuditEntry) Validate() error {
	if _, err := time.Parse(TimestampFormat, e.Timestamp); err != nil {
		return fmt.Errorf("bad ts %q", e.Timestamp)
	}
	if e.Action.Command == "" {
		return fmt.Errorf("missing action.command")
	}
	if !knownResults[e.Result] {
		return fmt.Errorf("unknown result %q", e.Result)
	}
	if e.SHA256 != "" && !model.IsDigest(e.SHA256) {
		return fmt.Errorf("sha256 %q is not a hex digest", e.SHA256)
	}
	return nil
}
