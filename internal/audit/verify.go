package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// VerifyResult is the outcome of walking a log. On success it also
// summarises what the log recorded.
type VerifyResult struct {
	Valid bool `json:"valid"`
	Lines int  `json:"lines"`
	// Head is the hash of the last line, the value the next entry chains to.
	Head string `json:"head,omitempty"`
	// Results counts entries per result (ALLOW, HALT, TAMPERED, ...).
	Results map[string]int `json:"results,omitempty"`
	// ConfigChanges counts entries whose config_hash differs from the
	// entry before, i.e. how often the flows ran under a new config.
	ConfigChanges int    `json:"config_changes"`
	Error         string `json:"error,omitempty"`
	ErrorLine     int    `json:"error_line,omitempty"`
}

// lineError marks a failure tied to one line of the log.
type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string { return e.msg }

// Verify walks the log at path. Every line must parse, pass
// AuditEntry.Validate and carry the hash of the line before it (the
// genesis hash for the first). The first failure is reported.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	res := VerifyResult{Results: map[string]int{}}
	prevHash := GenesisHash
	prevConfig := ""

	err = eachLine(f, func(n int, line []byte) error {
		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return &lineError{n, fmt.Sprintf("parse error: %v", err)}
		}
		if entry.PrevHash != prevHash {
			if n == 1 {
				return &lineError{n, fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", entry.PrevHash)}
			}
			return &lineError{n, fmt.Sprintf("hash mismatch: expected %s, got %s", prevHash, entry.PrevHash)}
		}
		if err := entry.Validate(); err != nil {
			return &lineError{n, err.Error()}
		}

		if n > 1 && entry.ConfigHash != prevConfig {
			res.ConfigChanges++
		}
		prevConfig = entry.ConfigHash
		res.Results[entry.Result]++
		res.Lines = n
		prevHash = HashLine(line)
		return nil
	})

	var le *lineError
	switch {
	case errors.As(err, &le):
		return VerifyResult{Error: le.msg, ErrorLine: le.line}
	case err != nil:
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	res.Valid = true
	if res.Lines > 0 {
		res.Head = prevHash
	}
	return res
}
