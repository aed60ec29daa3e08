package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// MarshalDocument encodes v the way every persisted document is written:
// sorted keys, two-space indent, trailing newline omitted. <, > and & are
// written as is, not as \u003c, \u003e and \u0026.
func MarshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteDocument writes v to path as a JSON document, replacing any
// existing file.
func WriteDocument(path string, v any) error {
	data, err := MarshalDocument(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadDecision parses a decision document.
func ReadDecision(path string) (Decision, error) {
	var d Decision
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse decision %s: %w", path, err)
	}
	if d.Signals == nil {
		d.Signals = []Signal{}
	}
	return d, nil
}

// ReadProof parses a proof document. A proof without a well-formed
// sha256 digest is rejected, since nothing could be verified against it.
func ReadProof(path string) (Proof, error) {
	var p Proof
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse proof %s: %w", path, err)
	}
	if !IsDigest(p.SHA256) {
		return p, fmt.Errorf("parse proof %s: sha256 is not a 64-character hex digest", path)
	}
	return p, nil
}

// IsDigest reports whether s looks like a hex-encoded SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
