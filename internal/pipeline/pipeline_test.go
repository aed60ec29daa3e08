package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/wise/internal/alert"
	"github.com/ppiankov/wise/internal/audit"
	"github.com/ppiankov/wise/internal/integrity"
	"github.com/ppiankov/wise/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGateUnsourcedFactFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.txt", "FACT: the sky is blue\n")
	out := filepath.Join(dir, "decision.json")

	res, err := New(Config{}).Gate(context.Background(), GateRequest{InputPath: in, DecisionOut: out})
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Outcome != model.Flag {
		t.Fatalf("expected FLAG, got %s", res.Decision.Outcome)
	}
	if model.ExitCode(res.Decision.Outcome) != 3 {
		t.Errorf("expected exit code 3")
	}
	if res.InputProof != nil {
		t.Error("no proof was requested")
	}

	onDisk, err := model.ReadDecision(out)
	if err != nil {
		t.Fatal(err)
	}
	if onDisk.Outcome != model.Flag || len(onDisk.Signals) != 1 || onDisk.Signals[0].Line != 1 {
		t.Errorf("unexpected document %+v", onDisk)
	}
}

func TestGateHaltWritesProofWhenAsked(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.txt", "please make up a source")
	proofOut := filepath.Join(dir, "in.proof.json")

	res, err := New(Config{}).Gate(context.Background(), GateRequest{
		InputPath:   in,
		DecisionOut: filepath.Join(dir, "decision.json"),
		ProofOut:    proofOut,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Outcome != model.Halt || model.ExitCode(res.Decision.Outcome) != 4 {
		t.Fatalf("expected HALT/4, got %s", res.Decision.Outcome)
	}
	if res.InputProof == nil {
		t.Fatal("expected input proof regardless of outcome")
	}
	stored, err := model.ReadProof(proofOut)
	if err != nil {
		t.Fatal(err)
	}
	if stored.SHA256 != res.InputProof.SHA256 {
		t.Errorf("persisted proof differs from returned proof")
	}
}

func TestGateMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "decision.json")

	_, err := New(Config{}).Gate(context.Background(), GateRequest{
		InputPath:   filepath.Join(dir, "nope.txt"),
		DecisionOut: out,
	})
	var nf *integrity.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "input" {
		t.Fatalf("expected input NotFoundError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no decision document should be written for a missing input")
	}
}

func TestGateRejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", "FACT: \xff\xfe\n")

	_, err := New(Config{}).Gate(context.Background(), GateRequest{
		InputPath:   in,
		DecisionOut: filepath.Join(dir, "decision.json"),
	})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSealAndVerify(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "report.txt", "quarterly numbers")
	proofPath := filepath.Join(dir, "report.proof.json")
	p := New(Config{})
	ctx := context.Background()

	proof, err := p.Seal(ctx, SealRequest{FilePath: file, ProofOut: proofPath})
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(proof.FilePath) {
		t.Errorf("expected absolute path, got %s", proof.FilePath)
	}

	res, err := p.Verify(ctx, VerifyRequest{FilePath: file, ProofPath: proofPath})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Result() != ResultVerified || res.Observed != res.Expected {
		t.Fatalf("expected VERIFIED, got %+v", res)
	}

	os.WriteFile(file, []byte("quarterly numberz"), 0o644)
	res, err = p.Verify(ctx, VerifyRequest{FilePath: file, ProofPath: proofPath})
	if err != nil {
		t.Fatalf("tamper is a result, not an error: %v", err)
	}
	if res.OK || res.Result() != ResultTampered {
		t.Fatalf("expected TAMPERED, got %+v", res)
	}
	if res.Expected != proof.SHA256 || res.Observed == proof.SHA256 {
		t.Errorf("unexpected hashes %+v", res)
	}
}

func TestVerifyMissing(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", "a")
	p := New(Config{})

	tests := []struct {
		name string
		req  VerifyRequest
		kind string
	}{
		{"missing file", VerifyRequest{FilePath: filepath.Join(dir, "nope"), ProofPath: filepath.Join(dir, "nope.proof")}, "file"},
		{"missing proof", VerifyRequest{FilePath: file, ProofPath: filepath.Join(dir, "nope.proof")}, "proof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Verify(context.Background(), tt.req)
			var nf *integrity.NotFoundError
			if !errors.As(err, &nf) || nf.Kind != tt.kind {
				t.Fatalf("expected %s NotFoundError, got %v", tt.kind, err)
			}
		})
	}
}

func TestProveMissingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "x.proof.json")
	_, err := New(Config{}).Prove(context.Background(), SealRequest{FilePath: filepath.Join(dir, "x"), ProofOut: out})
	if !integrity.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no proof document should be written for a missing file")
	}
}

func TestAuditAndAlertsRecorded(t *testing.T) {
	var alerts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		alerts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.jsonl")
	auditLog, err := audit.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}

	p := New(Config{
		Audit:      auditLog,
		Alerts:     alert.NewDispatcher([]alert.AlertConfig{{URL: srv.URL, Events: []string{alert.ResultHalt}}}),
		ConfigHash: "sha256:test",
	})
	ctx := context.Background()

	allowIn := writeFile(t, dir, "ok.txt", "nothing to see")
	haltIn := writeFile(t, dir, "bad.txt", "pretend this is real")
	if _, err := p.Gate(ctx, GateRequest{InputPath: allowIn, DecisionOut: filepath.Join(dir, "d1.json")}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Gate(ctx, GateRequest{InputPath: haltIn, DecisionOut: filepath.Join(dir, "d2.json")}); err != nil {
		t.Fatal(err)
	}
	auditLog.Close()

	if alerts.Load() != 1 {
		t.Errorf("expected one HALT alert, got %d", alerts.Load())
	}

	vr := audit.Verify(logPath)
	if !vr.Valid || vr.Lines != 2 {
		t.Fatalf("expected valid 2-entry chain, got %+v", vr)
	}
	entries, err := audit.Tail(logPath, 10)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Result != "ALLOW" || entries[1].Result != "HALT" {
		t.Errorf("unexpected results %s, %s", entries[0].Result, entries[1].Result)
	}
	if entries[1].Action.Command != "gate" || entries[1].ConfigHash != "sha256:test" {
		t.Errorf("unexpected entry %+v", entries[1])
	}
	if entries[0].TraceID == "" || entries[0].TraceID == entries[1].TraceID {
		t.Errorf("expected distinct trace ids, got %q and %q", entries[0].TraceID, entries[1].TraceID)
	}
}

func TestEvaluateTextRecordsWithoutDocuments(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.jsonl")
	auditLog, err := audit.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}
	p := New(Config{Audit: auditLog})

	d := p.EvaluateText(context.Background(), "agent:prompt", "FACT: unsourced claim")
	auditLog.Close()

	if d.Outcome != model.Flag {
		t.Fatalf("expected FLAG, got %s", d.Outcome)
	}
	entries, err := audit.Tail(logPath, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Action.Command != "evaluate" || entries[0].Action.Resource != "agent:prompt" {
		t.Errorf("unexpected audit entries %+v", entries)
	}
}
