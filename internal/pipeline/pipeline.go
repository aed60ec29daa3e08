// Package pipeline sequences the decision engine, the proof engine and an
// optional external command into the gate, seal, verify and run flows.
// Every flow is a one-shot transaction: documents are written as each
// stage completes and are never rolled back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/wise/internal/alert"
	"github.com/ppiankov/wise/internal/audit"
	"github.com/ppiankov/wise/internal/integrity"
	"github.com/ppiankov/wise/internal/logging"
	"github.com/ppiankov/wise/internal/metrics"
	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/truthlock"
)

// Verification results, as printed and audited.
const (
	ResultVerified = audit.ResultVerified
	ResultTampered = audit.ResultTampered
	ResultSealed   = audit.ResultSealed
)

// Config wires the side records a pipeline keeps. Every field is optional.
type Config struct {
	Logger     *slog.Logger
	Audit      *audit.Log
	Alerts     *alert.Dispatcher
	Metrics    *metrics.Recorder
	ConfigHash string
}

// Pipeline runs governed flows. It holds no per-invocation state and is
// safe for concurrent use as long as callers target distinct files.
type Pipeline struct {
	cfg Config
	log *slog.Logger
}

// New returns a Pipeline using cfg's collaborators.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, log: logging.OrNop(cfg.Logger)}
}

// GateRequest names the input to evaluate and where to write documents.
// ProofOut is optional.
type GateRequest struct {
	InputPath   string
	DecisionOut string
	ProofOut    string
}

// GateResult carries the decision and, when requested, the input proof.
type GateResult struct {
	Decision   model.Decision
	InputProof *model.Proof
}

// Gate evaluates the input and persists the decision document. It never
// executes anything. The input proof, when requested, is written whatever
// the outcome.
func (p *Pipeline) Gate(ctx context.Context, req GateRequest) (*GateResult, error) {
	traceID := uuid.NewString()

	text, err := readInput(req.InputPath)
	if err != nil {
		return nil, err
	}

	decision := truthlock.Evaluate(text, model.TruthlockTool, model.TruthlockVersion)
	if err := model.WriteDocument(req.DecisionOut, decision); err != nil {
		return nil, err
	}
	p.log.Debug("decision written",
		"trace_id", traceID,
		"path", req.DecisionOut,
		"outcome", decision.Outcome,
		"signals", len(decision.Signals),
	)
	p.cfg.Metrics.Decision(decision)

	result := &GateResult{Decision: decision}
	if req.ProofOut != "" {
		proof, err := p.writeProof(req.InputPath, req.ProofOut)
		if err != nil {
			return nil, err
		}
		result.InputProof = &proof
	}

	p.record(ctx, traceID, "gate", req.InputPath, string(decision.Outcome), decision.Reason, digestOf(result.InputProof))
	return result, nil
}

// EvaluateText gates text that never touched the filesystem, such as a
// prompt handed over by an agent. source names it in the audit log.
// Nothing is persisted besides the side records.
func (p *Pipeline) EvaluateText(ctx context.Context, source, text string) model.Decision {
	traceID := uuid.NewString()

	decision := truthlock.Evaluate(text, model.TruthlockTool, model.TruthlockVersion)
	p.cfg.Metrics.Decision(decision)
	p.log.Debug("text evaluated", "trace_id", traceID, "source", source, "outcome", decision.Outcome)

	p.record(ctx, traceID, "evaluate", source, string(decision.Outcome), decision.Reason, "")
	return decision
}

// SealRequest names a file to prove and where to write its proof.
type SealRequest struct {
	FilePath string
	ProofOut string
}

// Seal produces and persists a proof for an arbitrary file.
func (p *Pipeline) Seal(ctx context.Context, req SealRequest) (model.Proof, error) {
	return p.seal(ctx, "seal", req)
}

// Prove is Seal under the integrity command's name, so the audit log
// tells the two surfaces apart.
func (p *Pipeline) Prove(ctx context.Context, req SealRequest) (model.Proof, error) {
	return p.seal(ctx, "prove", req)
}

func (p *Pipeline) seal(ctx context.Context, command string, req SealRequest) (model.Proof, error) {
	traceID := uuid.NewString()

	proof, err := p.writeProof(req.FilePath, req.ProofOut)
	if err != nil {
		return model.Proof{}, err
	}

	p.record(ctx, traceID, command, proof.FilePath, ResultSealed, "proof written to "+req.ProofOut, proof.SHA256)
	return proof, nil
}

// VerifyRequest names a file and the proof to check it against.
type VerifyRequest struct {
	FilePath  string
	ProofPath string
}

// VerifyResult reports a comparison. A mismatch is a result, not an error.
type VerifyResult struct {
	OK       bool
	Observed string
	Expected string
	Proof    model.Proof
}

// Result returns VERIFIED or TAMPERED.
func (r *VerifyResult) Result() string {
	if r.OK {
		return ResultVerified
	}
	return ResultTampered
}

// Verify re-hashes a file and compares it with a stored proof.
// A missing file or proof returns *integrity.NotFoundError.
func (p *Pipeline) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	return p.verify(ctx, "verify", req)
}

func (p *Pipeline) verify(ctx context.Context, command string, req VerifyRequest) (*VerifyResult, error) {
	traceID := uuid.NewString()

	if err := requireRegular(req.FilePath, "file"); err != nil {
		p.cfg.Metrics.Verification("MISSING")
		return nil, err
	}
	if err := requireRegular(req.ProofPath, "proof"); err != nil {
		p.cfg.Metrics.Verification("MISSING")
		return nil, err
	}

	stored, err := model.ReadProof(req.ProofPath)
	if err != nil {
		return nil, err
	}

	ok, observed, expected, err := integrity.Compare(req.FilePath, stored)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{OK: ok, Observed: observed, Expected: expected, Proof: stored}
	p.cfg.Metrics.Verification(result.Result())

	reason := "content hash matches proof"
	if !ok {
		reason = "content hash differs from proof"
		p.log.Warn("file tampered",
			"trace_id", traceID,
			"path", req.FilePath,
			"expected", expected,
			"observed", observed,
		)
	}
	p.record(ctx, traceID, command, req.FilePath, result.Result(), reason, observed)
	return result, nil
}

// VerifyAs is Verify recorded under a caller-chosen command name.
func (p *Pipeline) VerifyAs(ctx context.Context, command string, req VerifyRequest) (*VerifyResult, error) {
	return p.verify(ctx, command, req)
}

// writeProof proves path and writes the proof document to out.
func (p *Pipeline) writeProof(path, out string) (model.Proof, error) {
	proof, err := integrity.MakeProof(path, model.WinstackTool, model.WinstackVersion)
	if err != nil {
		return model.Proof{}, err
	}
	if err := model.WriteDocument(out, proof); err != nil {
		return model.Proof{}, err
	}
	p.cfg.Metrics.Proof()
	p.log.Debug("proof written", "path", out, "file", proof.FilePath, "sha256", proof.SHA256)
	return proof, nil
}

// record appends an audit entry and raises an alert. Neither side record
// can fail the flow; failures are logged.
func (p *Pipeline) record(ctx context.Context, traceID, command, resource, result, reason, digest string) {
	ts := time.Now().UTC().Format(audit.TimestampFormat)

	if err := p.cfg.Audit.Record(audit.AuditEntry{
		Timestamp:  ts,
		TraceID:    traceID,
		Action:     audit.AuditAction{Command: command, Resource: resource},
		Result:     result,
		Reason:     reason,
		SHA256:     digest,
		ConfigHash: p.cfg.ConfigHash,
	}); err != nil {
		p.log.Error("audit write failed", "trace_id", traceID, "error", err)
	}

	// A cancelled flow still reports how it ended.
	if err := p.cfg.Alerts.Dispatch(context.WithoutCancel(ctx), alert.AlertEvent{
		Timestamp:  ts,
		TraceID:    traceID,
		Command:    command,
		Resource:   resource,
		Result:     result,
		Reason:     reason,
		SHA256:     digest,
		ConfigHash: p.cfg.ConfigHash,
	}); err != nil {
		p.log.Warn("alert delivery failed", "trace_id", traceID, "error", err)
	}
}

// readInput loads the input as UTF-8 text.
func readInput(path string) (string, error) {
	if err := requireRegular(path, "input"); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read input %s: %w", path, ErrInvalidUTF8)
	}
	return string(data), nil
}

// ErrInvalidUTF8 is wrapped when an input file is not UTF-8 text.
var ErrInvalidUTF8 = errors.New("not valid UTF-8")

func requireRegular(path, kind string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &integrity.NotFoundError{Kind: kind, Path: path}
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return &integrity.NotFoundError{Kind: kind, Path: path}
	}
	return nil
}

func digestOf(p *model.Proof) string {
	if p == nil {
		return ""
	}
	return p.SHA256
}
