package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/truthlock"
)

// State is a step of the run state machine.
type State string

const (
	StateStart     State = "START"
	StateExecuting State = "EXECUTING"
	StateHalted    State = "HALTED"
	StateFailed    State = "FAILED"
	StateComplete  State = "COMPLETE"
)

// Artifact file names inside the artifacts directory.
const (
	DecisionFile    = "decision.json"
	InputProofFile  = "input.proof.json"
	OutputProofFile = "output.proof.json"
)

// RunRequest describes one governed run. Without a Command the input is
// copied to OutputPath unchanged.
type RunRequest struct {
	InputPath    string
	OutputPath   string
	ArtifactsDir string
	Command      []string
}

// RunResult is the terminal state of a run. OutputProof is nil unless the
// run completed.
type RunResult struct {
	Decision    model.Decision
	State       State
	InputProof  model.Proof
	OutputProof *model.Proof
}

// Run gates the input, executes the transform and seals the output:
//
//	START -> HALTED
//	START -> EXECUTING -> FAILED
//	START -> EXECUTING -> COMPLETE
//
// decision.json and input.proof.json are written before any execution and
// stay in place whatever happens next. A non-zero exit of the command
// returns the FAILED result together with an *ExternalCommandError.
// Concurrent runs sharing an artifacts directory are not coordinated.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	traceID := uuid.NewString()
	log := p.log.With("trace_id", traceID)

	text, err := readInput(req.InputPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.ArtifactsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	decisionPath := filepath.Join(req.ArtifactsDir, DecisionFile)
	inProofPath := filepath.Join(req.ArtifactsDir, InputProofFile)
	outProofPath := filepath.Join(req.ArtifactsDir, OutputProofFile)

	decision := truthlock.Evaluate(text, model.TruthlockTool, model.TruthlockVersion)
	if err := model.WriteDocument(decisionPath, decision); err != nil {
		return nil, err
	}
	p.cfg.Metrics.Decision(decision)

	inProof, err := p.writeProof(req.InputPath, inProofPath)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Decision: decision, State: StateStart, InputProof: inProof}

	if decision.Outcome == model.Halt {
		result.State = StateHalted
		log.Info("run halted", "input", req.InputPath, "reason", decision.Reason)
		p.finishRun(ctx, traceID, req, result, decision.Reason, inProof.SHA256)
		return result, nil
	}

	result.State = StateExecuting
	log.Debug("executing", "command", req.Command, "output", req.OutputPath)

	if err := execute(ctx, req); err != nil {
		result.State = StateFailed
		log.Warn("run failed", "error", err)
		p.finishRun(ctx, traceID, req, result, err.Error(), inProof.SHA256)
		return result, err
	}

	outProof, err := p.writeProof(req.OutputPath, outProofPath)
	if err != nil {
		result.State = StateFailed
		p.finishRun(ctx, traceID, req, result, err.Error(), inProof.SHA256)
		return result, err
	}

	result.State = StateComplete
	result.OutputProof = &outProof
	p.finishRun(ctx, traceID, req, result, decision.Reason, outProof.SHA256)
	return result, nil
}

// finishRun records the terminal state. The audit result is the outcome
// for HALTED and COMPLETE runs and FAILED otherwise.
func (p *Pipeline) finishRun(ctx context.Context, traceID string, req RunRequest, r *RunResult, reason, digest string) {
	p.cfg.Metrics.Run(string(r.State))

	result := string(r.Decision.Outcome)
	if r.State == StateFailed {
		result = string(StateFailed)
	}
	p.record(ctx, traceID, "run", req.InputPath, result, reason, digest)
}

// execute feeds the input to the command's stdin and captures its stdout
// into the output file, or copies the input when there is no command.
// The output file is created (or truncated) before the command starts.
func execute(ctx context.Context, req RunRequest) error {
	in, err := os.Open(req.InputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if len(req.Command) == 0 {
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return fmt.Errorf("copy input to output: %w", err)
		}
		return closeOutput(out)
	}

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...)
	var stderr bytes.Buffer
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	closeErr := closeOutput(out)

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &ExternalCommandError{
				Command:  req.Command,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return fmt.Errorf("start external command: %w", runErr)
	}
	return closeErr
}

func closeOutput(f *os.File) error {
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
