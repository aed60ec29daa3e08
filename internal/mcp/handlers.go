package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/pipeline"
)

// --- Input/Output types ---

// GateInput defines parameters for the wise_gate tool. Exactly one of
// Text or InputPath is required; DecisionOut is required with InputPath.
type GateInput struct {
	Text        string `json:"text,omitempty" jsonschema:"text to evaluate in memory"`
	InputPath   string `json:"input_path,omitempty" jsonschema:"path of a UTF-8 text file to evaluate"`
	DecisionOut string `json:"decision_out,omitempty" jsonschema:"where to write the decision document (with input_path)"`
	ProofOut    string `json:"proof_out,omitempty" jsonschema:"optional path for a proof of the input file"`
}

// GateOutput contains the decision.
type GateOutput struct {
	Decision string         `json:"decision"`
	Reason   string         `json:"reason"`
	ExitCode int            `json:"exit_code"`
	Signals  []model.Signal `json:"signals"`
	SHA256   string         `json:"sha256,omitempty"`
}

// ProveInput defines parameters for the wise_prove tool.
type ProveInput struct {
	File string `json:"file" jsonschema:"file to prove"`
	Out  string `json:"out" jsonschema:"where to write the proof document"`
}

// ProveOutput summarizes the written proof.
type ProveOutput struct {
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	SHA256   string `json:"sha256"`
}

// VerifyInput defines parameters for the wise_verify tool.
type VerifyInput struct {
	File  string `json:"file" jsonschema:"file to check"`
	Proof string `json:"proof" jsonschema:"proof document to check against"`
}

// VerifyOutput reports the comparison.
type VerifyOutput struct {
	Result   string `json:"result"`
	Expected string `json:"expected"`
	Observed string `json:"observed"`
}

// --- Handlers ---

func (s *Server) handleGate(ctx context.Context, req *mcpsdk.CallToolRequest, input GateInput) (*mcpsdk.CallToolResult, GateOutput, error) {
	defer s.flush()

	var (
		decision model.Decision
		digest   string
	)
	switch {
	case input.Text != "" && input.InputPath != "":
		return nil, GateOutput{}, fmt.Errorf("give either text or input_path, not both")
	case input.InputPath != "":
		if input.DecisionOut == "" {
			return nil, GateOutput{}, fmt.Errorf("decision_out is required with input_path")
		}
		res, err := s.pipe.Gate(ctx, pipeline.GateRequest{
			InputPath:   input.InputPath,
			DecisionOut: input.DecisionOut,
			ProofOut:    input.ProofOut,
		})
		if err != nil {
			return nil, GateOutput{}, err
		}
		decision = res.Decision
		if res.InputProof != nil {
			digest = res.InputProof.SHA256
		}
	default:
		decision = s.pipe.EvaluateText(ctx, "mcp:wise_gate", input.Text)
	}

	out := GateOutput{
		Decision: string(decision.Outcome),
		Reason:   decision.Reason,
		ExitCode: model.ExitCode(decision.Outcome),
		Signals:  decision.Signals,
		SHA256:   digest,
	}
	if decision.Outcome == model.Halt {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleProve(ctx context.Context, req *mcpsdk.CallToolRequest, input ProveInput) (*mcpsdk.CallToolResult, ProveOutput, error) {
	defer s.flush()

	if input.File == "" || input.Out == "" {
		return nil, ProveOutput{}, fmt.Errorf("file and out are required")
	}
	proof, err := s.pipe.Prove(ctx, pipeline.SealRequest{FilePath: input.File, ProofOut: input.Out})
	if err != nil {
		return nil, ProveOutput{}, err
	}
	return nil, ProveOutput{
		FilePath: proof.FilePath,
		FileSize: proof.FileSize,
		SHA256:   proof.SHA256,
	}, nil
}

func (s *Server) handleVerify(ctx context.Context, req *mcpsdk.CallToolRequest, input VerifyInput) (*mcpsdk.CallToolResult, VerifyOutput, error) {
	defer s.flush()

	if input.File == "" || input.Proof == "" {
		return nil, VerifyOutput{}, fmt.Errorf("file and proof are required")
	}
	res, err := s.pipe.Verify(ctx, pipeline.VerifyRequest{FilePath: input.File, ProofPath: input.Proof})
	if err != nil {
		return nil, VerifyOutput{}, err
	}

	out := VerifyOutput{Result: res.Result(), Expected: res.Expected, Observed: res.Observed}
	if !res.OK {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}
