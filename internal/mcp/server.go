// Package mcp exposes the gate and proof flows as MCP tools over stdio,
// so agents can gate their own prompts and seal what they produce.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/wise/internal/metrics"
	"github.com/ppiankov/wise/internal/pipeline"
)

// Config holds MCP server configuration.
type Config struct {
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Recorder
	Version  string
}

// Server wraps the MCP SDK server around a pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	pipe      *pipeline.Pipeline
	metrics   *metrics.Recorder
}

// New creates an MCP server with all wise tools registered.
func New(cfg Config) *Server {
	pipe := cfg.Pipeline
	if pipe == nil {
		pipe = pipeline.New(pipeline.Config{})
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{pipe: pipe, metrics: cfg.Metrics}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "wise",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all wise tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wise_gate",
		Description: "Evaluate text (or a text file) for fabrication pressure, risk domains and unsourced FACT lines. Returns ALLOW, FLAG or HALT. HALT results are marked as errors.",
	}, s.handleGate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wise_prove",
		Description: "Write a SHA-256 proof document for a file so later changes can be detected.",
	}, s.handleProve)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wise_verify",
		Description: "Re-hash a file and compare it with a proof document. Returns VERIFIED or TAMPERED with both digests.",
	}, s.handleVerify)
}

// flush writes the metrics textfile after each call; the server is long
// lived, so waiting for exit would leave the file stale.
func (s *Server) flush() {
	_ = s.metrics.Flush()
}
