package wise

import (
	"context"
	"fmt"

	"github.com/ppiankov/wise/internal/alert"
	"github.com/ppiankov/wise/internal/audit"
	"github.com/ppiankov/wise/internal/config"
	"github.com/ppiankov/wise/internal/logging"
	"github.com/ppiankov/wise/internal/metrics"
	"github.com/ppiankov/wise/internal/pipeline"
)

// Client runs gate and proof flows in process. Safe for concurrent use.
type Client struct {
	cfg     clientConfig
	pipe    *pipeline.Pipeline
	audit   *audit.Log
	metrics *metrics.Recorder
}

// New creates a Client with the given options. Without options nothing
// is recorded anywhere.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{source: "sdk"}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.logger = logging.OrNop(cfg.logger)

	fileCfg := config.Default()
	cfgHash := ""
	if cfg.configPath != "" {
		var err error
		fileCfg, cfgHash, err = config.LoadWithHash(cfg.configPath)
		if err != nil {
			return nil, fmt.Errorf("wise: %w", err)
		}
	}
	if cfg.auditLogPath != "" {
		fileCfg.AuditLog = cfg.auditLogPath
	}
	if cfg.metricsTextfile != "" {
		fileCfg.MetricsTextfile = cfg.metricsTextfile
	}

	auditLog, err := audit.OpenOptional(fileCfg.AuditLog)
	if err != nil {
		return nil, fmt.Errorf("wise: %w", err)
	}
	rec := metrics.New(fileCfg.MetricsTextfile)
	if err := rec.Load(); err != nil {
		cfg.logger.Warn("metrics textfile not loaded, counting from zero", "error", err)
	}

	return &Client{
		cfg:     cfg,
		audit:   auditLog,
		metrics: rec,
		pipe: pipeline.New(pipeline.Config{
			Logger:     cfg.logger,
			Audit:      auditLog,
			Alerts:     alert.NewDispatcher(fileCfg.Alerts),
			Metrics:    rec,
			ConfigHash: cfgHash,
		}),
	}, nil
}

// Evaluate gates text and returns the decision. It never blocks anything
// itself; see Wrap.
func (c *Client) Evaluate(ctx context.Context, text string) Decision {
	return toDecision(c.pipe.EvaluateText(ctx, c.cfg.source, text))
}

// Seal writes a proof document for path to proofOut.
func (c *Client) Seal(ctx context.Context, path, proofOut string) (Proof, error) {
	p, err := c.pipe.Seal(ctx, pipeline.SealRequest{FilePath: path, ProofOut: proofOut})
	if err != nil {
		return Proof{}, err
	}
	return toProof(p), nil
}

// Verify compares path with the proof at proofPath. A mismatch is
// reported in the result, not as an error.
func (c *Client) Verify(ctx context.Context, path, proofPath string) (VerifyResult, error) {
	res, err := c.pipe.Verify(ctx, pipeline.VerifyRequest{FilePath: path, ProofPath: proofPath})
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Verified: res.OK, Expected: res.Expected, Observed: res.Observed}, nil
}

// Close flushes metrics and closes the audit log.
func (c *Client) Close() error {
	flushErr := c.metrics.Flush()
	if err := c.audit.Close(); err != nil {
		return err
	}
	return flushErr
}
