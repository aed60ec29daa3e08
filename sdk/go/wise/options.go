package wise

import "log/slog"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	configPath      string
	auditLogPath    string
	metricsTextfile string
	source          string
	logger          *slog.Logger
}

// WithConfig loads a wise config YAML (audit log, alerts, metrics).
func WithConfig(path string) Option {
	return func(c *clientConfig) { c.configPath = path }
}

// WithAuditLog appends every decision and proof to a hash-chained log,
// overriding the config file.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditLogPath = path }
}

// WithMetricsTextfile writes Prometheus metrics to path on Close,
// overriding the config file.
func WithMetricsTextfile(path string) Option {
	return func(c *clientConfig) { c.metricsTextfile = path }
}

// WithSource names the caller in audit entries (default "sdk").
func WithSource(name string) Option {
	return func(c *clientConfig) { c.source = name }
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WrapOption configures a single Wrap call.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	source      string
	checkOutput bool
}

// WrapWithSource overrides the client-level source for this wrap.
func WrapWithSource(name string) WrapOption {
	return func(w *wrapConfig) { w.source = name }
}

// WrapCheckOutput also gates the wrapped function's output. A HALT on
// the output discards it and returns *HaltedError.
func WrapCheckOutput() WrapOption {
	return func(w *wrapConfig) { w.checkOutput = true }
}
