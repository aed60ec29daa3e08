package alert

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["HALT", "FLAG", "TAMPERED", "FAILED"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp  string `json:"timestamp"`
	TraceID    string `json:"trace_id"`
	Command    string `json:"command"`
	Resource   string `json:"resource"`
	Result     string `json:"result"`
	Reason     string `json:"reason"`
	SHA256     string `json:"sha256,omitempty"`
	ConfigHash string `json:"config_hash,omitempty"`
}

// Alertable results. ALLOW and VERIFIED never alert.
const (
	ResultHalt     = "HALT"
	ResultFlag     = "FLAG"
	ResultTampered = "TAMPERED"
	ResultFailed   = "FAILED"
)
