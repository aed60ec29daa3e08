// Package metrics counts decisions, proofs and verifications and writes
// them in the Prometheus text format for node_exporter's textfile collector.
//
// Every wise command is a short process, so totals live in the textfile
// itself: Load seeds the counters from the previous file and Flush writes
// them back. Concurrent processes sharing one textfile can lose increments.
package metrics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	promodel "github.com/prometheus/common/model"

	"github.com/ppiankov/wise/internal/model"
)

const (
	decisionsName     = "wise_decisions_total"
	signalsName       = "wise_signals_total"
	proofsName        = "wise_proofs_total"
	verificationsName = "wise_verifications_total"
	runsName          = "wise_runs_total"
	durationName      = "wise_last_command_duration_seconds"
	lastRunName       = "wise_last_run_timestamp_seconds"
)

// Recorder owns a private registry so repeated construction in tests
// never collides with the default one. A nil *Recorder records nothing.
type Recorder struct {
	path     string
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	signals       *prometheus.CounterVec
	proofs        prometheus.Counter
	verifications *prometheus.CounterVec
	runs          *prometheus.CounterVec
	duration      *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

// New returns a Recorder that flushes to path. Empty path returns nil.
// Counters start at zero until Load is called.
func New(path string) *Recorder {
	if path == "" {
		return nil
	}

	r := &Recorder{
		path:     path,
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: decisionsName,
			Help: "Decisions produced, by outcome.",
		}, []string{"outcome"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: signalsName,
			Help: "Signals raised, by code.",
		}, []string{"code"}),
		proofs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: proofsName,
			Help: "Proof documents written.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: verificationsName,
			Help: "Verifications performed, by result.",
		}, []string{"result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: runsName,
			Help: "Governed runs, by final state.",
		}, []string{"state"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: durationName,
			Help: "Duration of the most recent invocation of each wise command.",
		}, []string{"command"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: lastRunName,
			Help: "Unix time of the last recorded command.",
		}),
	}
	r.registry.MustRegister(r.decisions, r.signals, r.proofs, r.verifications, r.runs, r.duration, r.lastRun)
	return r
}

// Load seeds the recorder with the values in its textfile, so the next
// Flush carries the totals forward. A missing file is not an error. On a
// parse error nothing is seeded.
func (r *Recorder) Load() error {
	if r == nil {
		return nil
	}
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metrics textfile: %w", err)
	}
	defer f.Close()

	parser := expfmt.NewTextParser(promodel.LegacyValidation)
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return fmt.Errorf("parse metrics textfile %s: %w", r.path, err)
	}

	seedCounter(families[decisionsName], "outcome", r.decisions)
	seedCounter(families[signalsName], "code", r.signals)
	seedCounter(families[verificationsName], "result", r.verifications)
	seedCounter(families[runsName], "state", r.runs)
	if mf := families[proofsName]; mf != nil && len(mf.GetMetric()) > 0 {
		if v := mf.GetMetric()[0].GetCounter().GetValue(); v > 0 {
			r.proofs.Add(v)
		}
	}
	if mf := families[durationName]; mf != nil {
		for _, m := range mf.GetMetric() {
			if cmd, ok := labelValue(m, "command"); ok {
				r.duration.WithLabelValues(cmd).Set(m.GetGauge().GetValue())
			}
		}
	}
	if mf := families[lastRunName]; mf != nil && len(mf.GetMetric()) > 0 {
		r.lastRun.Set(mf.GetMetric()[0].GetGauge().GetValue())
	}
	return nil
}

func seedCounter(mf *dto.MetricFamily, label string, vec *prometheus.CounterVec) {
	if mf == nil || mf.GetType() != dto.MetricType_COUNTER {
		return
	}
	for _, m := range mf.GetMetric() {
		v := m.GetCounter().GetValue()
		if lv, ok := labelValue(m, label); ok && v > 0 {
			vec.WithLabelValues(lv).Add(v)
		}
	}
}

func labelValue(m *dto.Metric, name string) (string, bool) {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue(), true
		}
	}
	return "", false
}

// Decision counts one decision and each of its signals.
func (r *Recorder) Decision(d model.Decision) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(string(d.Outcome)).Inc()
	for _, s := range d.Signals {
		r.signals.WithLabelValues(string(s.Code)).Inc()
	}
}

// Proof counts one written proof.
func (r *Recorder) Proof() {
	if r == nil {
		return
	}
	r.proofs.Inc()
}

// Verification counts one verification by result (VERIFIED, TAMPERED, MISSING).
func (r *Recorder) Verification(result string) {
	if r == nil {
		return
	}
	r.verifications.WithLabelValues(result).Inc()
}

// Run counts one governed run by its final state.
func (r *Recorder) Run(state string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(state).Inc()
}

// Observe records how long command took and stamps the last-run gauge.
func (r *Recorder) Observe(command string, started time.Time) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(command).Set(time.Since(started).Seconds())
	r.lastRun.Set(float64(time.Now().Unix()))
}

// Flush writes every metric to the textfile atomically.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
