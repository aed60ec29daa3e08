package alert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry(t *testing.T) {
	t.Helper()
	old := retryBackoff
	retryBackoff = time.Millisecond
	t.Cleanup(func() { retryBackoff = old })
}

func TestDispatchMatchesEvents(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{ResultHalt}},
	})

	if err := d.Dispatch(context.Background(), AlertEvent{Result: ResultHalt, Command: "gate", Resource: "/tmp/in.txt"}); err != nil {
		t.Fatal(err)
	}
	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{ResultHalt}},
	})

	d.Dispatch(context.Background(), AlertEvent{Result: ResultFlag, Command: "gate", Resource: "/tmp/in.txt"})

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	srv1 := httptest.NewServer(handler)
	defer srv1.Close()
	srv2 := httptest.NewServer(handler)
	defer srv2.Close()

	d := NewDispatcher([]AlertConfig{
		{URL: srv1.URL, Format: "generic", Events: []string{ResultTampered}},
		{URL: srv2.URL, Format: "slack", Events: []string{ResultHalt, ResultTampered}},
	})

	if err := d.Dispatch(context.Background(), AlertEvent{Result: ResultTampered, Command: "verify", Resource: "/srv/a.bin"}); err != nil {
		t.Fatal(err)
	}
	if called.Load() != 2 {
		t.Errorf("expected 2 calls (both webhooks match), got %d", called.Load())
	}
}

func TestDispatchReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDispatcher([]AlertConfig{{URL: srv.URL, Events: []string{ResultFailed}}})
	if err := d.Dispatch(context.Background(), AlertEvent{Result: ResultFailed}); err == nil {
		t.Fatal("expected delivery error")
	}
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	if err := d.Dispatch(context.Background(), AlertEvent{Result: ResultHalt}); err != nil {
		t.Fatalf("nil dispatcher should be a no-op, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	fastRetry(t)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Result: ResultHalt})
	if err != nil {
		t.Errorf("expected success after retries, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Result: ResultHalt})
	if err == nil {
		t.Error("expected error on 400, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry on 4xx), got %d", attempts.Load())
	}
}

func TestHeadersForwarded(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := AlertConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer abc"}}
	if err := Send(context.Background(), cfg, AlertEvent{Result: ResultHalt}); err != nil {
		t.Fatal(err)
	}
	if got.Load() != "Bearer abc" {
		t.Errorf("expected header forwarded, got %v", got.Load())
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	fastRetry(t)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Result: ResultHalt}); err != nil {
		t.Fatalf("expected success after 429, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestTraceIDHeaderOnEveryAttempt(t *testing.T) {
	fastRetry(t)
	var seen []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(TraceHeader))
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Result: ResultTampered, TraceID: "trace-7"})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "trace-7" || seen[1] != "trace-7" {
		t.Errorf("trace header per attempt = %v", seen)
	}
}

func TestCancelledContextStopsRetries(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Hour
	t.Cleanup(func() { retryBackoff = old })

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Send(ctx, AlertConfig{URL: srv.URL}, AlertEvent{Result: ResultFailed})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff ignored the context")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts.Load())
	}
}

func TestFormatGenericJSON(t *testing.T) {
	event := AlertEvent{
		Timestamp: "2026-01-15T14:00:00.000Z",
		TraceID:   "3f1c0b7e-0000-4000-8000-000000000000",
		Command:   "run",
		Resource:  "/work/input.txt",
		Result:    ResultHalt,
		Reason:    "Fabrication pressure detected.",
	}

	data, err := FormatPayload("generic", event)
	if err != nil {
		t.Fatal(err)
	}

	var parsed AlertEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generic format is not valid JSON: %v", err)
	}
	if parsed != event {
		t.Errorf("expected %+v, got %+v", event, parsed)
	}
}

func TestFormatSlackBlockKit(t *testing.T) {
	event := AlertEvent{
		Command:  "verify",
		Resource: "/srv/release.tar",
		Result:   ResultTampered,
		Reason:   "content hash mismatch",
		SHA256:   "abc",
	}

	data, err := FormatPayload("slack", event)
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("slack format is not valid JSON: %v", err)
	}

	blocks, ok := parsed["blocks"].([]any)
	if !ok || len(blocks) < 2 {
		t.Fatalf("expected at least 2 blocks, got %v", parsed["blocks"])
	}

	header, _ := blocks[0].(map[string]any)
	if header["type"] != "header" {
		t.Errorf("expected header block, got %s", header["type"])
	}

	section, _ := blocks[1].(map[string]any)
	fields, ok := section["fields"].([]any)
	if !ok || len(fields) != 5 {
		t.Errorf("expected 5 fields including digest, got %v", fields)
	}
}

func TestFormatPagerDutySeverity(t *testing.T) {
	tests := []struct {
		result string
		want   string
	}{
		{ResultHalt, "critical"},
		{ResultTampered, "critical"},
		{ResultFailed, "error"},
		{ResultFlag, "warning"},
		{"OTHER", "info"},
	}

	for _, tt := range tests {
		data, err := FormatPayload("pagerduty", AlertEvent{Result: tt.result, Resource: "/x"})
		if err != nil {
			t.Fatal(err)
		}
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("pagerduty format is not valid JSON: %v", err)
		}
		if parsed["event_action"] != "trigger" {
			t.Errorf("expected event_action trigger, got %v", parsed["event_action"])
		}
		payload, _ := parsed["payload"].(map[string]any)
		if payload["severity"] != tt.want {
			t.Errorf("%s: expected severity %s, got %v", tt.result, tt.want, payload["severity"])
		}
		if payload["source"] != "wise" {
			t.Errorf("expected source wise, got %v", payload["source"])
		}
	}
}

func TestNewDispatcherNilOnEmpty(t *testing.T) {
	if d := NewDispatcher(nil); d != nil {
		t.Error("expected nil dispatcher for empty configs")
	}
	if d := NewDispatcher([]AlertConfig{}); d != nil {
		t.Error("expected nil dispatcher for zero-length configs")
	}
}
