package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxAttempts    = 3

	// TraceHeader carries the flow's trace id on every attempt.
	TraceHeader = "X-Wise-Trace-Id"
)

var (
	httpClient   = &http.Client{Timeout: requestTimeout}
	retryBackoff = time.Second
)

// Send posts event to the webhook in cfg. Server errors and 429 are retried
// with linear backoff; other 4xx responses fail at once. ctx bounds the
// whole delivery, backoff included.
func Send(ctx context.Context, cfg AlertConfig, event AlertEvent) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook %s: %w (last error: %v)", cfg.URL, ctx.Err(), lastErr)
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		status, err := post(ctx, cfg, event.TraceID, body)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return nil
		case status == http.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("HTTP %d", status)
		default:
			return fmt.Errorf("webhook %s rejected %s alert: HTTP %d", cfg.URL, event.Result, status)
		}
	}

	return fmt.Errorf("webhook %s failed after %d attempts: %w", cfg.URL, maxAttempts, lastErr)
}

func post(ctx context.Context, cfg AlertConfig, traceID string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID != "" {
		req.Header.Set(TraceHeader, traceID)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
