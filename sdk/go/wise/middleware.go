package wise

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxBodyBytes caps how much of a request body the middleware reads.
const maxBodyBytes = 1 << 20

// DecisionHeader carries the gate outcome to the next handler and the client.
const DecisionHeader = "X-Wise-Decision"

// Middleware returns an http.Handler that gates each request body before
// passing it on. HALT receives a 403 with a JSON body; other outcomes are
// forwarded with the decision in the X-Wise-Decision header.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		if len(body) > maxBodyBytes {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		d := c.Evaluate(r.Context(), string(body))
		w.Header().Set(DecisionHeader, string(d.Outcome))
		r.Header.Set(DecisionHeader, string(d.Outcome))

		if d.Outcome == Halt {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":  true,
				"decision": string(d.Outcome),
				"reason":   d.Reason,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
