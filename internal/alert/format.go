package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event AlertEvent) ([]byte, error) {
	fields := []any{
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Command:* %s", event.Command)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Resource:* %s", event.Resource)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Severity:* %s", severityFor(event.Result))},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
	}
	if event.SHA256 != "" {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*SHA-256:* `%s`", event.SHA256)})
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("wise: %s", event.Result),
				},
			},
			map[string]any{
				"type":   "section",
				"fields": fields,
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("wise %s: %s", event.Result, event.Resource),
			"severity": severityFor(event.Result),
			"source":   "wise",
			"custom_details": map[string]any{
				"command":  event.Command,
				"resource": event.Resource,
				"reason":   event.Reason,
				"sha256":   event.SHA256,
				"trace_id": event.TraceID,
			},
		},
	}
	return json.Marshal(payload)
}

// severityFor maps a result to a PagerDuty severity.
func severityFor(result string) string {
	switch result {
	case ResultHalt, ResultTampered:
		return "critical"
	case ResultFailed:
		return "error"
	case ResultFlag:
		return "warning"
	default:
		return "info"
	}
}
