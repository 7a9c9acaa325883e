package alerts

import (
	"fmt"
	"log/slog"
)

// deliver sends webhook notifications for a to every target in webhooks.
// Errors are logged but do not affect the caller.
func (n *Notifier) deliver(webhooks []Webhook, a *Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.post(url, map[string]string{
				"text": fmt.Sprintf("*%s* %s", severityLabel(a.Severity), a.Message),
			})
		case "teams":
			err = n.post(url, map[string]interface{}{
				"@type":      "MessageCard",
				"@context":   "http://schema.org/extensions",
				"themeColor": severityColor(a.Severity),
				"summary":    a.RuleName,
				"title":      fmt.Sprintf("AEGIS Alert: %s", a.RuleName),
				"text":       a.Message,
			})
		case "http":
			err = n.post(url, map[string]interface{}{"alert": a})
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"rule", a.RuleName,
				"state", a.State,
			)
		}
	}
}

func (n *Notifier) post(url string, body interface{}) error {
	resp, err := n.client.R().SetBody(body).Post(url)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode())
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
