package alerts

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// deliver sends webhook notifications for a to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var payload any
		switch wh.Type {
		case "slack":
			payload = slackPayload(a)
		case "teams":
			payload = teamsPayload(a)
		case "http":
			payload = map[string]any{"alert": a}
		default:
			log.Warn().Str("type", wh.Type).Msg("alerts: unknown webhook type, skipping")
			continue
		}

		if err := e.post(url, payload); err != nil {
			log.Error().Err(err).Str("type", wh.Type).Str("rule", a.RuleName).Msg("alerts: webhook delivery failed")
			continue
		}
		log.Debug().Str("type", wh.Type).Str("rule", a.RuleName).Str("state", a.State).Msg("alerts: webhook delivered")
	}
}

func slackPayload(a *Alert) map[string]string {
	return map[string]string{
		"text": fmt.Sprintf("*%s* %s", stateLabel(a), a.Message),
	}
}

func teamsPayload(a *Alert) map[string]any {
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("CarePulse Alert: %s (%s)", a.RuleName, a.State),
		"text":       a.Message,
	}
}

func (e *Engine) post(url string, payload any) error {
	resp, err := e.client.R().SetBody(payload).Post(url)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode())
	}
	return nil
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
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
