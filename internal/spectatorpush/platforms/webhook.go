package platforms

import (
	"context"
	"strings"
)

// WebhookAdapter posts the message as plain JSON for self-hosted receivers.
type WebhookAdapter struct {
	client *HTTPClient
}

func NewWebhookAdapter(client *HTTPClient) *WebhookAdapter {
	return &WebhookAdapter{client: client}
}

func (a *WebhookAdapter) Name() string {
	return "webhook"
}

func (a *WebhookAdapter) Send(ctx context.Context, endpoint, secret string, msg Message) error {
	fields := make(map[string]string, len(msg.Fields))
	for _, f := range msg.Fields {
		fields[strings.ToLower(f.Name)] = f.Value
	}
	headers := map[string]string{}
	if s := strings.TrimSpace(secret); s != "" {
		headers["Authorization"] = "Bearer " + s
	}
	if msg.Key != "" {
		headers["Idempotency-Key"] = msg.Key
	}
	return a.client.PostJSON(ctx, endpoint, headers, map[string]any{
		"key":       msg.Key,
		"title":     msg.Title,
		"summary":   msg.Summary(),
		"timestamp": msg.Timestamp,
		"fields":    fields,
	})
}
