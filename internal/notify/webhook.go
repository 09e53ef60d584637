// Package notify posts owner notifications to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Webhook posts messages to a Discord-compatible webhook URL. An empty URL
// makes Post a no-op.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, http: &http.Client{}}
}

func (w *Webhook) Enabled() bool { return w != nil && w.url != "" }

func (w *Webhook) Post(ctx context.Context, content string) error {
	if !w.Enabled() {
		return nil
	}
	payload := map[string]string{"content": content}
	body, _ := json.Marshal(payload) // map[string]string marshal cannot fail
	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
