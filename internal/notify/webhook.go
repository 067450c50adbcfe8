package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Webhook posts events as JSON to a configured endpoint.
type Webhook struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhook creates a webhook notifier. token, if non-empty, is sent as a
// bearer token.
func NewWebhook(url, token string, log *zap.Logger) *Webhook {
	if log == nil {
		log = zap.NewNop()
	}
	return &Webhook{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log,
	}
}

// Notify posts the event. A non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification endpoint status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	w.logger.Info("notification delivered",
		zap.String("document", ev.DocumentName), zap.String("status", ev.Status))
	return nil
}
