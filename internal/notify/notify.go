// Package notify delivers the terminal outcome of asynchronous ingestions.
// Delivery is best-effort: a failed notification is logged, never retried,
// and never affects the ingestion result itself.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/config"
)

// Event describes one finished async ingestion. ID is unique per queued
// task so receivers can deduplicate redeliveries.
type Event struct {
	ID             string         `json:"event_id"`
	OwnerID        string         `json:"owner_id"`
	CollectionName string         `json:"collection_name"`
	DocumentName   string         `json:"document_name"`
	DocumentID     int64          `json:"document_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Status         string         `json:"status"`
	Error          string         `json:"error,omitempty"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// Event statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// New builds the notifier selected by the configuration mode.
func New(cfg config.NotifyConfig, log *zap.Logger) (Notifier, error) {
	switch cfg.Mode {
	case "webhook":
		return NewWebhook(cfg.WebhookURL, cfg.WebhookToken, log), nil
	case "email":
		return NewEmail(cfg.SMTPAddr, cfg.SMTPFrom, cfg.AdminEmail, log), nil
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown notify mode %q", cfg.Mode)
	}
}

// Noop swallows events. Used when notifications are disabled.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(context.Context, Event) error { return nil }
