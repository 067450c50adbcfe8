package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email sends a plain-text mail per event over SMTP.
type Email struct {
	addr   string
	from   string
	to     string
	logger *zap.Logger
	// send is swapped out in tests.
	send func(addr, from string, to []string, msg []byte) error
}

// NewEmail creates an email notifier. addr is host:port of the SMTP relay.
func NewEmail(addr, from, to string, log *zap.Logger) *Email {
	if log == nil {
		log = zap.NewNop()
	}
	return &Email{
		addr:   addr,
		from:   from,
		to:     to,
		logger: log,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Notify sends the event as a plain-text mail.
func (e *Email) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Document ingestion %s: %s/%s", ev.Status, ev.CollectionName, ev.DocumentName)

	var body strings.Builder
	fmt.Fprintf(&body, "Subject: %s\r\n", subject)
	fmt.Fprintf(&body, "From: %s\r\n", e.from)
	fmt.Fprintf(&body, "To: %s\r\n\r\n", e.to)
	fmt.Fprintf(&body, "Owner:      %s\r\n", ev.OwnerID)
	fmt.Fprintf(&body, "Collection: %s\r\n", ev.CollectionName)
	fmt.Fprintf(&body, "Document:   %s\r\n", ev.DocumentName)
	fmt.Fprintf(&body, "Status:     %s\r\n", ev.Status)
	if ev.Error != "" {
		fmt.Fprintf(&body, "Error:      %s\r\n", ev.Error)
	}
	fmt.Fprintf(&body, "Finished:   %s\r\n", ev.FinishedAt.Format("2006-01-02 15:04:05 MST"))

	if err := e.send(e.addr, e.from, []string{e.to}, []byte(body.String())); err != nil {
		return fmt.Errorf("send notification mail: %w", err)
	}

	e.logger.Info("notification mail sent",
		zap.String("document", ev.DocumentName), zap.String("status", ev.Status))
	return nil
}
