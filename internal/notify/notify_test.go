package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagesight/pagesight/internal/config"
)

func TestWebhook_PostsEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer hook-token" {
			t.Errorf("authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "hook-token", nil)
	ev := Event{
		OwnerID:        "u1",
		CollectionName: "papers",
		DocumentName:   "attention.pdf",
		DocumentID:     42,
		Metadata:       map[string]any{"lang": "en"},
		Status:         StatusSuccess,
		FinishedAt:     time.Now(),
	}
	if err := w.Notify(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DocumentName != "attention.pdf" || got.Status != StatusSuccess {
		t.Fatalf("delivered event = %+v", got)
	}
	if got.DocumentID != 42 || got.Metadata["lang"] != "en" {
		t.Fatalf("delivered event missing document fields: %+v", got)
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "", nil)
	if err := w.Notify(context.Background(), Event{Status: StatusFailure}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestEmail_BuildsMessage(t *testing.T) {
	e := NewEmail("smtp.local:25", "noreply@pagesight.io", "admin@pagesight.io", nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e.send = func(addr, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	ev := Event{
		OwnerID:        "u1",
		CollectionName: "papers",
		DocumentName:   "attention.pdf",
		Status:         StatusFailure,
		Error:          "embedding service status 500",
		FinishedAt:     time.Now(),
	}
	if err := e.Notify(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.local:25" || gotFrom != "noreply@pagesight.io" {
		t.Fatalf("addr/from = %q/%q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "admin@pagesight.io" {
		t.Fatalf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Document ingestion failure: papers/attention.pdf") {
		t.Fatalf("missing subject in message:\n%s", msg)
	}
	if !strings.Contains(msg, "embedding service status 500") {
		t.Fatalf("missing error detail in message:\n%s", msg)
	}
}

func TestNew_SelectsByMode(t *testing.T) {
	n, err := New(config.NotifyConfig{Mode: "none"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(Noop); !ok {
		t.Fatalf("notifier = %T, want Noop", n)
	}

	n, err = New(config.NotifyConfig{Mode: "webhook", WebhookURL: "http://x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(*Webhook); !ok {
		t.Fatalf("notifier = %T, want *Webhook", n)
	}

	n, err = New(config.NotifyConfig{Mode: "email", SMTPAddr: "smtp:25", SMTPFrom: "a@b", AdminEmail: "c@d"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(*Email); !ok {
		t.Fatalf("notifier = %T, want *Email", n)
	}

	if _, err := New(config.NotifyConfig{Mode: "carrier-pigeon"}, nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
