package config

import (
	"strings"
	"testing"
)

func baseConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{DSN: "postgres://localhost:5432/pagesight"},
		Embedding: EmbeddingConfig{URL: "http://embeddings:8000/embed"},
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := baseConfig()
	cfg.ApplyDefaults()

	if cfg.Embedding.BatchSize != 3 {
		t.Errorf("embedding.batch_size default = %d, want 3", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.MaxAttempts != 3 {
		t.Errorf("embedding.max_attempts default = %d, want 3", cfg.Embedding.MaxAttempts)
	}
	if cfg.Ingest.MaxDocumentBytes != 50*1024*1024 {
		t.Errorf("ingest.max_document_bytes default = %d, want 50MiB", cfg.Ingest.MaxDocumentBytes)
	}
	if cfg.Ingest.MaxAsyncTasks != 8 {
		t.Errorf("ingest.max_async_tasks default = %d, want 8", cfg.Ingest.MaxAsyncTasks)
	}
	if cfg.Notify.Mode != "none" {
		t.Errorf("notify.mode default = %q, want none", cfg.Notify.Mode)
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := baseConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.DSN = ""
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing dsn passed validation")
	}
}

func TestValidate_MissingEmbeddingURL(t *testing.T) {
	cfg := baseConfig()
	cfg.Embedding.URL = ""
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing embedding url passed validation")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := baseConfig()
	cfg.HTTP.Port = 70000
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad port passed validation")
	}
}

func TestValidate_NotifyModes(t *testing.T) {
	cfg := baseConfig()
	cfg.Notify.Mode = "webhook"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("webhook mode without url passed validation")
	}

	cfg.Notify.WebhookURL = "http://hooks.local/ingest"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Notify.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown notify mode passed validation")
	}
}

func TestValidate_APIKeyShape(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.APIKeys = []APIKey{{Key: "secret", Owner: ""}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("api key without owner passed validation")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PS_TEST_TOKEN", "tok-123")

	out := string(expandEnvVars([]byte("token: ${PS_TEST_TOKEN}\nurl: ${PS_TEST_MISSING:-http://fallback}")))
	if !strings.Contains(out, "tok-123") {
		t.Errorf("env var not expanded: %s", out)
	}
	if !strings.Contains(out, "http://fallback") {
		t.Errorf("default not applied: %s", out)
	}
}
