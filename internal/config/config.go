package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pagesight API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Conversion ConversionConfig `yaml:"conversion"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Blob       BlobConfig       `yaml:"blob"`
	Notify     NotifyConfig     `yaml:"notify"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIKey maps one bearer token to its owner.
type APIKey struct {
	Key   string `yaml:"key"`
	Owner string `yaml:"owner"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []APIKey `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	Debug            bool   `yaml:"debug"` // log queries via bundebug
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	URL             string `yaml:"url"`
	Token           string `yaml:"token"`
	BatchSize       int    `yaml:"batch_size"`
	BatchDelayMS    int    `yaml:"batch_delay_ms"`
	MaxAttempts     int    `yaml:"max_attempts"`
	RetryBackoffSec int    `yaml:"retry_backoff_sec"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// ConversionConfig holds gotenberg conversion service settings.
type ConversionConfig struct {
	URL             string `yaml:"url"`
	MaxAttempts     int    `yaml:"max_attempts"`
	RetryBackoffSec int    `yaml:"retry_backoff_sec"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	MaxDocumentBytes int64  `yaml:"max_document_bytes"`
	MaxAsyncTasks    int64  `yaml:"max_async_tasks"`
	ProxyURL         string `yaml:"proxy_url"`
}

// BlobConfig holds blob storage settings.
type BlobConfig struct {
	Root string `yaml:"root"`
}

// NotifyConfig holds async-ingestion notification settings.
type NotifyConfig struct {
	Mode         string `yaml:"mode"` // webhook, email, none (default: none)
	WebhookURL   string `yaml:"webhook_url"`
	WebhookToken string `yaml:"webhook_token"`
	SMTPAddr     string `yaml:"smtp_addr"`
	SMTPFrom     string `yaml:"smtp_from"`
	AdminEmail   string `yaml:"admin_email"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Synchronous upserts block for the full pipeline; keep this generous.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 3
	}
	if c.Embedding.BatchDelayMS <= 0 {
		c.Embedding.BatchDelayMS = 1000
	}
	if c.Embedding.MaxAttempts <= 0 {
		c.Embedding.MaxAttempts = 3
	}
	if c.Embedding.RetryBackoffSec <= 0 {
		c.Embedding.RetryBackoffSec = 5
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 120
	}
	if c.Conversion.MaxAttempts <= 0 {
		c.Conversion.MaxAttempts = 3
	}
	if c.Conversion.RetryBackoffSec <= 0 {
		c.Conversion.RetryBackoffSec = 2
	}
	if c.Conversion.TimeoutSec <= 0 {
		c.Conversion.TimeoutSec = 60
	}
	if c.Ingest.MaxDocumentBytes <= 0 {
		c.Ingest.MaxDocumentBytes = 50 * 1024 * 1024
	}
	if c.Ingest.MaxAsyncTasks <= 0 {
		c.Ingest.MaxAsyncTasks = 8
	}
	if c.Blob.Root == "" {
		c.Blob.Root = "data/blobs"
	}
	if c.Notify.Mode == "" {
		c.Notify.Mode = "none"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Embedding.URL == "" {
		return fmt.Errorf("embedding.url is required")
	}
	switch c.Notify.Mode {
	case "none", "webhook", "email":
	default:
		return fmt.Errorf("notify.mode must be \"webhook\", \"email\" or \"none\", got %q", c.Notify.Mode)
	}
	if c.Notify.Mode == "webhook" && c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required in webhook mode")
	}
	if c.Notify.Mode == "email" && (c.Notify.SMTPAddr == "" || c.Notify.SMTPFrom == "") {
		return fmt.Errorf("notify.smtp_addr and notify.smtp_from are required in email mode")
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" || k.Owner == "" {
			return fmt.Errorf("auth.api_keys[%d] must set both key and owner", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
