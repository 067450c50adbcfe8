// Package gotenberg is the HTTP client for the document conversion service:
// office formats go through the LibreOffice route, webpages through the
// Chromium route. Both return raw PDF bytes.
package gotenberg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/metrics"
	"github.com/pagesight/pagesight/internal/retry"
)

const (
	fileRoute = "/forms/libreoffice/convert"
	urlRoute  = "/forms/chromium/convert/url"
)

// Config holds the conversion client settings.
type Config struct {
	URL          string
	MaxAttempts  int
	RetryBackoff time.Duration
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client converts documents and webpages to PDF with bounded retries for
// transport failures.
type Client struct {
	baseURL    string
	policy     retry.Policy
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a conversion client.
func New(cfg Config) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		policy: retry.Policy{
			MaxAttempts: uint64(cfg.MaxAttempts),
			Delay:       cfg.RetryBackoff,
			Retryable:   retry.IsTransport,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

// ConvertFile converts a document to PDF. The filename carries the original
// extension so the converter selects the right engine.
func (c *Client) ConvertFile(ctx context.Context, filename string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("build conversion form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build conversion form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build conversion form: %w", err)
	}

	c.logger.Info("converting file to pdf", zap.String("filename", filename), zap.Int("bytes", len(data)))
	return c.post(ctx, "file", fileRoute, body.Bytes(), mw.FormDataContentType())
}

// ConvertURL renders a webpage to PDF.
func (c *Client) ConvertURL(ctx context.Context, pageURL string) ([]byte, error) {
	form := url.Values{"url": {pageURL}}

	c.logger.Info("converting url to pdf", zap.String("url", pageURL))
	return c.post(ctx, "url", urlRoute, []byte(form.Encode()), "application/x-www-form-urlencoded")
}

// Health probes the conversion service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("conversion health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("conversion service status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, route, path string, body []byte, contentType string) ([]byte, error) {
	var pdf []byte

	err := c.policy.Do(ctx, func() error {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if rerr != nil {
			return fmt.Errorf("build conversion request: %w", rerr)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/pdf")

		resp, derr := c.httpClient.Do(req)
		if derr != nil {
			return fmt.Errorf("conversion request: %w", derr)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("conversion service status %d: %s: %w",
				resp.StatusCode, bytes.TrimSpace(detail), domain.ErrConversionFailed)
		}

		data, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return fmt.Errorf("read converted pdf: %w: %w", domain.ErrConversionFailed, rerr)
		}
		pdf = data
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ConversionRequestsTotal.WithLabelValues(route, status).Inc()

	if err != nil {
		return nil, err
	}
	return pdf, nil
}
