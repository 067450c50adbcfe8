// Package normalize turns a document source (URL, inline payload, or stored
// blob) into an ordered sequence of base64 PNG page images: fetch, size and
// format validation by content sniffing, PDF conversion for non-raster
// formats, and per-page rasterization.
package normalize

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/blob"
	"github.com/pagesight/pagesight/internal/domain"
)

// Converter is the external PDF conversion contract (gotenberg).
type Converter interface {
	ConvertFile(ctx context.Context, filename string, data []byte) ([]byte, error)
	ConvertURL(ctx context.Context, url string) ([]byte, error)
}

// Config holds normalizer settings.
type Config struct {
	MaxDocumentBytes int64
	ProxyURL         string
	FetchTimeout     time.Duration
}

// Normalizer resolves and rasterizes document sources.
type Normalizer struct {
	fetcher   *fetcher
	converter Converter
	blobs     blob.Store
	logger    *zap.Logger
}

// New creates a Normalizer. converter and blobs handle the webpage/office
// conversion and stored-blob branches respectively.
func New(cfg Config, converter Converter, blobs blob.Store, logger *zap.Logger) (*Normalizer, error) {
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 50 * 1024 * 1024
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}

	f := &fetcher{
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes: cfg.MaxDocumentBytes,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		f.proxyClient = &http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	return &Normalizer{fetcher: f, converter: converter, blobs: blobs, logger: logger}, nil
}

// Pages resolves the source and returns one base64 PNG per page, 1-indexed
// by position.
func (n *Normalizer) Pages(ctx context.Context, src domain.Source) ([]string, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	data, filename, err := n.resolve(ctx, src)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > n.fetcher.maxBytes {
		return nil, domain.NewSizeLimit(int64(len(data)), n.fetcher.maxBytes)
	}

	ext := resolveExtension(data, filename)
	n.logger.Debug("resolved document format",
		zap.String("filename", filename), zap.String("extension", ext))

	if !isAllowed(ext) {
		return nil, fmt.Errorf("extension .%s: %w", ext, domain.ErrUnsupportedFormat)
	}

	// Images skip conversion entirely: one page, the payload itself.
	if isImage(ext) {
		return []string{base64.StdEncoding.EncodeToString(data)}, nil
	}

	pdf := data
	if ext != "pdf" {
		// Keep the extension visible to the converter so it can pick its
		// engine for the format.
		name := filename
		if fileExtension(name) != ext {
			name = fmt.Sprintf("%s.%s", name, ext)
		}
		n.logger.Info("converting document to pdf",
			zap.String("filename", name), zap.String("extension", ext))
		pdf, err = n.converter.ConvertFile(ctx, name, data)
		if err != nil {
			return nil, err
		}
	}

	pages, err := rasterizePDF(pdf)
	if err != nil {
		return nil, err
	}
	n.logger.Info("rasterized document", zap.Int("pages", len(pages)))
	return pages, nil
}

// resolve produces the raw document bytes plus a declared filename for each
// source kind.
func (n *Normalizer) resolve(ctx context.Context, src domain.Source) ([]byte, string, error) {
	switch {
	case src.URL != "":
		return n.resolveRemote(ctx, src)

	case src.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(src.Base64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 payload: %w", domain.ErrValidation)
		}
		filename := src.Filename
		if filename == "" {
			filename = "document"
		}
		return data, filename, nil

	default:
		data, err := n.blobs.Get(ctx, src.BlobPath)
		if err != nil {
			return nil, "", fmt.Errorf("read stored document: %w", err)
		}
		filename := src.Filename
		if filename == "" {
			filename = src.BlobPath
		}
		return data, filename, nil
	}
}

// resolveRemote decides between a direct fetch and the webpage→PDF route.
// PDFs (by Content-Type) and URLs with an allow-listed extension are fetched
// as files; everything else is treated as a webpage and rendered to PDF by
// the conversion service.
func (n *Normalizer) resolveRemote(ctx context.Context, src domain.Source) ([]byte, string, error) {
	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" {
		return nil, "", fmt.Errorf("invalid document url %q: %w", src.URL, domain.ErrValidation)
	}
	urlExt := fileExtension(u.Path)
	contentType := n.fetcher.headContentType(ctx, src.URL, src.UseProxy)

	switch {
	case strings.Contains(contentType, "application/pdf"):
		return n.fetcher.fetch(ctx, src.URL, src.UseProxy)

	case urlExt == "" || !isAllowed(urlExt):
		n.logger.Info("treating url as webpage", zap.String("url", src.URL))
		pdf, err := n.converter.ConvertURL(ctx, src.URL)
		if err != nil {
			return nil, "", err
		}
		return pdf, "webpage.pdf", nil

	default:
		return n.fetcher.fetch(ctx, src.URL, src.UseProxy)
	}
}
