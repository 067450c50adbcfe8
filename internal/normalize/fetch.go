package normalize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/pagesight/pagesight/internal/domain"
)

var filenameRegex = regexp.MustCompile(`filename="([^"]+)"`)

// fetcher downloads source documents over HTTP with the ingestion size limit
// enforced both against the declared Content-Length and the actual body.
type fetcher struct {
	client      *http.Client
	proxyClient *http.Client
	maxBytes    int64
}

// resolveURL rewrites the target for proxy mode: the proxy terminates TLS
// itself, so https schemes are downgraded to http before routing through it.
func (f *fetcher) resolveURL(rawURL string, useProxy bool) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid document url %q: %w", rawURL, domain.ErrValidation)
	}
	if useProxy && u.Scheme == "https" {
		u.Scheme = "http"
	}
	return u.String(), nil
}

func (f *fetcher) httpClient(useProxy bool) *http.Client {
	if useProxy && f.proxyClient != nil {
		return f.proxyClient
	}
	return f.client
}

// fetch downloads the document, returning its bytes and the declared
// filename (Content-Disposition first, URL path basename as fallback).
func (f *fetcher) fetch(ctx context.Context, rawURL string, useProxy bool) ([]byte, string, error) {
	target, err := f.resolveURL(rawURL, useProxy)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := f.httpClient(useProxy).Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w: %w", rawURL, domain.ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d: %w", rawURL, resp.StatusCode, domain.ErrFetchFailed)
	}

	// Reject by declared size before reading the body.
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if declared, perr := strconv.ParseInt(cl, 10, 64); perr == nil && declared > f.maxBytes {
			return nil, "", domain.NewSizeLimit(declared, f.maxBytes)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read fetched document: %w: %w", domain.ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", domain.NewSizeLimit(int64(len(data)), f.maxBytes)
	}

	return data, fetchedFilename(resp, rawURL), nil
}

// headContentType issues a HEAD request and returns the lowercased
// Content-Type, or "" when the request fails (callers fall back to sniffing).
func (f *fetcher) headContentType(ctx context.Context, rawURL string, useProxy bool) string {
	target, err := f.resolveURL(rawURL, useProxy)
	if err != nil {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return ""
	}
	resp, err := f.httpClient(useProxy).Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()
	return strings.ToLower(resp.Header.Get("Content-Type"))
}

func fetchedFilename(resp *http.Response, rawURL string) string {
	if m := filenameRegex.FindStringSubmatch(resp.Header.Get("Content-Disposition")); m != nil {
		return m[1]
	}
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return "document"
}
