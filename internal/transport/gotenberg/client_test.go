package gotenberg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagesight/pagesight/internal/domain"
)

func TestConvertFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/libreoffice/convert" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "report.docx" {
			t.Errorf("filename = %q, want report.docx", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "doc-bytes" {
			t.Errorf("content = %q", content)
		}
		_, _ = w.Write([]byte("%PDF-1.7 converted"))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	pdf, err := c.ConvertFile(context.Background(), "report.docx", []byte("doc-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pdf) != "%PDF-1.7 converted" {
		t.Fatalf("pdf = %q", pdf)
	}
}

func TestConvertURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/url" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("url"); got != "https://example.com/article" {
			t.Errorf("url field = %q", got)
		}
		_, _ = w.Write([]byte("%PDF-1.7 webpage"))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	pdf, err := c.ConvertURL(context.Background(), "https://example.com/article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pdf) != "%PDF-1.7 webpage" {
		t.Fatalf("pdf = %q", pdf)
	}
}

func TestConvert_Non200IsHardFailure(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, MaxAttempts: 3, RetryBackoff: time.Millisecond})
	_, err := c.ConvertFile(context.Background(), "weird.xyz", []byte("data"))
	if !errors.Is(err, domain.ErrConversionFailed) {
		t.Fatalf("err = %v, want conversion error", err)
	}
	if requests.Load() != 1 {
		t.Fatalf("requests = %d, want 1 (no retry on application error)", requests.Load())
	}
}

func TestConvert_RetriesTransportErrors(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 2 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte("%PDF-1.7 eventually"))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, MaxAttempts: 3, RetryBackoff: time.Millisecond})
	pdf, err := c.ConvertURL(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pdf) != "%PDF-1.7 eventually" {
		t.Fatalf("pdf = %q", pdf)
	}
	if requests.Load() != 2 {
		t.Fatalf("requests = %d, want 2", requests.Load())
	}
}
