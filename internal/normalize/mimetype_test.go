package normalize

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResolveExtension_SniffsContent(t *testing.T) {
	// A PNG declared as .docx still resolves to png: sniffing wins.
	if got := resolveExtension(pngBytes(t), "evil.docx"); got != "png" {
		t.Fatalf("extension = %q, want png", got)
	}
}

func TestResolveExtension_PDFHeader(t *testing.T) {
	if got := resolveExtension([]byte("%PDF-1.7 garbage"), "file"); got != "pdf" {
		t.Fatalf("extension = %q, want pdf", got)
	}
}

func TestResolveExtension_FallsBackToFilename(t *testing.T) {
	// Plain text detects as text/plain (.txt); an undetectable binary falls
	// back to the declared filename.
	data := []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe}
	if got := resolveExtension(data, "report.xyz"); got != "xyz" {
		t.Fatalf("extension = %q, want xyz", got)
	}
}

func TestResolveExtension_UnknownBecomesBin(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe}
	if got := resolveExtension(data, "noext"); got != "bin" {
		t.Fatalf("extension = %q, want bin", got)
	}
}

func TestIsAllowed(t *testing.T) {
	for _, ext := range []string{"pdf", "docx", "png", "html", "csv"} {
		if !isAllowed(ext) {
			t.Errorf("extension %q unexpectedly disallowed", ext)
		}
	}
	for _, ext := range []string{"bin", "exe", "sh", ""} {
		if isAllowed(ext) {
			t.Errorf("extension %q unexpectedly allowed", ext)
		}
	}
}

func TestIsImage(t *testing.T) {
	if !isImage("jpeg") || !isImage("png") {
		t.Error("raster formats not recognized as images")
	}
	if isImage("pdf") || isImage("docx") {
		t.Error("non-raster format recognized as image")
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"report.PDF":  "pdf",
		"archive.tgz": "tgz",
		"noext":       "",
		"":            "",
	}
	for in, want := range cases {
		if got := fileExtension(in); got != want {
			t.Errorf("fileExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseMIME(t *testing.T) {
	if got := baseMIME("text/html; charset=utf-8"); got != "text/html" {
		t.Fatalf("baseMIME = %q, want text/html", got)
	}
}
