package normalize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/pagesight/pagesight/internal/domain"
)

// rasterizePDF renders every page of a PDF as a base64-encoded PNG, in page
// order. A document that yields no pages is an error.
func rasterizePDF(pdf []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w: %w", domain.ErrRasterizeFailed, err)
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages: %w", domain.ErrRasterizeFailed)
	}

	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w: %w", i+1, domain.ErrRasterizeFailed, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w: %w", i+1, domain.ErrRasterizeFailed, err)
		}
		pages = append(pages, base64.StdEncoding.EncodeToString(buf.Bytes()))
	}
	return pages, nil
}
