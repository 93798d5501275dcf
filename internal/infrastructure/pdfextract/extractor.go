// Package pdfextract pulls plain text out of downloaded papers. Extraction
// is bounded by page count and cumulative character count; hitting a bound
// stops early and is not an error.
package pdfextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractText(ctx context.Context, path string, maxPages, maxChars int) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	pages := reader.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= pages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Single unreadable pages are common in scanned or
			// partially corrupt papers; keep going.
			continue
		}

		b.WriteString(text)
		b.WriteString("\n")
		if maxChars > 0 && b.Len() >= maxChars {
			break
		}
	}

	out := b.String()
	if maxChars > 0 && len(out) > maxChars {
		out = out[:maxChars]
	}
	return out, nil
}

// ExtractImages is deliberately disabled: rasterizing embedded figures is
// unbounded in memory for adversarial PDFs, so this extractor always reports
// none and the response carries an empty figure list.
func (e *Extractor) ExtractImages(context.Context, string, int) ([]domain.Figure, error) {
	return []domain.Figure{}, nil
}
