package parser

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// PDFParser extracts the text layer of PDF files in process. Files it cannot
// read, or that have no text layer (scans), go to the fallback when one is set.
type PDFParser struct {
	fallback ports.DocumentParser
}

// NewPDFParser creates a PDF parser. fallback may be nil.
func NewPDFParser(fallback ports.DocumentParser) *PDFParser {
	return &PDFParser{fallback: fallback}
}

// Parse returns the text of every page, one page per paragraph.
func (p *PDFParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	text, err := extractPDFText(ctx, data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if p.fallback != nil {
		if err != nil {
			log.Printf("[WARN] Built-in PDF parser failed on %s, trying PDF service: %v", filename, err)
		}
		return p.fallback.Parse(ctx, data, filename)
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading PDF: %v", ports.ErrUnreadableDocument, err)
	}
	return text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PDFParser) SupportedFormats() []string {
	return []string{".pdf"}
}

func extractPDFText(ctx context.Context, data []byte) (text string, err error) {
	// The pdf package panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		b.WriteString(strings.TrimSpace(pageText))
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
