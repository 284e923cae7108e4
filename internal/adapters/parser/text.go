package parser

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// TextParser reads plain text and markdown files as UTF-8.
type TextParser struct{}

// NewTextParser creates a new plain text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse returns the file content. Invalid UTF-8 is rejected.
func (p *TextParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ports.ErrUnreadableDocument, filename)
	}
	return string(data), nil
}

// SupportedFormats returns formats this parser handles.
func (p *TextParser) SupportedFormats() []string {
	return []string{".txt", ".md", ".markdown"}
}
