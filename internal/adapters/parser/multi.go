// Package parser provides document parsing adapters.
// Each parser implements ports.DocumentParser for a set of extensions;
// MultiParser dispatches on the filename.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// MultiParser dispatches to a parser by lowercased file extension.
type MultiParser struct {
	parsers map[string]ports.DocumentParser
}

// NewMultiParser registers every format of each given parser.
// Later parsers win when two claim the same extension.
func NewMultiParser(parsers ...ports.DocumentParser) *MultiParser {
	m := &MultiParser{parsers: make(map[string]ports.DocumentParser)}
	for _, p := range parsers {
		for _, ext := range p.SupportedFormats() {
			m.parsers[strings.ToLower(ext)] = p
		}
	}
	return m
}

// NewDefaultParser handles text, markdown, DOCX and PDF.
func NewDefaultParser(pdf ports.DocumentParser) *MultiParser {
	return NewMultiParser(
		NewTextParser(),
		NewDocxParser(),
		pdf,
	)
}

// Parse dispatches on the extension of filename.
func (m *MultiParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p, ok := m.parsers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, ext)
	}
	return p.Parse(ctx, data, filename)
}

// SupportedFormats returns all registered extensions, sorted.
func (m *MultiParser) SupportedFormats() []string {
	exts := make([]string, 0, len(m.parsers))
	for ext := range m.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
