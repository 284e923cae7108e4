// Package loader provides document loading adapters.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// FileLoader reads documents from disk and extracts their text with a parser.
// Documents are keyed by base filename, matching HTTP uploads.
type FileLoader struct {
	parser ports.DocumentParser
}

// NewFileLoader creates a loader backed by the given parser.
func NewFileLoader(parser ports.DocumentParser) *FileLoader {
	return &FileLoader{parser: parser}
}

// Load reads and parses the document at path.
func (l *FileLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	text, err := l.parser.Parse(ctx, data, name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &entities.Document{
		ID:        name,
		Name:      name,
		Path:      path,
		Content:   text,
		CreatedAt: info.ModTime(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *FileLoader) SupportedExtensions() []string {
	return l.parser.SupportedFormats()
}
