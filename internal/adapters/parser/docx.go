package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const docxBodyPart = "word/document.xml"

// DocxParser extracts paragraph text from Word (.docx) documents.
// Each paragraph becomes one line of output.
type DocxParser struct{}

// NewDocxParser creates a new DOCX parser.
func NewDocxParser() *DocxParser {
	return &DocxParser{}
}

// Parse reads word/document.xml from the DOCX archive.
func (p *DocxParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: reading DOCX: %v", ports.ErrUnreadableDocument, err)
	}

	for _, f := range zr.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: reading DOCX: %v", ports.ErrUnreadableDocument, err)
		}
		defer rc.Close()

		text, err := paragraphText(ctx, rc)
		if err != nil {
			return "", fmt.Errorf("%w: reading DOCX: %v", ports.ErrUnreadableDocument, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: reading DOCX: %s missing", ports.ErrUnreadableDocument, docxBodyPart)
}

// SupportedFormats returns formats this parser handles.
func (p *DocxParser) SupportedFormats() []string {
	return []string{".docx"}
}

// paragraphText walks WordprocessingML and joins run text per paragraph.
func paragraphText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
