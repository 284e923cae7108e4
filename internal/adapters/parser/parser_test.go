package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// buildDocx zips a minimal WordprocessingML body.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTextParser_Parse(t *testing.T) {
	text, err := NewTextParser().Parse(context.Background(), []byte("héllo\nworld"), "a.txt")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "héllo\nworld" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestTextParser_InvalidUTF8(t *testing.T) {
	_, err := NewTextParser().Parse(context.Background(), []byte{0xff, 0xfe, 0x00}, "a.txt")
	if !errors.Is(err, ports.ErrUnreadableDocument) {
		t.Errorf("expected unreadable document, got %v", err)
	}
}

func TestDocxParser_Paragraphs(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>`+
			`<w:p/>`)

	text, err := NewDocxParser().Parse(context.Background(), data, "doc.docx")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "Hello world\nSecond\tline\n\n" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestDocxParser_NotAZip(t *testing.T) {
	_, err := NewDocxParser().Parse(context.Background(), []byte("plain text"), "doc.docx")
	if !errors.Is(err, ports.ErrUnreadableDocument) {
		t.Errorf("expected unreadable document, got %v", err)
	}
}

func TestDocxParser_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("word/styles.xml")
	zw.Close()

	_, err := NewDocxParser().Parse(context.Background(), buf.Bytes(), "doc.docx")
	if !errors.Is(err, ports.ErrUnreadableDocument) {
		t.Errorf("expected unreadable document, got %v", err)
	}
}

func TestMultiParser_Dispatch(t *testing.T) {
	m := NewMultiParser(NewTextParser(), NewDocxParser())
	ctx := context.Background()

	txt, err := m.Parse(ctx, []byte("notes"), "NOTES.TXT")
	if err != nil || txt != "notes" {
		t.Errorf("txt dispatch failed: %q %v", txt, err)
	}

	docx, err := m.Parse(ctx, buildDocx(t, `<w:p><w:r><w:t>Doc</w:t></w:r></w:p>`), "report.docx")
	if err != nil || docx != "Doc\n" {
		t.Errorf("docx dispatch failed: %q %v", docx, err)
	}
}

func TestMultiParser_Unsupported(t *testing.T) {
	m := NewMultiParser(NewTextParser())

	for _, name := range []string{"image.png", "noext", "archive.tar.gz"} {
		if _, err := m.Parse(context.Background(), []byte("x"), name); !errors.Is(err, ports.ErrUnsupportedFormat) {
			t.Errorf("%s: expected unsupported format, got %v", name, err)
		}
	}
}

func TestDefaultParser_Formats(t *testing.T) {
	formats := NewDefaultParser(NewPDFServiceParser("")).SupportedFormats()
	want := map[string]bool{".pdf": true, ".docx": true, ".txt": true, ".md": true}
	for _, f := range formats {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("missing formats: %v", want)
	}
}
