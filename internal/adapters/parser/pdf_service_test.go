package parser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

func TestPDFServiceParser_Parse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "fake pdf" {
			t.Errorf("unexpected body: %q", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":  "Hello from PDF",
			"pages": 1,
		})
	}))
	defer server.Close()

	parser := NewPDFServiceParser(server.URL)
	text, err := parser.Parse(context.Background(), []byte("fake pdf"), "test.pdf")

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if text != "Hello from PDF" {
		t.Errorf("unexpected text: %s", text)
	}
}

func TestPDFServiceParser_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "parsing failed",
			"text":  "",
		})
	}))
	defer server.Close()

	parser := NewPDFServiceParser(server.URL)
	_, err := parser.Parse(context.Background(), []byte("bad"), "test.pdf")

	if !errors.Is(err, ports.ErrUnreadableDocument) {
		t.Errorf("should report an unreadable document, got %v", err)
	}
}

func TestPDFServiceParser_NonJSONStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewPDFServiceParser(server.URL+"/").Parse(context.Background(), []byte("x"), "a.pdf")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestPDFServiceParser_ServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewPDFServiceParser(url).Parse(context.Background(), []byte("x"), "a.pdf")
	if err == nil || errors.Is(err, ports.ErrUnreadableDocument) {
		t.Errorf("a dead service is not a corrupt document, got %v", err)
	}
}

func TestPDFServiceParser_SupportedFormats(t *testing.T) {
	parser := NewPDFServiceParser("")
	formats := parser.SupportedFormats()

	if len(formats) != 1 || formats[0] != ".pdf" {
		t.Error("should support only .pdf")
	}
}

func TestPDFServiceParser_DefaultURL(t *testing.T) {
	parser := NewPDFServiceParser("")
	if parser.BaseURL() != defaultPDFServiceURL {
		t.Error("should default to localhost:8081")
	}
}

func TestPDFServiceParser_IsServiceHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	}))
	defer server.Close()

	parser := NewPDFServiceParser(server.URL)
	if !parser.IsServiceHealthy(context.Background()) {
		t.Error("should be healthy")
	}
}

func TestPDFServiceParser_UnhealthyService(t *testing.T) {
	parser := NewPDFServiceParser("http://localhost:99999")
	if parser.IsServiceHealthy(context.Background()) {
		t.Error("should be unhealthy")
	}
}
