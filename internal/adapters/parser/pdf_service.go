package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const (
	defaultPDFServiceURL = "http://localhost:8081"
	pdfServiceScript     = "pdf_service.py"
	pdfServiceStartup    = 5 * time.Second
	maxServiceErrorBody  = 4 << 10
)

// PDFServiceParser sends PDFs to an external extraction service
// (POST /parse with the raw bytes, GET /health). It backs PDFParser for
// files without a usable text layer.
type PDFServiceParser struct {
	baseURL string
	client  *http.Client
	proc    *exec.Cmd
}

// NewPDFServiceParser points at the service at baseURL, or localhost:8081.
func NewPDFServiceParser(baseURL string) *PDFServiceParser {
	if baseURL == "" {
		baseURL = defaultPDFServiceURL
	}
	return &PDFServiceParser{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// BaseURL returns the service address.
func (p *PDFServiceParser) BaseURL() string { return p.baseURL }

type serviceReply struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Parse posts data to the service. A reply carrying an error means the
// service read the file and rejected it.
func (p *PDFServiceParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building PDF service request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("PDF service unreachable at %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	var reply serviceReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxServiceErrorBody))
			return "", fmt.Errorf("PDF service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		}
		return "", fmt.Errorf("decoding PDF service reply: %w", err)
	}
	if reply.Error != "" {
		return "", fmt.Errorf("%w: %s: %s", ports.ErrUnreadableDocument, filename, reply.Error)
	}
	return reply.Text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PDFServiceParser) SupportedFormats() []string {
	return []string{".pdf"}
}

// StartService runs dir/pdf_service.py with python3 and waits until it
// answers /health. The returned func stops the process.
func (p *PDFServiceParser) StartService(dir string) (func(), error) {
	script := filepath.Join(dir, pdfServiceScript)
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("PDF service script: %w", err)
	}

	cmd := exec.Command("python3", script)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching %s: %w", script, err)
	}
	p.proc = cmd

	stop := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	deadline := time.Now().Add(pdfServiceStartup)
	for !p.IsServiceHealthy(context.Background()) {
		if time.Now().After(deadline) {
			stop()
			return nil, fmt.Errorf("PDF service at %s not healthy after %s", p.baseURL, pdfServiceStartup)
		}
		time.Sleep(200 * time.Millisecond)
	}
	return stop, nil
}

// IsServiceHealthy reports whether /health answers 200.
func (p *PDFServiceParser) IsServiceHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
