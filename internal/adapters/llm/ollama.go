// Package llm provides the Ollama text generation adapter.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "tinyllama"
	defaultTimeout = 120 * time.Second
)

// errStreamTruncated means the NDJSON stream ended before a done line.
var errStreamTruncated = errors.New("generation stream ended before completion")

// OllamaGenerator implements ports.LLMService with Ollama's /api/generate.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaGenerator creates a generator for model served at baseURL.
// A zero timeout selects the default.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateLine is one response object; streams send one per line.
type generateLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate returns the complete answer for prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var line generateLine
	if err := json.NewDecoder(resp.Body).Decode(&line); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if line.Error != "" {
		return "", fmt.Errorf("%w: %s", ports.ErrLLMStatus, line.Error)
	}
	return line.Response, nil
}

// GenerateStream returns the answer token by token. The last token has
// Done set; if generation fails midway it also carries the error.
func (g *OllamaGenerator) GenerateStream(ctx context.Context, prompt string) (<-chan ports.StreamToken, error) {
	resp, err := g.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	tokens := make(chan ports.StreamToken, 100)
	go func() {
		defer close(tokens)
		defer resp.Body.Close()

		send := func(tok ports.StreamToken) bool {
			select {
			case tokens <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}

			var line generateLine
			if err := json.Unmarshal(raw, &line); err != nil {
				continue
			}
			if line.Error != "" {
				send(ports.StreamToken{Done: true, Error: fmt.Errorf("%w: %s", ports.ErrLLMStatus, line.Error)})
				return
			}
			if !send(ports.StreamToken{Content: line.Response, Done: line.Done}) || line.Done {
				return
			}
		}

		err := scanner.Err()
		switch {
		case ctx.Err() != nil:
			err = ctx.Err()
		case err == nil:
			err = errStreamTruncated
		}
		send(ports.StreamToken{Done: true, Error: err})
	}()

	return tokens, nil
}

// post sends a generate request and classifies transport and status failures.
// On success the caller owns the response body.
func (g *OllamaGenerator) post(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w: %v", ports.ErrLLMUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: Ollama returned status %d%s", ports.ErrLLMStatus, resp.StatusCode, errorDetail(resp.Body))
	}
	return resp, nil
}

// errorDetail extracts Ollama's {"error": "..."} body, if any, as a suffix.
func errorDetail(body io.Reader) string {
	var line generateLine
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&line); err != nil || line.Error == "" {
		return ""
	}
	return ": " + line.Error
}
