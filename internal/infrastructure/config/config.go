// Package config loads backend and chat client settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector store and embedder choices.
const (
	StoreSQLite    = "sqlite"
	StoreMemory    = "memory"
	EmbedHashing   = "hashing"
	EmbedOllama    = "ollama"
	defaultOrigins = "http://localhost:3000,http://127.0.0.1:3000"
)

// ServerConfig holds backend configuration values.
type ServerConfig struct {
	HTTPAddr       string
	AllowedOrigins []string
	DataDir        string
	VectorStore    string
	Embedder       string
	OllamaURL      string
	LLMModel       string
	EmbedModel     string
	LLMTimeout     time.Duration
	PDFServiceURL  string // optional extraction service for PDFs without a text layer
	PDFServiceDir  string // directory holding pdf_service.py; empty means run it yourself
	WatchDir       string // optional folder kept in sync with the store
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
}

// ClientConfig holds chat client configuration values.
type ClientConfig struct {
	APIBaseURL     string
	LogFile        string
	RequestTimeout time.Duration
}

// LoadServerConfig reads backend settings.
// It looks for a .env file first, then checks actual environment variables.
func LoadServerConfig() (*ServerConfig, error) {
	loadDotEnv()

	cfg := &ServerConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", defaultOrigins)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		VectorStore:    strings.ToLower(getEnv("VECTOR_STORE", StoreSQLite)),
		Embedder:       strings.ToLower(getEnv("EMBEDDER", EmbedHashing)),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		LLMModel:       getEnv("LLM_MODEL", "tinyllama"),
		EmbedModel:     getEnv("EMBED_MODEL", "nomic-embed-text"),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		PDFServiceURL:  getEnv("PDF_SERVICE_URL", ""),
		PDFServiceDir:  getEnv("PDF_SERVICE_DIR", ""),
		WatchDir:       getEnv("WATCH_DIR", ""),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 50),
		TopK:           getEnvInt("TOP_K", 3),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("[INFO] Loaded config: Addr=%s, Store=%s, Embedder=%s, Model=%s, Watch=%q",
		cfg.HTTPAddr, cfg.VectorStore, cfg.Embedder, cfg.LLMModel, cfg.WatchDir)
	return cfg, nil
}

func (c *ServerConfig) validate() error {
	switch c.VectorStore {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", StoreSQLite, StoreMemory, c.VectorStore)
	}
	switch c.Embedder {
	case EmbedHashing, EmbedOllama:
	default:
		return fmt.Errorf("EMBEDDER must be %q or %q, got %q", EmbedHashing, EmbedOllama, c.Embedder)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	return nil
}

// LoadClientConfig reads chat client settings.
func LoadClientConfig() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		LogFile:        getEnv("CHAT_LOG_FILE", "lightrag-chat.log"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	return cfg, nil
}

// loadDotEnv loads .env when present. A missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Could not load .env file: %v", err)
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt parses an integer variable, falling back on absence or bad input.
func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("[WARN] Invalid %s %q, using default %d: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
