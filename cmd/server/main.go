// Command server runs the Light RAG backend: document upload, retrieval
// and chat over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xcro3dile/lightrag-go/internal/adapters/embedding"
	"github.com/0xcro3dile/lightrag-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/lightrag-go/internal/adapters/llm"
	"github.com/0xcro3dile/lightrag-go/internal/adapters/loader"
	"github.com/0xcro3dile/lightrag-go/internal/adapters/parser"
	"github.com/0xcro3dile/lightrag-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
	"github.com/0xcro3dile/lightrag-go/internal/domain/usecases"
	"github.com/0xcro3dile/lightrag-go/internal/infrastructure/config"
	httpserver "github.com/0xcro3dile/lightrag-go/internal/infrastructure/http"
)

const (
	hashingDimensions = 500
	llmTimeoutSlack   = 30 * time.Second // covers retrieval and response encoding
)

func main() {
	log.Println("[INFO] Starting Light RAG backend...")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newVectorStore(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open vector store: %v", err)
	}
	defer closeStore()

	embedder := newEmbedder(cfg)
	generator := llm.NewOllamaGenerator(cfg.OllamaURL, cfg.LLMModel, cfg.LLMTimeout)

	var pdfFallback ports.DocumentParser
	if cfg.PDFServiceURL != "" || cfg.PDFServiceDir != "" {
		service := parser.NewPDFServiceParser(cfg.PDFServiceURL)
		pdfFallback = service
		if cfg.PDFServiceDir != "" {
			cleanup, err := service.StartService(cfg.PDFServiceDir)
			if err != nil {
				log.Printf("[WARN] PDF service not started, scanned PDFs will not be read: %v", err)
			} else {
				defer cleanup()
				log.Printf("[INFO] PDF service running at %s", service.BaseURL())
			}
		}
	}
	docParser := parser.NewDefaultParser(parser.NewPDFParser(pdfFallback))

	ingest := usecases.NewIngestUseCase(embedder, store, docParser, cfg.ChunkSize, cfg.ChunkOverlap)
	query := usecases.NewQueryUseCase(embedder, store, generator, cfg.TopK)
	documents := usecases.NewDocumentsUseCase(store)

	if cfg.WatchDir != "" {
		if err := startFolderSync(ctx, cfg.WatchDir, docParser, ingest); err != nil {
			log.Fatalf("[FATAL] Failed to watch %s: %v", cfg.WatchDir, err)
		}
	}

	server := httpserver.NewServer(query, ingest, documents, httpserver.Options{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.LLMTimeout + llmTimeoutSlack,
	})

	if err := server.Start(ctx); err != nil {
		log.Fatalf("[FATAL] Server error: %v", err)
	}
	log.Println("[INFO] Server exited gracefully")
}

func newVectorStore(cfg *config.ServerConfig) (ports.VectorStore, func(), error) {
	switch cfg.VectorStore {
	case config.StoreMemory:
		log.Println("[INFO] Using in-memory vector store")
		return vectordb.NewInMemoryStore(), func() {}, nil
	default:
		store, err := vectordb.NewSQLiteStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] Using SQLite vector store in %s", cfg.DataDir)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("[WARN] Closing vector store: %v", err)
			}
		}, nil
	}
}

func newEmbedder(cfg *config.ServerConfig) ports.EmbeddingService {
	if cfg.Embedder == config.EmbedOllama {
		log.Printf("[INFO] Using Ollama embeddings (%s)", cfg.EmbedModel)
		return embedding.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel)
	}
	log.Printf("[INFO] Using hashing vectorizer (%d dimensions)", hashingDimensions)
	return embedding.NewHashingVectorizer(hashingDimensions)
}

// startFolderSync keeps dir and the store in step until ctx is cancelled.
func startFolderSync(ctx context.Context, dir string, docParser ports.DocumentParser, ingest *usecases.IngestUseCase) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	watcher, err := filewatcher.NewFSNotifyWatcher(docParser.SupportedFormats())
	if err != nil {
		return err
	}
	sync := usecases.NewFolderSyncUseCase(watcher, loader.NewFileLoader(docParser), ingest)

	go func() {
		defer watcher.Stop()
		if err := sync.Run(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] Folder sync stopped: %v", err)
		}
	}()
	return nil
}
