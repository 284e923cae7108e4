// Package ports defines interfaces for external dependencies.
// Usecases and the chat session depend on these abstractions;
// adapters implement them.
package ports

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
)

var (
	// ErrLLMUnreachable means the language model could not be contacted at all.
	ErrLLMUnreachable = errors.New("llm unreachable")

	// ErrLLMStatus means the language model answered with a non-success status.
	ErrLLMStatus = errors.New("llm returned an error status")

	// ErrUnsupportedFormat is returned by parsers for file types they cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnreadableDocument is returned by parsers when a supported file is corrupt.
	ErrUnreadableDocument = errors.New("unreadable document")
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Generate produces a response for a fully built prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream produces a token stream for a fully built prompt.
	GenerateStream(ctx context.Context, prompt string) (<-chan StreamToken, error)
}

// VectorStore persists and queries document embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Documents lists stored documents in upload order, one entry per document,
	// previewing the document's first chunk.
	Documents(ctx context.Context) ([]entities.DocumentInfo, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Delete removes all chunks for a document.
	Delete(ctx context.Context, documentID string) error

	// Replace atomically swaps all chunks of a document for the given ones.
	// Concurrent replaces of one document never leave both sets stored.
	Replace(ctx context.Context, documentID string, chunks []entities.Chunk) error

	// Clear removes all data from the store.
	Clear(ctx context.Context) error
}

// DocumentLoader reads and parses documents from disk.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from document bytes.
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns extensions this parser handles (e.g., ".pdf").
	SupportedFormats() []string
}

// StreamToken represents a single token in a streaming LLM response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

// Backend is the RAG API as seen by the chat client.
type Backend interface {
	// ListDocuments fetches every stored document.
	ListDocuments(ctx context.Context) ([]entities.DocumentInfo, error)

	// Upload sends one file for ingestion.
	Upload(ctx context.Context, filename string, r io.Reader) (*entities.UploadResult, error)

	// Chat asks the assistant a question.
	Chat(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)

	// ClearDocuments deletes every stored document.
	ClearDocuments(ctx context.Context) error
}

// APIError is a non-2xx answer from the backend. Detail carries the
// backend's "detail" field and is empty when the body had none.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}
