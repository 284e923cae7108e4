// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

var (
	// ErrUnsupportedFileType is returned for uploads the parsers cannot read.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyDocument is returned when a document yields no text to index.
	ErrEmptyDocument = errors.New("no text content found in the document")
)

const (
	defaultChunkWords   = 500
	defaultOverlapWords = 50
)

// IngestUseCase handles document ingestion into the vector store.
type IngestUseCase struct {
	embedder     ports.EmbeddingService
	vectorStore  ports.VectorStore
	parser       ports.DocumentParser
	chunkSize    int // words per chunk
	chunkOverlap int // words shared by consecutive chunks
	now          func() time.Time
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	parser ports.DocumentParser,
	chunkSize, chunkOverlap int,
) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = defaultChunkWords
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultOverlapWords
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &IngestUseCase{
		embedder:     embedder,
		vectorStore:  vectorStore,
		parser:       parser,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		now:          time.Now,
	}
}

// Upload parses raw file bytes and ingests the resulting document.
func (uc *IngestUseCase) Upload(ctx context.Context, filename string, data []byte) (*entities.UploadResult, error) {
	text, err := uc.parser.Parse(ctx, data, filename)
	if err != nil {
		if errors.Is(err, ports.ErrUnsupportedFormat) {
			return nil, ErrUnsupportedFileType
		}
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		// An empty upload must not wipe a stored document of the same name.
		return nil, ErrEmptyDocument
	}

	doc := &entities.Document{
		ID:        filename,
		Name:      filename,
		Content:   text,
		CreatedAt: uc.now(),
	}

	n, err := uc.Ingest(ctx, doc)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyDocument
	}

	return &entities.UploadResult{
		Message:       "Successfully uploaded and processed " + filename,
		ChunksCreated: n,
		Filename:      filename,
	}, nil
}

// Ingest chunks, embeds and stores a parsed document, replacing any
// chunks previously stored under the same document ID.
// It returns the number of chunks created. A document without text is
// removed from the store and reports 0.
func (uc *IngestUseCase) Ingest(ctx context.Context, doc *entities.Document) (int, error) {
	chunks := uc.chunkDocument(doc)
	if len(chunks) == 0 {
		if err := uc.vectorStore.Replace(ctx, doc.ID, nil); err != nil {
			return 0, fmt.Errorf("removing %s: %w", doc.ID, err)
		}
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := uc.vectorStore.Replace(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", doc.ID, err)
	}

	log.Printf("[INFO] Processed %s: %d chunks", doc.Name, len(chunks))
	return len(chunks), nil
}

// Delete removes a document from the store.
func (uc *IngestUseCase) Delete(ctx context.Context, documentID string) error {
	return uc.vectorStore.Delete(ctx, documentID)
}

// chunkDocument splits document content into overlapping word windows.
func (uc *IngestUseCase) chunkDocument(doc *entities.Document) []entities.Chunk {
	words := strings.Fields(doc.Content)
	if len(words) == 0 {
		return nil
	}

	step := uc.chunkSize - uc.chunkOverlap
	var chunks []entities.Chunk
	for start := 0; start < len(words); start += step {
		end := min(start+uc.chunkSize, len(words))
		index := len(chunks)
		chunks = append(chunks, entities.Chunk{
			ID:         generateChunkID(doc.Name, index),
			DocumentID: doc.ID,
			Filename:   doc.Name,
			Content:    strings.Join(words[start:end], " "),
			Index:      index,
		})
		if end == len(words) {
			break
		}
	}

	return chunks
}

// generateChunkID creates a unique chunk ID of the form <filename>_<index>_<8 hex>.
func generateChunkID(filename string, index int) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", filename, index, suffix)
}
