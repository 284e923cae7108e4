package vectordb

import (
	"context"
	"sync"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
)

// InMemoryStore is a process-local vector store.
// Chunks are kept in insertion order so listings and score ties are stable.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks []entities.Chunk
	index  map[string]int // chunkID -> position in chunks
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		index: make(map[string]int),
	}
}

// Store saves chunks with their embeddings. A chunk with an existing ID
// replaces the stored one in place.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if pos, ok := s.index[chunk.ID]; ok {
			s.chunks[pos] = chunk
			continue
		}
		s.index[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	return nil
}

// Search finds the most similar chunks to a query embedding.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]entities.QueryResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		candidates = append(candidates, entities.QueryResult{
			Chunk:     chunk,
			Score:     cosineSimilarity(embedding, chunk.Embedding),
			SourceDoc: chunk.Filename,
		})
	}

	return topResults(candidates, topK), nil
}

// Documents lists stored documents in upload order with their first chunk.
func (s *InMemoryStore) Documents(ctx context.Context) ([]entities.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var docs []entities.DocumentInfo
	for _, chunk := range s.chunks {
		if seen[chunk.DocumentID] {
			continue
		}
		seen[chunk.DocumentID] = true
		docs = append(docs, entities.DocumentInfo{
			ID:             chunk.DocumentID,
			Filename:       chunk.Filename,
			ContentPreview: chunk.Content,
		})
	}
	return docs, nil
}

// Count returns the number of stored chunks.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Delete removes all chunks for a document.
func (s *InMemoryStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(documentID)
	return nil
}

// Replace swaps every chunk of documentID for chunks under one lock.
// An empty chunks slice removes the document.
func (s *InMemoryStore) Replace(ctx context.Context, documentID string, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(documentID)
	for _, chunk := range chunks {
		s.index[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	return nil
}

func (s *InMemoryStore) deleteLocked(documentID string) {
	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.DocumentID != documentID {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	s.reindex()
}

// Clear removes all data from the store.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = nil
	s.index = make(map[string]int)
	return nil
}

func (s *InMemoryStore) reindex() {
	s.index = make(map[string]int, len(s.chunks))
	for i, chunk := range s.chunks {
		s.index[chunk.ID] = i
	}
}
