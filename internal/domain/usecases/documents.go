package usecases

import (
	"context"
	"fmt"
	"log"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const previewLength = 200

// DocumentsUseCase lists and clears stored documents.
type DocumentsUseCase struct {
	vectorStore ports.VectorStore
}

// NewDocumentsUseCase creates a DocumentsUseCase.
func NewDocumentsUseCase(vectorStore ports.VectorStore) *DocumentsUseCase {
	return &DocumentsUseCase{vectorStore: vectorStore}
}

// List returns one entry per stored document with a short preview.
func (uc *DocumentsUseCase) List(ctx context.Context) ([]entities.DocumentInfo, error) {
	docs, err := uc.vectorStore.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for i := range docs {
		docs[i].ContentPreview = preview(docs[i].ContentPreview)
	}
	if docs == nil {
		docs = []entities.DocumentInfo{}
	}
	return docs, nil
}

// Clear removes every document. Clearing an empty store is not an error.
func (uc *DocumentsUseCase) Clear(ctx context.Context) error {
	if err := uc.vectorStore.Clear(ctx); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	log.Printf("[INFO] All documents and embeddings cleared")
	return nil
}

// preview truncates text to previewLength runes, marking the cut with "...".
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
