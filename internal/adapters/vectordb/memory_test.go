package vectordb

import (
	"context"
	"testing"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
)

func TestInMemoryStore_StoreAndSearch(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Store(ctx, []entities.Chunk{
		{ID: "c1", DocumentID: "a", Filename: "a.txt", Content: "hello", Embedding: []float32{0, 1}},
		{ID: "c2", DocumentID: "a", Filename: "a.txt", Content: "world", Embedding: []float32{1, 0}},
	})

	results, err := store.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c2" || results[0].SourceDoc != "a.txt" {
		t.Errorf("unexpected top result: %+v", results[0])
	}
}

func TestInMemoryStore_TiesKeepInsertionOrder(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Store(ctx, []entities.Chunk{
		{ID: "first", DocumentID: "a", Embedding: []float32{1, 0}},
		{ID: "second", DocumentID: "a", Embedding: []float32{1, 0}},
		{ID: "third", DocumentID: "a", Embedding: []float32{1, 0}},
	})

	results, _ := store.Search(ctx, []float32{1, 0}, 2)
	if len(results) != 2 || results[0].Chunk.ID != "first" || results[1].Chunk.ID != "second" {
		t.Errorf("ties should keep insertion order, got %+v", results)
	}
}

func TestInMemoryStore_ReplaceByID(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Store(ctx, []entities.Chunk{{ID: "c1", DocumentID: "a", Content: "old"}})
	store.Store(ctx, []entities.Chunk{{ID: "c1", DocumentID: "a", Content: "new"}})

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk, got %d", count)
	}
	docs, _ := store.Documents(ctx)
	if docs[0].ContentPreview != "new" {
		t.Errorf("expected replaced content, got %q", docs[0].ContentPreview)
	}
}

func TestInMemoryStore_Documents(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Store(ctx, []entities.Chunk{
		{ID: "z0", DocumentID: "z.md", Filename: "z.md", Content: "z start"},
		{ID: "a0", DocumentID: "a.md", Filename: "a.md", Content: "a start"},
		{ID: "z1", DocumentID: "z.md", Filename: "z.md", Content: "z more"},
	})

	docs, _ := store.Documents(ctx)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "z.md" || docs[0].ContentPreview != "z start" || docs[1].ID != "a.md" {
		t.Errorf("unexpected documents: %+v", docs)
	}
}

func TestInMemoryStore_DeleteAndClear(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Store(ctx, []entities.Chunk{
		{ID: "a0", DocumentID: "a", Embedding: []float32{1}},
		{ID: "b0", DocumentID: "b", Embedding: []float32{1}},
		{ID: "a1", DocumentID: "a", Embedding: []float32{1}},
	})

	store.Delete(ctx, "a")
	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk after delete, got %d", count)
	}

	// Index must follow the compaction so a re-store replaces, not duplicates.
	store.Store(ctx, []entities.Chunk{{ID: "b0", DocumentID: "b", Embedding: []float32{1}}})
	count, _ = store.Count(ctx)
	if count != 1 {
		t.Errorf("expected re-store to replace, got %d", count)
	}

	store.Clear(ctx)
	count, _ = store.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store, got %d", count)
	}
	results, _ := store.Search(ctx, []float32{1}, 3)
	if len(results) != 0 {
		t.Error("search on empty store should return nothing")
	}
}
