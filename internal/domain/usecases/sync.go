package usecases

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// FolderSyncUseCase keeps the store in line with a watched directory:
// new or modified files are ingested, removed files are deleted.
type FolderSyncUseCase struct {
	watcher ports.FileWatcher
	loader  ports.DocumentLoader
	ingest  *IngestUseCase
}

// NewFolderSyncUseCase creates a FolderSyncUseCase.
func NewFolderSyncUseCase(watcher ports.FileWatcher, loader ports.DocumentLoader, ingest *IngestUseCase) *FolderSyncUseCase {
	return &FolderSyncUseCase{
		watcher: watcher,
		loader:  loader,
		ingest:  ingest,
	}
}

// Run ingests files already present in dir, then applies change events
// until ctx is cancelled or the watcher stops.
func (uc *FolderSyncUseCase) Run(ctx context.Context, dir string) error {
	if err := uc.ingestExisting(ctx, dir); err != nil {
		return err
	}

	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Printf("[INFO] Watching %s for documents", dir)

	for event := range events {
		if err := uc.Apply(ctx, event); err != nil {
			log.Printf("[ERROR] Sync %s: %v", event.Path, err)
		}
	}
	return ctx.Err()
}

// Apply handles a single file event.
func (uc *FolderSyncUseCase) Apply(ctx context.Context, event ports.FileEvent) error {
	switch event.Operation {
	case ports.FileDeleted:
		// Uploads and watched files share the filename as document ID.
		return uc.ingest.Delete(ctx, filepath.Base(event.Path))
	default:
		doc, err := uc.loader.Load(ctx, event.Path)
		if err != nil {
			return fmt.Errorf("loading: %w", err)
		}
		n, err := uc.ingest.Ingest(ctx, doc)
		if err != nil {
			return err
		}
		if n == 0 {
			log.Printf("[INFO] %s has no text, removed from the store", doc.Name)
		}
		return nil
	}
}

func (uc *FolderSyncUseCase) ingestExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	supported := make(map[string]bool)
	for _, ext := range uc.loader.SupportedExtensions() {
		supported[ext] = true
	}

	for _, entry := range entries {
		if entry.IsDir() || !supported[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		event := ports.FileEvent{Path: filepath.Join(dir, entry.Name()), Operation: ports.FileCreated}
		if err := uc.Apply(ctx, event); err != nil {
			log.Printf("[ERROR] Initial sync %s: %v", entry.Name(), err)
		}
	}
	return nil
}
