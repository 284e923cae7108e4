// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

// DefaultExtensions are the document types picked up from a watched folder.
var DefaultExtensions = []string{".pdf", ".docx", ".txt", ".md"}

// DefaultDebounce is how long a path must stay quiet before its event is emitted.
const DefaultDebounce = 300 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify. Bursts of
// events for one path (an editor saving in several writes, a copy that
// creates then writes) are coalesced into a single event.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]struct{}
	debounce   time.Duration
}

// Option configures an FSNotifyWatcher.
type Option func(*FSNotifyWatcher)

// WithDebounce sets the quiet period before events are emitted.
func WithDebounce(d time.Duration) Option {
	return func(w *FSNotifyWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewFSNotifyWatcher creates a watcher for files with the given extensions.
func NewFSNotifyWatcher(extensions []string, opts ...Option) (*FSNotifyWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	w := &FSNotifyWatcher{
		watcher:    fw,
		extensions: make(map[string]struct{}, len(extensions)),
		debounce:   DefaultDebounce,
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring dir. The channel is closed when ctx is done or
// the watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)
	go w.loop(ctx, dir, events)
	return events, nil
}

func (w *FSNotifyWatcher) loop(ctx context.Context, dir string, events chan<- ports.FileEvent) {
	defer close(events)

	pending := make(map[string]ports.FileOperation)
	var order []string // first-seen order of pending paths

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			op, ok := w.classify(event)
			if !ok {
				continue
			}
			prev, seen := pending[event.Name]
			if !seen {
				order = append(order, event.Name)
			}
			pending[event.Name] = coalesce(prev, seen, op)
			quiet.Reset(w.debounce)

		case <-quiet.C:
			for _, path := range order {
				select {
				case events <- ports.FileEvent{Path: path, Operation: pending[path]}:
				case <-ctx.Done():
					return
				}
			}
			clear(pending)
			order = order[:0]

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] Watcher error on %s: %v", dir, err)
		}
	}
}

// classify maps an fsnotify event to a document operation, skipping
// unwatched extensions and editor lock files.
func (w *FSNotifyWatcher) classify(event fsnotify.Event) (ports.FileOperation, bool) {
	if !w.isWatched(event.Name) {
		return 0, false
	}
	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// A rename reports the old path; the new one arrives as a create.
		return ports.FileDeleted, true
	case event.Op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case event.Op.Has(fsnotify.Write):
		return ports.FileModified, true
	}
	return 0, false
}

// coalesce folds op into the operation already pending for a path.
func coalesce(prev ports.FileOperation, seen bool, op ports.FileOperation) ports.FileOperation {
	if !seen {
		return op
	}
	switch {
	case op == ports.FileDeleted:
		return ports.FileDeleted
	case prev == ports.FileCreated:
		return ports.FileCreated
	case prev == ports.FileDeleted:
		// Deleted then recreated: the content changed under the same name.
		return ports.FileModified
	}
	return op
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatched(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
