// Package session holds the chat interface state: the transcript, the
// document list, the upload status line and the RAG toggle. It talks to
// the backend only through ports.Backend and never blocks on the network
// while holding its lock, so a UI event loop can read it at any time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const (
	// WelcomeID is the ID of the seeded assistant greeting.
	WelcomeID = "1"

	// WelcomeText greets the user before any interaction.
	WelcomeText = "Hello! I'm your Light RAG assistant. Upload some documents and I'll help you find information from them. You can also chat with me directly without documents."

	// StatusUploading is shown while an upload is in flight. It does not expire.
	StatusUploading = "Uploading..."

	chatFailedDetail   = "Failed to get response. Make sure the backend is running and Ollama is available."
	uploadFailedDetail = "Upload failed"

	successStatusTTL = 3 * time.Second
	errorStatusTTL   = 5 * time.Second
	clearStatusTTL   = 3 * time.Second
)

// ErrBusy is returned by Send while another chat request is pending.
var ErrBusy = errors.New("a chat request is already pending")

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Session is the chat interface state container. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	backend ports.Backend
	now     func() time.Time

	messages  []entities.Message
	documents []entities.DocumentInfo
	useRAG    bool
	busy      bool

	status        string
	statusExpires time.Time // zero means the status stays until replaced

	selectedFile string
	lastID       int64
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, mainly for tests of status expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session seeded with the welcome message and RAG enabled.
func New(backend ports.Backend, opts ...Option) *Session {
	s := &Session{
		backend:   backend,
		now:       time.Now,
		useRAG:    true,
		documents: []entities.DocumentInfo{},
		lastID:    1, // reserved for the welcome message
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = []entities.Message{{
		ID:        WelcomeID,
		Role:      entities.RoleAssistant,
		Content:   WelcomeText,
		CreatedAt: s.now(),
	}}
	return s
}

// Begin starts a chat exchange. It appends the user's message and marks the
// session busy, returning the request to send. It returns false, changing
// nothing, for blank input or while another exchange is pending.
func (s *Session) Begin(text string) (entities.ChatRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" || s.busy {
		return entities.ChatRequest{}, false
	}

	s.appendLocked(entities.RoleUser, text, nil)
	s.busy = true
	return entities.ChatRequest{Message: text, UseRAG: s.useRAG}, true
}

// Complete finishes the pending exchange with the backend's answer or
// error and clears the busy flag. Calls without a pending exchange are ignored.
func (s *Session) Complete(resp *entities.ChatResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.busy {
		return
	}
	s.busy = false

	if err != nil {
		s.appendLocked(entities.RoleAssistant, "Error: "+detailOr(err, chatFailedDetail), nil)
		return
	}
	if resp == nil {
		s.appendLocked(entities.RoleAssistant, "Error: "+chatFailedDetail, nil)
		return
	}
	s.appendLocked(entities.RoleAssistant, resp.Response, resp.Sources)
}

// Send runs a whole exchange synchronously.
func (s *Session) Send(ctx context.Context, text string) error {
	req, ok := s.Begin(text)
	if !ok {
		if strings.TrimSpace(text) == "" {
			return ErrEmptyMessage
		}
		return ErrBusy
	}
	resp, err := s.backend.Chat(ctx, req)
	s.Complete(resp, err)
	return err
}

// SelectFile records the file chosen for upload.
func (s *Session) SelectFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedFile = path
}

// Upload sends the file at path to the backend. On success the status shows
// the backend's message, the selection is reset and the document list is
// fetched once. Failures only set the status line.
func (s *Session) Upload(ctx context.Context, path string) error {
	s.mu.Lock()
	s.selectedFile = path
	s.setStatusLocked(StatusUploading, 0)
	s.mu.Unlock()

	result, err := s.upload(ctx, path)
	if err != nil {
		log.Printf("[WARN] Upload of %s failed: %v", path, err)
		s.mu.Lock()
		s.setStatusLocked("❌ Error: "+uploadErrorDetail(err), errorStatusTTL)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.setStatusLocked("✅ "+result.Message, successStatusTTL)
	s.selectedFile = ""
	s.mu.Unlock()

	// The status already reports success; a failed refresh is logged only.
	s.RefreshDocuments(ctx)
	return nil
}

func (s *Session) upload(ctx context.Context, path string) (*entities.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.backend.Upload(ctx, filepath.Base(path), f)
}

// RefreshDocuments replaces the document list with the backend's.
// On failure the list is left unchanged.
func (s *Session) RefreshDocuments(ctx context.Context) error {
	docs, err := s.backend.ListDocuments(ctx)
	if err != nil {
		log.Printf("[WARN] Error fetching documents: %v", err)
		return err
	}
	if docs == nil {
		docs = []entities.DocumentInfo{}
	}

	s.mu.Lock()
	s.documents = docs
	s.mu.Unlock()
	return nil
}

// ClearDocuments deletes every document on the backend and empties the
// local list.
func (s *Session) ClearDocuments(ctx context.Context) error {
	if err := s.backend.ClearDocuments(ctx); err != nil {
		log.Printf("[WARN] Error clearing documents: %v", err)
		s.mu.Lock()
		s.setStatusLocked("❌ Error clearing documents", clearStatusTTL)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.documents = []entities.DocumentInfo{}
	s.setStatusLocked("✅ All documents cleared", clearStatusTTL)
	s.mu.Unlock()
	return nil
}

// SetUseRAG turns retrieval on or off for subsequent messages.
func (s *Session) SetUseRAG(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useRAG = on
}

// ToggleRAG flips the retrieval flag and returns the new value.
func (s *Session) ToggleRAG() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useRAG = !s.useRAG
	return s.useRAG
}

// UseRAG reports the retrieval flag.
func (s *Session) UseRAG() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useRAG
}

// Messages returns a copy of the transcript in chronological order.
func (s *Session) Messages() []entities.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Documents returns a copy of the current document list.
func (s *Session) Documents() []entities.DocumentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.DocumentInfo, len(s.documents))
	copy(out, s.documents)
	return out
}

// UploadStatus returns the status line, or "" once it has expired.
func (s *Session) UploadStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.statusExpires.IsZero() && !s.now().Before(s.statusExpires) {
		return ""
	}
	return s.status
}

// StatusExpiry reports when the visible status disappears. ok is false when
// there is no visible status or it never expires.
func (s *Session) StatusExpiry() (at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == "" || s.statusExpires.IsZero() || !s.now().Before(s.statusExpires) {
		return time.Time{}, false
	}
	return s.statusExpires, true
}

// Busy reports whether a chat exchange is pending. Sending is disabled while true.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// RAGActive reports whether answers will draw on documents: retrieval is on
// and at least one document is listed.
func (s *Session) RAGActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useRAG && len(s.documents) > 0
}

// SelectedFile returns the file chosen for upload, or "" after a successful upload.
func (s *Session) SelectedFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedFile
}

func (s *Session) appendLocked(role entities.Role, content string, sources []string) {
	now := s.now()
	s.messages = append(s.messages, entities.Message{
		ID:        s.nextIDLocked(now),
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: now,
	})
}

// nextIDLocked derives a millisecond-timestamp ID, bumped past the previous
// one so that IDs stay unique within a millisecond.
func (s *Session) nextIDLocked(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Session) setStatusLocked(text string, ttl time.Duration) {
	s.status = text
	if ttl <= 0 {
		s.statusExpires = time.Time{}
		return
	}
	s.statusExpires = s.now().Add(ttl)
}

// detailOr returns the backend's detail for API errors, or fallback.
func detailOr(err error, fallback string) string {
	var apiErr *ports.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// uploadErrorDetail also surfaces local file errors, which never reach the backend.
func uploadErrorDetail(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Sprintf("cannot open %s: %v", pathErr.Path, pathErr.Err)
	}
	return detailOr(err, uploadFailedDetail)
}
