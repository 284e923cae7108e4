package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

type mockBackend struct {
	mu sync.Mutex

	docs     []entities.DocumentInfo
	listErr  error
	listCall int

	uploadResult *entities.UploadResult
	uploadErr    error
	uploaded     map[string]string

	chatResp  *entities.ChatResponse
	chatErr   error
	chatCalls []entities.ChatRequest
	chatGate  chan struct{} // when set, Chat blocks until closed

	clearErr   error
	clearCalls int
}

func (m *mockBackend) ListDocuments(ctx context.Context) ([]entities.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCall++
	return m.docs, m.listErr
}

func (m *mockBackend) Upload(ctx context.Context, filename string, r io.Reader) (*entities.UploadResult, error) {
	data, _ := io.ReadAll(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploaded == nil {
		m.uploaded = make(map[string]string)
	}
	m.uploaded[filename] = string(data)
	return m.uploadResult, m.uploadErr
}

func (m *mockBackend) Chat(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	if m.chatGate != nil {
		<-m.chatGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls = append(m.chatCalls, req)
	return m.chatResp, m.chatErr
}

func (m *mockBackend) ClearDocuments(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	return m.clearErr
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_WelcomeMessageOnce(t *testing.T) {
	s := New(&mockBackend{})

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}
	if msgs[0].ID != WelcomeID || msgs[0].Role != entities.RoleAssistant || msgs[0].Content != WelcomeText {
		t.Errorf("unexpected welcome message: %+v", msgs[0])
	}
	if !s.UseRAG() || s.Busy() || s.UploadStatus() != "" || len(s.Documents()) != 0 {
		t.Error("unexpected initial state")
	}
}

func TestSend_AppendsUserThenAssistant(t *testing.T) {
	backend := &mockBackend{chatResp: &entities.ChatResponse{Response: "Paris", Sources: []string{"geo.txt"}}}
	s := New(backend)

	if err := s.Send(context.Background(), "Capital of France?"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if !msgs[1].IsUser() || msgs[1].Content != "Capital of France?" {
		t.Errorf("unexpected user message: %+v", msgs[1])
	}
	if msgs[2].Role != entities.RoleAssistant || msgs[2].Content != "Paris" || !msgs[2].HasSources() {
		t.Errorf("unexpected assistant message: %+v", msgs[2])
	}
	if len(backend.chatCalls) != 1 || !backend.chatCalls[0].UseRAG {
		t.Errorf("unexpected chat calls: %+v", backend.chatCalls)
	}
}

func TestSend_BlankInputIsIgnored(t *testing.T) {
	backend := &mockBackend{}
	s := New(backend)

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := s.Send(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("%q: expected ErrEmptyMessage, got %v", text, err)
		}
	}
	if len(backend.chatCalls) != 0 || len(s.Messages()) != 1 {
		t.Error("blank input must not call the backend or append")
	}
}

func TestBegin_UserMessageAppearsImmediately(t *testing.T) {
	s := New(&mockBackend{})

	req, ok := s.Begin("hello")
	if !ok || req.Message != "hello" {
		t.Fatalf("begin failed: %+v %v", req, ok)
	}
	msgs := s.Messages()
	if len(msgs) != 2 || !msgs[1].IsUser() {
		t.Errorf("user message should be appended before the reply: %+v", msgs)
	}
	if !s.Busy() {
		t.Error("session should be busy until completion")
	}
}

func TestBegin_DisabledWhileBusy(t *testing.T) {
	s := New(&mockBackend{})

	s.Begin("first")
	if _, ok := s.Begin("second"); ok {
		t.Error("second send should be rejected while busy")
	}
	if len(s.Messages()) != 2 {
		t.Errorf("rejected send must not append, got %d messages", len(s.Messages()))
	}

	s.Complete(&entities.ChatResponse{Response: "done"}, nil)
	if s.Busy() {
		t.Error("busy should clear after completion")
	}

	// A stray completion is ignored.
	s.Complete(&entities.ChatResponse{Response: "again"}, nil)
	if len(s.Messages()) != 3 {
		t.Errorf("completion without a pending exchange must not append, got %d", len(s.Messages()))
	}
}

func TestSend_ConcurrentSendRejected(t *testing.T) {
	gate := make(chan struct{})
	backend := &mockBackend{chatResp: &entities.ChatResponse{Response: "ok"}, chatGate: gate}
	s := New(backend)

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "slow") }()

	for !s.Busy() {
		time.Sleep(time.Millisecond)
	}
	if err := s.Send(context.Background(), "fast"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if s.Busy() {
		t.Error("busy should be cleared")
	}
	if len(s.Messages()) != 3 {
		t.Errorf("expected 3 messages, got %d", len(s.Messages()))
	}
}

func TestSend_ErrorBecomesAssistantMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api detail", &ports.APIError{StatusCode: 500, Detail: "Error generating response: boom"}, "Error: Error generating response: boom"},
		{"api without detail", &ports.APIError{StatusCode: 502}, "Error: " + chatFailedDetail},
		{"transport", errors.New("connection refused"), "Error: " + chatFailedDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&mockBackend{chatErr: tt.err})
			s.Send(context.Background(), "hi")

			msgs := s.Messages()
			if len(msgs) != 3 {
				t.Fatalf("expected user message kept plus error reply, got %d", len(msgs))
			}
			if msgs[2].Content != tt.want || msgs[2].Role != entities.RoleAssistant {
				t.Errorf("unexpected reply: %+v", msgs[2])
			}
			if s.Busy() {
				t.Error("busy should clear after failure")
			}
		})
	}
}

func TestSend_UsesRAGFlag(t *testing.T) {
	backend := &mockBackend{chatResp: &entities.ChatResponse{Response: "ok"}}
	s := New(backend)

	s.SetUseRAG(false)
	s.Send(context.Background(), "one")
	if s.ToggleRAG() != true {
		t.Error("toggle should turn RAG back on")
	}
	s.Send(context.Background(), "two")

	if backend.chatCalls[0].UseRAG || !backend.chatCalls[1].UseRAG {
		t.Errorf("use_rag not forwarded: %+v", backend.chatCalls)
	}
}

func TestMessageIDsUnique(t *testing.T) {
	clock := newClock()
	s := New(&mockBackend{chatResp: &entities.ChatResponse{Response: "ok"}}, WithClock(clock.now))

	for i := 0; i < 3; i++ {
		s.Send(context.Background(), "same millisecond")
	}

	seen := make(map[string]bool)
	for _, m := range s.Messages() {
		if seen[m.ID] {
			t.Fatalf("duplicate message ID %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestUpload_Success(t *testing.T) {
	clock := newClock()
	backend := &mockBackend{
		uploadResult: &entities.UploadResult{Message: "Successfully uploaded and processed notes.txt"},
		docs:         []entities.DocumentInfo{{ID: "notes.txt", Filename: "notes.txt"}},
	}
	s := New(backend, WithClock(clock.now))
	path := writeFile(t, "notes.txt", "hello")

	if err := s.Upload(context.Background(), path); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if backend.uploaded["notes.txt"] != "hello" {
		t.Errorf("file not sent under its base name: %v", backend.uploaded)
	}
	if backend.listCall != 1 {
		t.Errorf("expected exactly one document re-fetch, got %d", backend.listCall)
	}
	if len(s.Documents()) != 1 {
		t.Error("document list should be refreshed")
	}
	if s.SelectedFile() != "" {
		t.Error("selection should be reset after success")
	}
	if got := s.UploadStatus(); got != "✅ Successfully uploaded and processed notes.txt" {
		t.Errorf("unexpected status: %q", got)
	}

	clock.advance(2999 * time.Millisecond)
	if s.UploadStatus() == "" {
		t.Error("status should still show before 3s")
	}
	clock.advance(time.Millisecond)
	if s.UploadStatus() != "" {
		t.Error("status should clear after 3s")
	}
}

func TestUpload_Failure(t *testing.T) {
	clock := newClock()
	backend := &mockBackend{uploadErr: &ports.APIError{StatusCode: 400, Detail: "Unsupported file type. Please upload PDF, DOCX, or TXT files."}}
	s := New(backend, WithClock(clock.now))
	path := writeFile(t, "image.png", "png")

	if err := s.Upload(context.Background(), path); err == nil {
		t.Fatal("expected upload error")
	}

	if got := s.UploadStatus(); got != "❌ Error: Unsupported file type. Please upload PDF, DOCX, or TXT files." {
		t.Errorf("unexpected status: %q", got)
	}
	if backend.listCall != 0 {
		t.Error("failed upload must not re-fetch documents")
	}
	if s.SelectedFile() != path {
		t.Error("selection should be kept after failure")
	}

	clock.advance(4 * time.Second)
	if s.UploadStatus() == "" {
		t.Error("error status should last 5s")
	}
	clock.advance(time.Second)
	if s.UploadStatus() != "" {
		t.Error("error status should clear after 5s")
	}
}

func TestUpload_FailureWithoutDetail(t *testing.T) {
	s := New(&mockBackend{uploadErr: errors.New("connection refused")})
	s.Upload(context.Background(), writeFile(t, "a.txt", "x"))

	if got := s.UploadStatus(); got != "❌ Error: Upload failed" {
		t.Errorf("unexpected status: %q", got)
	}
}

func TestUpload_MissingLocalFile(t *testing.T) {
	backend := &mockBackend{}
	s := New(backend)

	s.Upload(context.Background(), "/nonexistent/report.pdf")

	if got := s.UploadStatus(); !strings.HasPrefix(got, "❌ Error: cannot open /nonexistent/report.pdf") {
		t.Errorf("unexpected status: %q", got)
	}
	if len(backend.uploaded) != 0 {
		t.Error("backend should not be called")
	}
}

func TestUpload_StatusWhileInFlight(t *testing.T) {
	s := New(&mockBackend{})
	s.mu.Lock()
	s.setStatusLocked(StatusUploading, 0)
	s.mu.Unlock()

	if s.UploadStatus() != StatusUploading {
		t.Error("uploading status should show")
	}
	if _, ok := s.StatusExpiry(); ok {
		t.Error("uploading status should not expire")
	}
}

func TestRefreshDocuments_FailureKeepsList(t *testing.T) {
	backend := &mockBackend{docs: []entities.DocumentInfo{{ID: "a"}}}
	s := New(backend)
	s.RefreshDocuments(context.Background())

	backend.listErr = errors.New("down")
	if err := s.RefreshDocuments(context.Background()); err == nil {
		t.Error("expected error")
	}
	if len(s.Documents()) != 1 {
		t.Error("list should be unchanged after a failed fetch")
	}
}

func TestClearDocuments(t *testing.T) {
	clock := newClock()
	backend := &mockBackend{docs: []entities.DocumentInfo{{ID: "a"}, {ID: "b"}}}
	s := New(backend, WithClock(clock.now))
	s.RefreshDocuments(context.Background())

	for i := 0; i < 2; i++ {
		if err := s.ClearDocuments(context.Background()); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if len(s.Documents()) != 0 {
			t.Error("documents should be empty after clear")
		}
		if s.UploadStatus() != "✅ All documents cleared" {
			t.Errorf("unexpected status: %q", s.UploadStatus())
		}
	}

	clock.advance(3 * time.Second)
	if s.UploadStatus() != "" {
		t.Error("clear status should expire after 3s")
	}
}

func TestClearDocuments_Failure(t *testing.T) {
	backend := &mockBackend{docs: []entities.DocumentInfo{{ID: "a"}}, clearErr: errors.New("down")}
	s := New(backend)
	s.RefreshDocuments(context.Background())

	s.ClearDocuments(context.Background())

	if s.UploadStatus() != "❌ Error clearing documents" {
		t.Errorf("unexpected status: %q", s.UploadStatus())
	}
	if len(s.Documents()) != 1 {
		t.Error("failed clear should keep the list")
	}
}

func TestRAGActive(t *testing.T) {
	backend := &mockBackend{}
	s := New(backend)

	if s.RAGActive() {
		t.Error("badge should be hidden without documents")
	}

	backend.docs = []entities.DocumentInfo{{ID: "a"}}
	s.RefreshDocuments(context.Background())
	if !s.RAGActive() {
		t.Error("badge should show with RAG on and documents listed")
	}

	s.SetUseRAG(false)
	if s.RAGActive() {
		t.Error("badge should be hidden with RAG off")
	}
}

func TestStatusExpiry_NewerStatusWins(t *testing.T) {
	clock := newClock()
	backend := &mockBackend{uploadErr: errors.New("x")}
	s := New(backend, WithClock(clock.now))

	s.Upload(context.Background(), writeFile(t, "a.txt", "x")) // 5s error status
	clock.advance(4 * time.Second)
	s.ClearDocuments(context.Background()) // 3s success status

	clock.advance(2 * time.Second)
	if s.UploadStatus() != "✅ All documents cleared" {
		t.Errorf("older expiry must not clear a newer status, got %q", s.UploadStatus())
	}
	at, ok := s.StatusExpiry()
	if !ok || !at.Equal(clock.t.Add(time.Second)) {
		t.Errorf("unexpected expiry: %v %v", at, ok)
	}
}
