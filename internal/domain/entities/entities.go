// Package entities contains core business entities.
// These are pure domain objects shared by the backend and the chat client,
// with no knowledge of storage, transport or rendering.
package entities

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document represents an uploaded source document (PDF, DOCX, TXT, MD).
// The filename doubles as the document ID: re-uploading a name replaces it.
type Document struct {
	ID        string
	Name      string
	Path      string // empty for documents received over HTTP
	Content   string
	CreatedAt time.Time
}

// Chunk represents a piece of a document for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Filename   string
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk     Chunk
	Score     float64 // Similarity score
	SourceDoc string  // Filename for citation
}

// DocumentInfo is the listing projection of a stored document.
type DocumentInfo struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	ContentPreview string `json:"content_preview"`
}

// ChatRequest is a question sent to the assistant.
type ChatRequest struct {
	Message string `json:"message"`
	UseRAG  bool   `json:"use_rag"`
}

// ChatResponse is the assistant's answer with cited filenames.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// UploadResult describes a processed upload.
type UploadResult struct {
	Message       string `json:"message"`
	ChunksCreated int    `json:"chunks_created"`
	Filename      string `json:"filename"`
}

// Message is one entry of the chat transcript kept by the client.
// Messages are never mutated after creation.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Sources   []string
	CreatedAt time.Time
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// HasSources reports whether the message carries citations.
func (m Message) HasSources() bool {
	return len(m.Sources) > 0
}
