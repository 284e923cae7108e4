// Package http provides the HTTP server infrastructure.
// It is the outermost layer: handlers translate requests into use case
// calls and use case errors into status codes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
	"github.com/0xcro3dile/lightrag-go/internal/domain/usecases"
)

const (
	detailUnsupported = "Unsupported file type. Please upload PDF, DOCX, or TXT files."
	detailEmpty       = "No text content found in the document."
	detailNoFile      = "No file provided. Send the document in the 'file' form field."
	detailBadChat     = "Invalid request body. Expected {\"message\": string, \"use_rag\": bool}."
	defaultMaxUpload  = 32 << 20
)

// ChatService answers chat questions.
type ChatService interface {
	Chat(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
	ChatStream(ctx context.Context, req entities.ChatRequest) ([]string, <-chan ports.StreamToken, error)
}

// UploadService ingests uploaded files.
type UploadService interface {
	Upload(ctx context.Context, filename string, data []byte) (*entities.UploadResult, error)
}

// DocumentService lists and clears stored documents.
type DocumentService interface {
	List(ctx context.Context) ([]entities.DocumentInfo, error)
	Clear(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration // per-request deadline; must cover LLM generation
	MaxUploadBytes int64
}

// Server is the HTTP server for the RAG API.
type Server struct {
	chat    ChatService
	uploads UploadService
	docs    DocumentService
	opts    Options
	router  chi.Router
}

// NewServer creates a new HTTP server.
func NewServer(chat ChatService, uploads UploadService, docs DocumentService, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}

	s := &Server{
		chat:    chat,
		uploads: uploads,
		docs:    docs,
		opts:    opts,
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/chat", s.handleChat)
	r.Post("/chat/stream", s.handleChatStream)
	r.Get("/documents", s.handleListDocuments)
	r.Delete("/documents", s.handleClearDocuments)

	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.opts.Addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// Streaming answers stay open for as long as generation takes.
		WriteTimeout: s.opts.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("[INFO] Light RAG server starting on %s", s.opts.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Graceful shutdown failed: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Light RAG API is running!"})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large. The limit is %d MB.", s.opts.MaxUploadBytes>>20))
			return
		}
		respondError(w, http.StatusBadRequest, detailNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Error reading upload: "+err.Error())
		return
	}

	result, err := s.uploads.Upload(r.Context(), header.Filename, data)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case errors.Is(err, usecases.ErrUnsupportedFileType):
		respondError(w, http.StatusBadRequest, detailUnsupported)
	case errors.Is(err, usecases.ErrEmptyDocument):
		respondError(w, http.StatusBadRequest, detailEmpty)
	case errors.Is(err, ports.ErrUnreadableDocument):
		log.Printf("[WARN] Unreadable upload %s: %v", header.Filename, err)
		respondError(w, http.StatusBadRequest, "Error reading document: "+err.Error())
	default:
		log.Printf("[ERROR] Processing %s: %v", header.Filename, err)
		respondError(w, http.StatusInternalServerError, "Error processing document: "+err.Error())
	}
}

// chatPayload distinguishes an absent use_rag (defaults to true) from false.
type chatPayload struct {
	Message *string `json:"message"`
	UseRAG  *bool   `json:"use_rag"`
}

func decodeChatRequest(r *http.Request) (entities.ChatRequest, bool) {
	var p chatPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Message == nil {
		return entities.ChatRequest{}, false
	}
	req := entities.ChatRequest{Message: *p.Message, UseRAG: true}
	if p.UseRAG != nil {
		req.UseRAG = *p.UseRAG
	}
	return req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, detailBadChat)
		return
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		log.Printf("[ERROR] Chat: %v", err)
		respondError(w, http.StatusInternalServerError, "Error generating response: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleChatStream answers over Server-Sent Events. The first event carries
// the sources; each following event carries a token.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, detailBadChat)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sources, tokens, err := s.chat.ChatStream(r.Context(), req)
	if err != nil {
		log.Printf("[ERROR] Chat stream: %v", err)
		respondError(w, http.StatusInternalServerError, "Error generating response: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sendSSE(w, flusher, map[string]interface{}{"sources": sources})

	for token := range tokens {
		if token.Error != nil {
			sendSSE(w, flusher, map[string]interface{}{"error": token.Error.Error(), "done": true})
			return
		}
		sendSSE(w, flusher, map[string]interface{}{"content": token.Content, "done": token.Done})
		if token.Done {
			return
		}
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] Listing documents: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving documents: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleClearDocuments(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Clear(r.Context()); err != nil {
		log.Printf("[ERROR] Clearing documents: %v", err)
		respondError(w, http.StatusInternalServerError, "Error clearing documents: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "All documents cleared successfully"})
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data map[string]interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// respondJSON writes a JSON response with the given status code and payload.
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[WARN] Encoding JSON response: %v", err)
	}
}

// respondError writes {"detail": message}.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"detail": message})
}
