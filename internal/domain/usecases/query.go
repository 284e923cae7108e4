// Package usecases - query.go handles retrieval and answer generation.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
)

const defaultTopK = 3

// NoDocumentsReply is returned when no document has been uploaded yet.
const NoDocumentsReply = "⚠️ No documents uploaded yet. Please upload some documents first to enable RAG search!"

// QueryUseCase handles search and response generation.
type QueryUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	llm         ports.LLMService
	topK        int
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	llm ports.LLMService,
	topK int,
) *QueryUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &QueryUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
		llm:         llm,
		topK:        topK,
	}
}

// Chat answers a question, retrieving document context when requested
// and available. LLM failures degrade into fallback replies; only storage
// and embedding failures are returned as errors.
func (uc *QueryUseCase) Chat(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	found, err := uc.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	if found.reply != "" {
		return &entities.ChatResponse{Response: found.reply, Sources: []string{}}, nil
	}

	answer := uc.answer(ctx, req.Message, found.docContext)
	return &entities.ChatResponse{Response: answer, Sources: found.sources}, nil
}

// ChatStream is the token-streaming variant of Chat. Sources are known
// before generation starts and are returned alongside the token channel.
func (uc *QueryUseCase) ChatStream(ctx context.Context, req entities.ChatRequest) ([]string, <-chan ports.StreamToken, error) {
	found, err := uc.retrieve(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if found.reply != "" {
		return []string{}, singleToken(found.reply), nil
	}

	tokens, err := uc.llm.GenerateStream(ctx, buildPrompt(req.Message, found.docContext))
	if err != nil {
		return found.sources, singleToken(fallbackReply(err, req.Message, found.docContext)), nil
	}
	return found.sources, tokens, nil
}

type retrieval struct {
	docContext string
	sources    []string
	reply      string // canned reply that short-circuits generation
}

func (uc *QueryUseCase) retrieve(ctx context.Context, req entities.ChatRequest) (retrieval, error) {
	count, err := uc.vectorStore.Count(ctx)
	if err != nil {
		return retrieval{}, fmt.Errorf("counting chunks: %w", err)
	}
	if count == 0 {
		return retrieval{reply: NoDocumentsReply}, nil
	}
	if !req.UseRAG {
		return retrieval{sources: []string{}}, nil
	}

	queryEmbedding, err := uc.embedder.Embed(ctx, req.Message)
	if err != nil {
		return retrieval{}, fmt.Errorf("embedding query: %w", err)
	}

	results, err := uc.vectorStore.Search(ctx, queryEmbedding, uc.topK)
	if err != nil {
		return retrieval{}, fmt.Errorf("searching vectors: %w", err)
	}

	return retrieval{
		docContext: buildContext(results),
		sources:    uniqueSources(results),
	}, nil
}

// answer queries the LLM and falls back to a canned reply on failure.
func (uc *QueryUseCase) answer(ctx context.Context, question, docContext string) string {
	answer, err := uc.llm.Generate(ctx, buildPrompt(question, docContext))
	if err != nil {
		return fallbackReply(err, question, docContext)
	}
	return answer
}

// buildContext numbers retrieved chunks as "Document i: ..." blocks.
func buildContext(results []entities.QueryResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "Document %d: %s\n\n", i+1, r.Chunk.Content)
	}
	return sb.String()
}

// uniqueSources lists result filenames in rank order without duplicates.
func uniqueSources(results []entities.QueryResult) []string {
	sources := []string{}
	seen := make(map[string]bool)
	for _, r := range results {
		name := r.SourceDoc
		if name == "" {
			name = "Unknown"
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}

// buildPrompt creates the LLM prompt. Without context the question is sent as is.
func buildPrompt(question, docContext string) string {
	if docContext == "" {
		return question
	}
	var sb strings.Builder
	sb.WriteString("Context: ")
	sb.WriteString(docContext)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease answer the question based on the provided context. ")
	sb.WriteString("If the context doesn't contain relevant information, say so.")
	return sb.String()
}

// fallbackReply turns an LLM failure into a reply that still surfaces
// whatever context retrieval found.
func fallbackReply(err error, question, docContext string) string {
	switch {
	case errors.Is(err, ports.ErrLLMStatus):
		if docContext != "" {
			return fmt.Sprintf("Based on the retrieved documents:\n\n%s\n\nThis information is related to your question: '%s'", docContext, question)
		}
		return "Sorry, I couldn't generate a response. Ollama service is not available, but you can still upload documents and search through them."
	case errors.Is(err, ports.ErrLLMUnreachable):
		if docContext != "" {
			return fmt.Sprintf("🔍 **Retrieved Information:**\n\n%s\n\n💡 **Note:** This is the relevant content found in your documents for the question: '%s'. Ollama LLM is not available, but the document search is working!", docContext, question)
		}
		return "⚠️ **Ollama not available** - You can still upload and search documents! The vector search will find relevant information even without the LLM."
	default:
		if docContext != "" {
			return fmt.Sprintf("📚 **Found in documents:**\n\n%s\n\n(Note: LLM unavailable, showing raw search results)", docContext)
		}
		return "Error: " + err.Error()
	}
}

func singleToken(content string) <-chan ports.StreamToken {
	ch := make(chan ports.StreamToken, 1)
	ch <- ports.StreamToken{Content: content, Done: true}
	close(ch)
	return ch
}
