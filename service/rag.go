package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	chunkSize    = 500
	chunkOverlap = 50
	topK         = 4
)

// embedder is the slice of langchaingo's embedder the RAG service uses.
type embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// answerer produces the final grounded answer; satisfied by LLMService.
type answerer interface {
	Answer(ctx context.Context, question string, contexts []string) (string, error)
}

// RAGService chunks contract text, embeds it, stores the vectors in
// Astra, and answers questions grounded in the most similar chunks.
type RAGService struct {
	embedder embedder
	store    *AstraService
	llm      answerer
	splitter textsplitter.RecursiveCharacter
}

// RAGAnswer is one chatbot reply plus the chunks it was grounded in.
type RAGAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func NewRAGService(cfg *config.EmbeddingsConfig, store *AstraService, llm *LLMService) (*RAGService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embeddings API key not configured", ErrValidation)
	}
	client, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &RAGService{
		embedder: emb,
		store:    store,
		llm:      llm,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// IndexContract replaces the stored chunks for a contract with chunks
// of its current text. Called after registration and every revision.
func (s *RAGService) IndexContract(ctx context.Context, rec model.ContractRecord) error {
	parts, err := s.splitter.SplitText(rec.RawText)
	if err != nil {
		return fmt.Errorf("failed to split contract text: %w", err)
	}
	if len(parts) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, parts)
	if err != nil {
		return fmt.Errorf("%w: embedding failed: %v", ErrExternalService, err)
	}
	if len(vectors) != len(parts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", ErrExternalService, len(vectors), len(parts))
	}

	if err := s.store.DeleteChunks(ctx, rec.ID); err != nil {
		return err
	}

	chunks := make([]Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = Chunk{
			ID:         fmt.Sprintf("%s-v%d-%d", rec.ID, rec.Version, i),
			ContractID: rec.ID,
			Tenant:     rec.Tenant,
			Text:       text,
			Vector:     vectors[i],
		}
	}
	if err := s.store.InsertChunks(ctx, chunks); err != nil {
		return err
	}

	slog.Info("contract indexed", "contract_id", rec.ID, "chunks", len(chunks))
	return nil
}

// Ask answers a question using the tenant's most similar stored chunks.
func (s *RAGService) Ask(ctx context.Context, tenant, question string) (RAGAnswer, error) {
	if question == "" {
		return RAGAnswer{}, fmt.Errorf("%w: empty question", ErrValidation)
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return RAGAnswer{}, fmt.Errorf("%w: query embedding failed: %v", ErrExternalService, err)
	}

	chunks, err := s.store.QuerySimilar(ctx, queryVec, tenant, topK)
	if err != nil {
		return RAGAnswer{}, err
	}
	if len(chunks) == 0 {
		return RAGAnswer{Answer: "No contract content has been indexed yet."}, nil
	}

	contexts := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Text
		sources[i] = c.ContractID
	}

	answer, err := s.llm.Answer(ctx, question, contexts)
	if err != nil {
		return RAGAnswer{}, err
	}
	return RAGAnswer{Answer: answer, Sources: sources}, nil
}
