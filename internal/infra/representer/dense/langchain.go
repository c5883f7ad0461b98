package dense

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
	defaultBatchSize   = 64
)

// LangchainEmbedder embeds through a langchaingo embeddings client.
type LangchainEmbedder struct {
	embedder embeddings.Embedder
	modelID  string
}

// NewOllamaEmbedder embeds with a local Ollama server.
func NewOllamaEmbedder(baseURL, model string, batchSize int) (*LangchainEmbedder, error) {
	baseURL = orDefault(baseURL, defaultOllamaURL)
	model = orDefault(model, defaultOllamaModel)
	llm, err := ollama.New(ollama.WithServerURL(baseURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return newLangchainEmbedder(llm, "ollama/"+model, batchSize)
}

// NewCompatEmbedder embeds with any OpenAI-compatible server such as a local
// inference gateway. Servers without authentication accept any token.
func NewCompatEmbedder(baseURL, apiKey, model string, batchSize int) (*LangchainEmbedder, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%s provider requires a base url", ProviderCompat)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%s provider requires a model", ProviderCompat)
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(orDefault(apiKey, "none")),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai-compatible client: %w", err)
	}
	return newLangchainEmbedder(client, model, batchSize)
}

func newLangchainEmbedder(client embeddings.EmbedderClient, modelID string, batchSize int) (*LangchainEmbedder, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}
	return &LangchainEmbedder{embedder: embedder, modelID: modelID}, nil
}

// ModelID returns the provider-qualified model name.
func (e *LangchainEmbedder) ModelID() string { return e.modelID }

// Embed requests embeddings for texts.
func (e *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result count mismatch: expected %d got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

var _ Embedder = (*LangchainEmbedder)(nil)
