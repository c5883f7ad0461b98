// Package dense implements the learned sentence-embedding representation
// strategy on top of pluggable embedding providers.
package dense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Embedder turns texts into raw embedding vectors, one per input in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID identifies the model so artifacts built with one model are
	// never served with another.
	ModelID() string
}

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderCompat = "openai-compatible"
	ProviderHash   = "hash"
)

// ProviderConfig selects and configures an embedding provider.
type ProviderConfig struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Dim       int
	BatchSize int
}

// NewEmbedder constructs the embedder named by cfg.Provider.
func NewEmbedder(cfg ProviderConfig, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.BatchSize)
	case ProviderCompat:
		return NewCompatEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.BatchSize)
	case ProviderHash, "":
		return NewHashEmbedder(cfg.Dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
