package dense

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/faq-matcher/internal/infra/llm/chatgpt"
	"github.com/yanqian/faq-matcher/pkg/metrics"
)

const (
	defaultOpenAIModel = "text-embedding-3-small"
	// stay well below the provider's 300k cap per request
	maxBatchTokens = 200_000
)

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *chatgpt.Client
	model  string
	logger *slog.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewOpenAIEmbedder constructs an embedder backed by the ChatGPT client.
func NewOpenAIEmbedder(apiKey, baseURL, model string, logger *slog.Logger) (*OpenAIEmbedder, error) {
	client, err := chatgpt.NewClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIEmbedder{
		client: client,
		model:  model,
		logger: logger.With("component", "representer.dense.openai"),
	}, nil
}

// ModelID returns the embedding model name.
func (e *OpenAIEmbedder) ModelID() string { return e.model }

// Embed requests embeddings for texts, batching by token count.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         = make([][]float32, 0, len(texts))
		batch       []string
		batchTokens int
		usage       metrics.TokenUsage
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model: e.model,
			Input: batch,
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return fmt.Errorf("embedding result count mismatch: expected %d got %d", len(batch), len(resp.Data))
		}
		usage = usage.Add(resp.Usage)
		sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			copy(vec, item.Embedding)
			out = append(out, vec)
		}
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := e.countTokens(text)
		if tokens > maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: tokens=%d", tokens)
		}
		if batchTokens+tokens > maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if !usage.IsZero() {
		e.logger.Debug("embedding usage", "texts", len(texts), "prompt_tokens", usage.PromptTokens, "total_tokens", usage.TotalTokens)
	}
	return out, nil
}

func (e *OpenAIEmbedder) countTokens(text string) int {
	e.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(e.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			e.logger.Warn("tokenizer unavailable, estimating token counts", "error", err)
			return
		}
		e.enc = enc
	})
	if e.enc == nil {
		return estimateTokens(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}

// estimateTokens provides a rough, upper-biased token count.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	// assume ~1 token per 2 runes and never below word count
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}

var _ Embedder = (*OpenAIEmbedder)(nil)
