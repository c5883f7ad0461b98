package dense

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

const defaultHashDim = 256

// HashEmbedder avoids network calls by hashing word unigrams and bigrams into
// a fixed number of signed buckets. Texts sharing words land close together,
// which is enough for local development and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder constructs the embedder.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDim
	}
	return &HashEmbedder{dim: dim}
}

// ModelID reports the bucket count, which fully determines the model.
func (e *HashEmbedder) ModelID() string {
	return fmt.Sprintf("hash-%d", e.dim)
}

// Embed converts each text into a feature-hashed vector.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		words := strings.Fields(faq.NormalizeQuestion(text))
		for j, word := range words {
			e.add(vector, word)
			if j > 0 {
				e.add(vector, words[j-1]+" "+word)
			}
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (e *HashEmbedder) add(vector []float32, feature string) {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(feature))
	seed := hash.Sum64()
	bucket := seed % uint64(e.dim)
	// scramble once more so the sign is independent of the bucket
	seed = seed*1099511628211 + 1469598103934665603
	if seed>>63 == 1 {
		vector[bucket]--
		return
	}
	vector[bucket]++
}

var _ Embedder = (*HashEmbedder)(nil)
