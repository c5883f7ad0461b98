package faqrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
)

// MemoryRepository keeps a published catalog in process memory for tests/dev.
type MemoryRepository struct {
	mu  sync.RWMutex
	art *artifact.Artifact
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// ReplaceCatalog stores a copy of art.
func (r *MemoryRepository) ReplaceCatalog(_ context.Context, art *artifact.Artifact) error {
	if err := art.Validate(); err != nil {
		return err
	}
	clone := cloneArtifact(art)
	r.mu.Lock()
	r.art = clone
	r.mu.Unlock()
	return nil
}

// LoadArtifact returns a copy of the stored catalog.
func (r *MemoryRepository) LoadArtifact(_ context.Context) (*artifact.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.art == nil {
		return nil, fmt.Errorf("%w: no catalog stored in memory", faq.ErrArtifactMissing)
	}
	return cloneArtifact(r.art), nil
}

func (r *MemoryRepository) String() string { return "memory" }

func cloneArtifact(art *artifact.Artifact) *artifact.Artifact {
	out := &artifact.Artifact{
		Manifest: art.Manifest,
		Entries:  append([]faq.Entry(nil), art.Entries...),
		Vectors:  make([][]float32, len(art.Vectors)),
	}
	for i, vec := range art.Vectors {
		out.Vectors[i] = append([]float32(nil), vec...)
	}
	if art.Lexical != nil {
		lex := *art.Lexical
		lex.Vocabulary = append([]string(nil), lex.Vocabulary...)
		lex.IDF = append([]float64(nil), lex.IDF...)
		out.Lexical = &lex
	}
	return out
}
