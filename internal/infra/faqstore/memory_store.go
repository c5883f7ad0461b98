package faqstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

type vectorRecord struct {
	vector    []float32
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the FAQ store for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	vectors  map[string]vectorRecord
	trending map[string]int64
	displays map[string]string
	now      func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vectors:  make(map[string]vectorRecord),
		trending: make(map[string]int64),
		displays: make(map[string]string),
		now:      time.Now,
	}
}

// GetVector implements faq.VectorCache.
func (s *MemoryStore) GetVector(_ context.Context, key string) ([]float32, bool, error) {
	s.mu.RLock()
	record, ok := s.vectors[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.vectors, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	out := make([]float32, len(record.vector))
	copy(out, record.vector)
	return out, true, nil
}

// SaveVector caches the vector with optional TTL.
func (s *MemoryStore) SaveVector(_ context.Context, key string, vector []float32, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	stored := make([]float32, len(vector))
	copy(stored, vector)
	s.vectors[key] = vectorRecord{vector: stored, expiresAt: exp}
	return nil
}

// IncrementQuery bumps the counter for a canonical query and records a display string.
func (s *MemoryStore) IncrementQuery(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, exists := s.displays[canonical]; !exists {
		s.displays[canonical] = display
	}
	return nil
}

// TopQueries returns the most frequent canonical questions.
func (s *MemoryStore) TopQueries(_ context.Context, limit int) ([]faq.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.trending)
	}
	items := make([]faq.TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		items = append(items, faq.TrendingQuery{Query: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var (
	_ faq.Store       = (*MemoryStore)(nil)
	_ faq.VectorCache = (*MemoryStore)(nil)
)
