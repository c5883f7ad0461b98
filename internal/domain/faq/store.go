package faq

import (
	"context"
	"time"
)

// Store defines the persistence contract for FAQ usage statistics.
type Store interface {
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}

// VectorCache memoizes query representations for expensive representers.
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, bool, error)
	SaveVector(ctx context.Context, key string, vector []float32, ttl time.Duration) error
}
