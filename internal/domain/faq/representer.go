package faq

import "context"

// Representer maps text into the vector space of a Catalog. Implementations
// must be safe for concurrent use and must normalize exactly like the
// vectors stored in the catalog they are paired with.
type Representer interface {
	Strategy() Strategy
	Dim() int
	Represent(ctx context.Context, text string) ([]float32, error)
}
