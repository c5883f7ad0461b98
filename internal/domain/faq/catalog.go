package faq

import "fmt"

// Catalog is the ordered FAQ index: entries paired with same-order vectors.
// A Catalog is immutable once built and safe for concurrent readers.
type Catalog struct {
	entries []Entry
	vectors [][]float32
	dim     int
}

// NewCatalog validates and copies entries and vectors into a Catalog.
// Mismatched counts or dimensions yield an error wrapping ErrIndexCorrupt.
func NewCatalog(entries []Entry, vectors [][]float32) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: catalog has no entries", ErrIndexCorrupt)
	}
	if len(entries) != len(vectors) {
		return nil, fmt.Errorf("%w: %d entries but %d vectors", ErrIndexCorrupt, len(entries), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrIndexCorrupt)
	}
	copiedVectors := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrIndexCorrupt, i, len(vec), dim)
		}
		copiedVectors[i] = append([]float32(nil), vec...)
	}
	return &Catalog{
		entries: append([]Entry(nil), entries...),
		vectors: copiedVectors,
		dim:     dim,
	}, nil
}

// Size returns the number of entries.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Dim returns the shared vector dimensionality.
func (c *Catalog) Dim() int {
	if c == nil {
		return 0
	}
	return c.dim
}

// Entry returns the entry at position i.
func (c *Catalog) Entry(i int) (Entry, bool) {
	if c == nil || i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Vectors exposes the catalog vectors in entry order. Callers must not modify them.
func (c *Catalog) Vectors() [][]float32 {
	if c == nil {
		return nil
	}
	return c.vectors
}

// Items lists id and question for every entry, preserving catalog order.
func (c *Catalog) Items() []CatalogItem {
	if c == nil {
		return nil
	}
	items := make([]CatalogItem, len(c.entries))
	for i, e := range c.entries {
		items[i] = CatalogItem{ID: i, Question: e.Question}
	}
	return items
}
