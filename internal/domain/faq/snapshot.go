package faq

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Snapshot is the immutable matching context shared by all requests: a
// catalog, its paired representer and provenance.
type Snapshot struct {
	catalog     *Catalog
	representer Representer
	info        SnapshotInfo
}

// NewSnapshot pairs a catalog with a representer of the same dimensionality.
func NewSnapshot(catalog *Catalog, representer Representer, info SnapshotInfo) (*Snapshot, error) {
	if catalog == nil || representer == nil {
		return nil, fmt.Errorf("%w: snapshot requires catalog and representer", ErrIndexCorrupt)
	}
	if representer.Dim() != catalog.Dim() {
		return nil, fmt.Errorf("%w: representer dimension %d does not match catalog dimension %d", ErrIndexCorrupt, representer.Dim(), catalog.Dim())
	}
	if info.Strategy == "" {
		info.Strategy = representer.Strategy()
	}
	if info.Strategy != representer.Strategy() {
		return nil, fmt.Errorf("%w: artifact strategy %q served by %q representer", ErrIndexCorrupt, info.Strategy, representer.Strategy())
	}
	return &Snapshot{catalog: catalog, representer: representer, info: info}, nil
}

// Catalog returns the snapshot catalog.
func (s *Snapshot) Catalog() *Catalog { return s.catalog }

// Representer returns the paired representer.
func (s *Snapshot) Representer() Representer { return s.representer }

// Info returns snapshot provenance.
func (s *Snapshot) Info() SnapshotInfo { return s.info }

// Loader produces a fresh snapshot from the configured artifact source.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// SnapshotHolder publishes the current snapshot. Readers never lock; a
// reload replaces the pointer wholesale.
type SnapshotHolder struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotHolder returns a holder seeded with snap, which may be nil.
func NewSnapshotHolder(snap *Snapshot) *SnapshotHolder {
	h := &SnapshotHolder{}
	if snap != nil {
		h.current.Store(snap)
	}
	return h
}

// Current returns the published snapshot or nil when unready.
func (h *SnapshotHolder) Current() *Snapshot {
	if h == nil {
		return nil
	}
	return h.current.Load()
}

// Swap publishes snap and returns the previous snapshot.
func (h *SnapshotHolder) Swap(snap *Snapshot) *Snapshot {
	return h.current.Swap(snap)
}
