// Package artifact reads and writes the versioned on-disk catalog index:
// a JSON manifest, a JSON-lines entry file, a little-endian float32 vector
// matrix and, for the lexical strategy, the fitted vocabulary.
package artifact

import (
	"fmt"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/representer/lexical"
)

// FormatVersion is the only artifact layout this build understands.
const FormatVersion = 1

// File names inside an artifact directory.
const (
	ManifestFile       = "manifest.json"
	DefaultEntriesFile = "entries.jsonl"
	DefaultVectorsFile = "vectors.f32"
	DefaultLexicalFile = "lexical.json"
)

// Manifest describes an artifact and how to interpret its files.
type Manifest struct {
	FormatVersion   int          `json:"format_version"`
	CreatedAt       string       `json:"created_at"`
	Strategy        faq.Strategy `json:"strategy"`
	ModelID         string       `json:"model_id,omitempty"`
	Dim             int          `json:"dim"`
	Count           int          `json:"count"`
	Normalize       bool         `json:"normalize"`
	EntriesFile     string       `json:"entries_file"`
	VectorsFile     string       `json:"vectors_file"`
	RepresenterFile string       `json:"representer_file,omitempty"`
	VectorsSHA256   string       `json:"vectors_sha256"`
}

// EntryRecord is one line of the entries file.
type EntryRecord struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// LexicalFile is the persisted lexical model.
type LexicalFile struct {
	lexical.State
	IncludeAnswers bool `json:"include_answers"`
}

// Artifact is a fully loaded catalog index.
type Artifact struct {
	Manifest Manifest
	Entries  []faq.Entry
	Vectors  [][]float32
	Lexical  *LexicalFile
}

// Catalog builds the matching catalog from the artifact.
func (a *Artifact) Catalog() (*faq.Catalog, error) {
	return faq.NewCatalog(a.Entries, a.Vectors)
}

// Validate checks the artifact is internally consistent.
func (a *Artifact) Validate() error {
	m := a.Manifest
	if !m.Strategy.Valid() {
		return corrupt("unknown strategy %q", m.Strategy)
	}
	if m.Dim <= 0 {
		return corrupt("invalid dim %d", m.Dim)
	}
	if len(a.Entries) == 0 {
		return corrupt("catalog has no entries")
	}
	if m.Count != len(a.Entries) {
		return corrupt("manifest count %d but %d entries", m.Count, len(a.Entries))
	}
	if len(a.Vectors) != len(a.Entries) {
		return corrupt("%d vectors for %d entries", len(a.Vectors), len(a.Entries))
	}
	for i, vec := range a.Vectors {
		if len(vec) != m.Dim {
			return corrupt("vector %d has dim %d, manifest says %d", i, len(vec), m.Dim)
		}
	}
	for i, e := range a.Entries {
		if faq.IsBlank(e.Question) || faq.IsBlank(e.Answer) {
			return corrupt("entry %d has an empty question or answer", i)
		}
	}
	switch m.Strategy {
	case faq.StrategyLexical:
		if a.Lexical == nil {
			return corrupt("lexical artifact without vocabulary")
		}
		if len(a.Lexical.Vocabulary) != m.Dim {
			return corrupt("vocabulary has %d terms, manifest dim %d", len(a.Lexical.Vocabulary), m.Dim)
		}
	case faq.StrategyDense:
		if a.Lexical != nil {
			return corrupt("dense artifact carries a lexical vocabulary")
		}
	}
	return nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", faq.ErrIndexCorrupt, fmt.Sprintf(format, args...))
}

func missing(format string, args ...any) error {
	return fmt.Errorf("%w: %s", faq.ErrArtifactMissing, fmt.Sprintf(format, args...))
}
