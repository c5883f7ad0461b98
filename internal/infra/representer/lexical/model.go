// Package lexical implements the sparse TF-IDF representation strategy.
//
// A Model is fitted once over the catalog documents at build time. Its
// vocabulary and inverse document frequencies are persisted alongside the
// catalog so that queries are transformed into exactly the same space:
// raw term counts over 1..NgramMax grams, smooth idf, L2 normalization.
package lexical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// Options controls how a Model is fitted.
type Options struct {
	Analyzer string
	NgramMax int
	// MaxDF drops terms present in more than this proportion of documents.
	MaxDF float64
}

// DefaultOptions mirrors the weighting the catalog has always been built with.
func DefaultOptions() Options {
	return Options{Analyzer: AnalyzerEnglish, NgramMax: 2, MaxDF: 0.85}
}

// State is the persisted form of a fitted Model.
type State struct {
	Analyzer   string    `json:"analyzer"`
	NgramMax   int       `json:"ngram_max"`
	MaxDF      float64   `json:"max_df"`
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`
}

// Model maps text onto a fixed TF-IDF vocabulary. It is immutable and safe
// for concurrent use.
type Model struct {
	state  State
	terms  map[string]int
	tokens *tokenizer
}

// ErrEmptyVocabulary is returned when pruning leaves no terms.
var ErrEmptyVocabulary = errors.New("lexical vocabulary is empty after pruning")

// Fit learns vocabulary and idf weights from docs.
func Fit(docs []string, opts Options) (*Model, error) {
	if len(docs) == 0 {
		return nil, errors.New("lexical fit requires at least one document")
	}
	if opts.MaxDF <= 0 || opts.MaxDF > 1 {
		opts.MaxDF = 1
	}
	tok, err := newTokenizer(opts.Analyzer, opts.NgramMax)
	if err != nil {
		return nil, err
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range tok.terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(docs))
	maxCount := opts.MaxDF * n
	vocabulary := make([]string, 0, len(df))
	for term, count := range df {
		if float64(count) > maxCount {
			continue
		}
		vocabulary = append(vocabulary, term)
	}
	if len(vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	sort.Strings(vocabulary)

	idf := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return newModel(State{
		Analyzer:   tok.name,
		NgramMax:   tok.ngramMax,
		MaxDF:      opts.MaxDF,
		Vocabulary: vocabulary,
		IDF:        idf,
	}, tok), nil
}

// FromState restores a persisted Model, rejecting inconsistent state.
func FromState(state State) (*Model, error) {
	if len(state.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: lexical state has no vocabulary", faq.ErrIndexCorrupt)
	}
	if len(state.Vocabulary) != len(state.IDF) {
		return nil, fmt.Errorf("%w: lexical state has %d terms but %d idf weights", faq.ErrIndexCorrupt, len(state.Vocabulary), len(state.IDF))
	}
	tok, err := newTokenizer(state.Analyzer, state.NgramMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faq.ErrIndexCorrupt, err)
	}
	return newModel(state, tok), nil
}

func newModel(state State, tok *tokenizer) *Model {
	terms := make(map[string]int, len(state.Vocabulary))
	for i, term := range state.Vocabulary {
		terms[term] = i
	}
	return &Model{state: state, terms: terms, tokens: tok}
}

// Dim returns the vocabulary size.
func (m *Model) Dim() int { return len(m.state.Vocabulary) }

// State returns the persistable model state.
func (m *Model) State() State { return m.state }

// Transform converts text into a unit-length TF-IDF vector. Text made only
// of unknown terms yields the zero vector.
func (m *Model) Transform(text string) []float32 {
	counts := make(map[int]float64)
	for _, term := range m.tokens.terms(text) {
		if col, ok := m.terms[term]; ok {
			counts[col]++
		}
	}
	cols := make([]int, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	// fixed summation order keeps the norm bit-identical across calls
	sort.Ints(cols)

	weights := make([]float64, len(cols))
	var sum float64
	for i, col := range cols {
		w := counts[col] * m.state.IDF[col]
		weights[i] = w
		sum += w * w
	}
	vec := make([]float32, len(m.state.Vocabulary))
	if sum == 0 {
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	for i, col := range cols {
		vec[col] = float32(weights[i] * inv)
	}
	return vec
}

// TransformAll converts docs in order.
func (m *Model) TransformAll(docs []string) [][]float32 {
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		out[i] = m.Transform(doc)
	}
	return out
}

// Representer adapts a Model to faq.Representer.
type Representer struct {
	model *Model
}

// NewRepresenter wraps model.
func NewRepresenter(model *Model) *Representer {
	return &Representer{model: model}
}

func (r *Representer) Strategy() faq.Strategy { return faq.StrategyLexical }

func (r *Representer) Dim() int { return r.model.Dim() }

func (r *Representer) Represent(_ context.Context, text string) ([]float32, error) {
	return r.model.Transform(text), nil
}

var _ faq.Representer = (*Representer)(nil)
