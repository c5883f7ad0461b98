package lexical

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
	"golang.org/x/text/unicode/norm"
)

// Supported analyzer names.
const (
	AnalyzerEnglish  = en.AnalyzerName
	AnalyzerStandard = standard.Name
)

// tokenizer turns text into the n-gram terms counted by the model.
type tokenizer struct {
	name     string
	analyzer analysis.Analyzer
	ngramMax int
}

func newTokenizer(name string, ngramMax int) (*tokenizer, error) {
	if name == "" {
		name = AnalyzerEnglish
	}
	if ngramMax <= 0 {
		ngramMax = 1
	}
	analyzer, err := registry.NewCache().AnalyzerNamed(name)
	if err != nil {
		return nil, fmt.Errorf("lookup analyzer %q: %w", name, err)
	}
	return &tokenizer{name: name, analyzer: analyzer, ngramMax: ngramMax}, nil
}

func (t *tokenizer) terms(text string) []string {
	stream := t.analyzer.Analyze([]byte(norm.NFKC.String(text)))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		tokens = append(tokens, string(tok.Term))
	}

	out := make([]string, 0, len(tokens)*t.ngramMax)
	for n := 1; n <= t.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
