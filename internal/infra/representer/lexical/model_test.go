package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

var sampleCatalog = []faq.Entry{
	{Question: "What is the refund policy?", Answer: "Refunds within 30 days."},
	{Question: "How do I reset my password?", Answer: "Use the forgot-password link."},
}

func documents(entries []faq.Entry, withAnswers bool) []string {
	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Question
		if withAnswers {
			docs[i] += " " + e.Answer
		}
	}
	return docs
}

func buildCatalog(t *testing.T, entries []faq.Entry, withAnswers bool) (*faq.Catalog, *Model) {
	t.Helper()
	docs := documents(entries, withAnswers)
	model, err := Fit(docs, DefaultOptions())
	require.NoError(t, err)
	catalog, err := faq.NewCatalog(entries, model.TransformAll(docs))
	require.NoError(t, err)
	return catalog, model
}

func TestLexicalEndToEndExample(t *testing.T) {
	catalog, model := buildCatalog(t, sampleCatalog, true)
	rep := NewRepresenter(model)
	cfg := faq.MatchConfig{Threshold: 0.45, Policy: faq.ClarifySuggest, SuggestionCount: 3}

	query, err := rep.Represent(context.Background(), "how can I reset my password")
	require.NoError(t, err)
	result := faq.Match(query, catalog, cfg)
	require.Equal(t, faq.KindAnswered, result.Kind)
	require.Equal(t, 1, result.SourceID)
	require.Equal(t, "How do I reset my password?", result.SourceQuestion)
	require.Greater(t, result.Score, 0.45)

	query, err = rep.Represent(context.Background(), "what time is it")
	require.NoError(t, err)
	result = faq.Match(query, catalog, cfg)
	require.Equal(t, faq.KindClarify, result.Kind)
	require.Equal(t, []string{"What is the refund policy?", "How do I reset my password?"}, result.Suggestions)
	require.Less(t, result.Score, 0.45)
}

func TestLexicalSelfMatch(t *testing.T) {
	entries := []faq.Entry{
		{Question: "What is the refund policy?", Answer: "Refunds within 30 days."},
		{Question: "How do I reset my password?", Answer: "Use the forgot-password link."},
		{Question: "Where can I download my invoice?", Answer: "Invoices live under Billing."},
		{Question: "How long does shipping take?", Answer: "Three to five business days."},
	}
	catalog, model := buildCatalog(t, entries, false)
	rep := NewRepresenter(model)
	cfg := faq.MatchConfig{Threshold: 0.45, Policy: faq.ClarifyApology}

	for i, e := range entries {
		query, err := rep.Represent(context.Background(), e.Question)
		require.NoError(t, err)
		result := faq.Match(query, catalog, cfg)
		require.Equal(t, faq.KindAnswered, result.Kind, e.Question)
		require.Equal(t, i, result.SourceID)
		require.GreaterOrEqual(t, result.Score, 0.99)
	}
}

func TestTransformIsUnitLengthAndDeterministic(t *testing.T) {
	_, model := buildCatalog(t, sampleCatalog, true)

	first := model.Transform("refund policy for password resets")
	second := model.Transform("refund policy for password resets")
	require.Equal(t, first, second)
	require.Len(t, first, model.Dim())
	require.InDelta(t, 1.0, faq.Cosine(first, first), 1e-6)

	var norm float64
	for _, x := range faq.NormalizeL2(first) {
		norm += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, norm, 1e-5)
}

func TestTransformUnknownTermsYieldZeroVector(t *testing.T) {
	_, model := buildCatalog(t, sampleCatalog, true)
	vec := model.Transform("zebra xylophone")
	for _, x := range vec {
		require.Zero(t, x)
	}
}

func TestFromStateReproducesModel(t *testing.T) {
	_, model := buildCatalog(t, sampleCatalog, true)
	restored, err := FromState(model.State())
	require.NoError(t, err)
	require.Equal(t, model.Dim(), restored.Dim())
	require.Equal(t, model.Transform("reset my password"), restored.Transform("reset my password"))
}

func TestFromStateRejectsInconsistentState(t *testing.T) {
	_, err := FromState(State{})
	require.ErrorIs(t, err, faq.ErrIndexCorrupt)

	_, err = FromState(State{Vocabulary: []string{"a", "b"}, IDF: []float64{1}})
	require.ErrorIs(t, err, faq.ErrIndexCorrupt)

	_, err = FromState(State{Analyzer: "no-such-analyzer", Vocabulary: []string{"a"}, IDF: []float64{1}})
	require.ErrorIs(t, err, faq.ErrIndexCorrupt)
}

func TestFitPrunesTermsAboveMaxDF(t *testing.T) {
	_, err := Fit([]string{"refund policy"}, DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	model, err := Fit([]string{"shared refund", "shared password"}, Options{Analyzer: AnalyzerStandard, NgramMax: 1, MaxDF: 0.85})
	require.NoError(t, err)
	require.Equal(t, []string{"password", "refund"}, model.State().Vocabulary)
}

func TestTokenizerBuildsBigrams(t *testing.T) {
	tok, err := newTokenizer(AnalyzerStandard, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"reset", "password", "reset password"}, tok.terms("Reset password"))
}
