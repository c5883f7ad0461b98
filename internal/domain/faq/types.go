package faq

import "time"

// Strategy names a representation strategy.
type Strategy string

const (
	// StrategyLexical is sparse TF-IDF weighting over the catalog vocabulary.
	StrategyLexical Strategy = "lexical"
	// StrategyDense is a learned sentence-level encoding.
	StrategyDense Strategy = "dense"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyLexical || s == StrategyDense
}

// ClarifyPolicy selects the response used when no entry is confident enough.
type ClarifyPolicy string

const (
	// ClarifyApology returns a fixed apology message with no suggestions.
	ClarifyApology ClarifyPolicy = "apology"
	// ClarifySuggest returns the top ranked catalog questions.
	ClarifySuggest ClarifyPolicy = "suggest"
)

// ResultKind tags a MatchResult.
type ResultKind string

const (
	KindAnswered   ResultKind = "answered"
	KindClarify    ResultKind = "clarify"
	KindUnready    ResultKind = "unready"
	KindEmptyInput ResultKind = "empty_input"
)

// Entry is a single question/answer pair of the catalog.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CatalogItem is the public view of an entry; it never carries the answer.
type CatalogItem struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
}

// MatchResult is the outcome of a single ask. Only the fields relevant to
// Kind are populated.
type MatchResult struct {
	Kind ResultKind

	// answered
	Answer         string
	SourceID       int
	SourceQuestion string

	// clarify and unready
	Message       string
	Clarification string
	Suggestions   []string

	Score float64
}

// Answered reports whether the result carries a direct answer.
func (r MatchResult) Answered() bool { return r.Kind == KindAnswered }

// AskRequest is the user question as received from the transport.
type AskRequest struct {
	Message string `json:"msg"`
}

// TrendingQuery represents a frequently answered catalog question.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// SnapshotInfo describes where a loaded snapshot came from.
type SnapshotInfo struct {
	Version  int       `json:"version"`
	Strategy Strategy  `json:"strategy"`
	ModelID  string    `json:"modelId,omitempty"`
	Source   string    `json:"source"`
	BuiltAt  time.Time `json:"builtAt"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Status reports service readiness.
type Status struct {
	Ready   bool          `json:"ready"`
	Entries int           `json:"entries"`
	Dim     int           `json:"dim"`
	Info    *SnapshotInfo `json:"snapshot,omitempty"`
}
