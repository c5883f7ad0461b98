package metrics

// TokenUsage captures provider token counts reported for an embedding call.
type TokenUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.TotalTokens == 0
}

// Add returns the sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens: u.PromptTokens + other.PromptTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}
