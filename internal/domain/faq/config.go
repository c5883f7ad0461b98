package faq

import (
	"errors"
	"fmt"
)

// Default response texts, taken over from the original service.
const (
	DefaultApologyMessage    = "Sorry, I couldn't understand your question. Please rephrase or contact support."
	DefaultPromptMessage     = "Let me make sure I understood your question correctly."
	DefaultClarificationText = "Did you mean one of these?"
	DefaultUnreadyMessage    = "Knowledge base not ready. Please build the index first."
)

// MatchConfig holds the confidence policy applied by Match.
type MatchConfig struct {
	Threshold         float64
	Policy            ClarifyPolicy
	SuggestionCount   int
	ApologyMessage    string
	PromptMessage     string
	ClarificationText string
	UnreadyMessage    string
}

// Validate ensures the policy can be applied.
func (c MatchConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", c.Threshold)
	}
	switch c.Policy {
	case ClarifyApology:
	case ClarifySuggest:
		if c.SuggestionCount <= 0 {
			return errors.New("suggestionCount must be positive for the suggest policy")
		}
	default:
		return fmt.Errorf("unknown clarify policy %q", c.Policy)
	}
	return nil
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.ApologyMessage == "" {
		c.ApologyMessage = DefaultApologyMessage
	}
	if c.PromptMessage == "" {
		c.PromptMessage = DefaultPromptMessage
	}
	if c.ClarificationText == "" {
		c.ClarificationText = DefaultClarificationText
	}
	if c.UnreadyMessage == "" {
		c.UnreadyMessage = DefaultUnreadyMessage
	}
	return c
}

// Config holds runtime knobs for the FAQ service.
type Config struct {
	// Policies maps each representation strategy to its calibrated policy.
	Policies      map[Strategy]MatchConfig
	TrendingLimit int
}

// Policy returns the match configuration for a strategy.
func (c Config) Policy(strategy Strategy) (MatchConfig, bool) {
	cfg, ok := c.Policies[strategy]
	if !ok {
		return MatchConfig{}, false
	}
	return cfg.withDefaults(), true
}
