package faq

import "sort"

// Scored pairs a catalog position with its raw cosine similarity.
type Scored struct {
	ID    int
	Score float64
}

// Rank scores every catalog entry against query, ordered by descending score
// with ties broken by ascending catalog position.
func Rank(query []float32, catalog *Catalog) []Scored {
	vectors := catalog.Vectors()
	ranked := make([]Scored, len(vectors))
	for i, vec := range vectors {
		ranked[i] = Scored{ID: i, Score: Cosine(query, vec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].ID < ranked[j].ID
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Match applies the confidence policy to the best scoring catalog entry.
// A nil catalog yields KindUnready without scoring.
func Match(query []float32, catalog *Catalog, cfg MatchConfig) MatchResult {
	cfg = cfg.withDefaults()
	if catalog.Size() == 0 {
		return MatchResult{Kind: KindUnready, Message: cfg.UnreadyMessage}
	}

	bestIdx, bestScore := 0, 0.0
	for i, vec := range catalog.Vectors() {
		sim := Cosine(query, vec)
		// strict comparison keeps the lowest index on ties
		if i == 0 || sim > bestScore {
			bestIdx, bestScore = i, sim
		}
	}
	score := clampScore(bestScore)

	if score >= cfg.Threshold {
		entry, _ := catalog.Entry(bestIdx)
		return MatchResult{
			Kind:           KindAnswered,
			Answer:         entry.Answer,
			Score:          score,
			SourceID:       bestIdx,
			SourceQuestion: entry.Question,
		}
	}

	if cfg.Policy != ClarifySuggest {
		return MatchResult{Kind: KindClarify, Message: cfg.ApologyMessage, Suggestions: []string{}, Score: score}
	}
	return MatchResult{
		Kind:          KindClarify,
		Message:       cfg.PromptMessage,
		Clarification: cfg.ClarificationText,
		Suggestions:   suggestions(Rank(query, catalog), catalog, cfg.SuggestionCount),
		Score:         score,
	}
}

func suggestions(ranked []Scored, catalog *Catalog, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, s := range ranked {
		if len(out) == limit {
			break
		}
		entry, _ := catalog.Entry(s.ID)
		if _, dup := seen[entry.Question]; dup {
			continue
		}
		seen[entry.Question] = struct{}{}
		out = append(out, entry.Question)
	}
	return out
}
