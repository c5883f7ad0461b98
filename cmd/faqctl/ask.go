package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
	"github.com/yanqian/faq-matcher/internal/infra/catalogload"
	"github.com/yanqian/faq-matcher/internal/infra/representer/dense"
)

func newAskCmd(env *cliEnv) *cobra.Command {
	var (
		dir string
		top int
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Match a question against an artifact offline",
		Long: `Load the artifact, apply the configured policy for its strategy and
print the outcome together with the top ranked catalog entries.

Example:
  faqctl ask "how can I reset my password"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if faq.IsBlank(question) {
				return errors.New("empty message")
			}
			opts := []catalogload.Option{catalogload.WithLogger(env.logger)}
			if embedder, err := dense.NewEmbedder(providerConfig(env), env.logger); err == nil {
				opts = append(opts, catalogload.WithEmbedder(embedder))
			}
			dir = firstNonEmpty(dir, env.cfg.FAQ.ArtifactDir)
			loader := catalogload.New(catalogload.FromSource(artifact.DirSource{Dir: dir}), opts...)

			ctx := cmd.Context()
			snap, err := loader.Load(ctx)
			if err != nil {
				return err
			}
			policies := faq.Config{Policies: env.cfg.FAQ.MatchPolicies()}
			policy, ok := policies.Policy(snap.Representer().Strategy())
			if !ok {
				return fmt.Errorf("no policy configured for strategy %s", snap.Representer().Strategy())
			}
			query, err := snap.Representer().Represent(ctx, question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := faq.Match(query, snap.Catalog(), policy)
			switch result.Kind {
			case faq.KindAnswered:
				fmt.Fprintf(out, "answered (score %.4f, entry %d: %q)\n%s\n", result.Score, result.SourceID, result.SourceQuestion, result.Answer)
			default:
				fmt.Fprintf(out, "%s (score %.4f, threshold %.2f)\n%s\n", result.Kind, result.Score, policy.Threshold, result.Message)
				if result.Clarification != "" {
					fmt.Fprintln(out, result.Clarification)
				}
				for _, s := range result.Suggestions {
					fmt.Fprintf(out, "  - %s\n", s)
				}
			}

			if top > 0 {
				fmt.Fprintln(out, "\nranking:")
				for i, scored := range faq.Rank(query, snap.Catalog()) {
					if i == top {
						break
					}
					entry, _ := snap.Catalog().Entry(scored.ID)
					fmt.Fprintf(out, "  %2d. %.4f  [%d] %s\n", i+1, scored.Score, scored.ID, entry.Question)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "artifact directory (defaults to faq.artifactDir)")
	cmd.Flags().IntVarP(&top, "top", "k", 3, "number of ranked entries to print")
	return cmd
}
