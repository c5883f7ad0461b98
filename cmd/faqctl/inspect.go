package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanqian/faq-matcher/internal/infra/artifact"
)

func newInspectCmd(env *cliEnv) *cobra.Command {
	var (
		dir     string
		entries bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Validate an artifact directory and print its manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir = firstNonEmpty(dir, env.cfg.FAQ.ArtifactDir)
			art, err := artifact.Load(cmd.Context(), artifact.DirSource{Dir: dir})
			if err != nil {
				return err
			}
			m := art.Manifest
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "source\t%s\n", dir)
			fmt.Fprintf(w, "format\tv%d\n", m.FormatVersion)
			fmt.Fprintf(w, "created\t%s\n", m.CreatedAt)
			fmt.Fprintf(w, "strategy\t%s\n", m.Strategy)
			fmt.Fprintf(w, "model\t%s\n", m.ModelID)
			fmt.Fprintf(w, "entries\t%d\n", m.Count)
			fmt.Fprintf(w, "dim\t%d\n", m.Dim)
			fmt.Fprintf(w, "sha256\t%s\n", m.VectorsSHA256)
			if art.Lexical != nil {
				fmt.Fprintf(w, "analyzer\t%s (ngrams 1..%d, max_df %.2f, answers %t)\n", art.Lexical.Analyzer, art.Lexical.NgramMax, art.Lexical.MaxDF, art.Lexical.IncludeAnswers)
			}
			if entries {
				fmt.Fprintln(w)
				for i, e := range art.Entries {
					fmt.Fprintf(w, "%d\t%s\n", i, e.Question)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "artifact directory (defaults to faq.artifactDir)")
	cmd.Flags().BoolVar(&entries, "entries", false, "list catalog questions")
	return cmd
}
