package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/indexbuild"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
	"github.com/yanqian/faq-matcher/internal/infra/faqrepo"
	"github.com/yanqian/faq-matcher/internal/infra/representer/dense"
	"github.com/yanqian/faq-matcher/internal/infra/representer/lexical"
)

type buildFlags struct {
	input      string
	out        string
	strategy   string
	answers    bool
	workers    int
	postgres   bool
	noProgress bool
}

func newBuildCmd(env *cliEnv) *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a catalog artifact from a faqs.json file",
		Long: `Read [{question, answer}] entries, represent them with the chosen
strategy and write the artifact directory. With --postgres the catalog is
also stored in the configured Postgres database.

Example:
  faqctl build --input data/faqs.json --out data/index
  faqctl build --strategy dense --postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, env, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "faqs.json path (defaults to faq.faqsFile)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "artifact directory (defaults to faq.artifactDir)")
	cmd.Flags().StringVarP(&flags.strategy, "strategy", "s", string(faq.StrategyLexical), "representation strategy: lexical or dense")
	cmd.Flags().BoolVar(&flags.answers, "answers", false, "append answers to lexical documents")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "concurrent embedding batches for dense builds")
	cmd.Flags().BoolVar(&flags.postgres, "postgres", false, "also store the catalog in Postgres")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func runBuild(cmd *cobra.Command, env *cliEnv, flags *buildFlags) error {
	cfg := env.cfg
	input := firstNonEmpty(flags.input, cfg.FAQ.FAQsFile)
	out := firstNonEmpty(flags.out, cfg.FAQ.ArtifactDir)
	strategy := faq.Strategy(flags.strategy)
	if !strategy.Valid() {
		return fmt.Errorf("unknown strategy %q", flags.strategy)
	}
	answers := flags.answers
	if !cmd.Flags().Changed("answers") {
		answers = cfg.FAQ.Lexical.IncludeAnswers
	}

	entries, err := indexbuild.ReadEntriesFile(input)
	if err != nil {
		return err
	}

	opts := indexbuild.Options{
		Strategy: strategy,
		Lexical: lexical.Options{
			Analyzer: cfg.FAQ.Lexical.Analyzer,
			NgramMax: cfg.FAQ.Lexical.NgramMax,
			MaxDF:    cfg.FAQ.Lexical.MaxDF,
		},
		IncludeAnswers: answers,
		BatchSize:      cfg.LLM.BatchSize,
		Workers:        flags.workers,
		Logger:         env.logger,
	}
	if strategy == faq.StrategyDense {
		embedder, err := dense.NewEmbedder(providerConfig(env), env.logger)
		if err != nil {
			return err
		}
		opts.Embedder = embedder
		if !flags.noProgress && stderrIsTerminal() {
			opts.Progress = indexbuild.NewBarProgress(cmd.ErrOrStderr())
		}
	}

	ctx := cmd.Context()
	art, err := indexbuild.Build(ctx, entries, opts)
	if err != nil {
		return err
	}
	if err := artifact.Write(ctx, out, art); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries (%s, dim %d) to %s\n", art.Manifest.Count, art.Manifest.Strategy, art.Manifest.Dim, out)

	if flags.postgres {
		if err := storeInPostgres(ctx, env, art); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "stored catalog in postgres")
	}
	return nil
}

func storeInPostgres(ctx context.Context, env *cliEnv, art *artifact.Artifact) error {
	if env.cfg.FAQ.Postgres.DSN == "" {
		return fmt.Errorf("faq.postgres.dsn is not configured")
	}
	pool, err := pgxpool.New(ctx, env.cfg.FAQ.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	repo := faqrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.ReplaceCatalog(ctx, art)
}

func providerConfig(env *cliEnv) dense.ProviderConfig {
	llm := env.cfg.LLM
	return dense.ProviderConfig{
		Provider:  llm.Provider,
		Model:     llm.EmbeddingModel,
		BaseURL:   llm.BaseURL,
		APIKey:    llm.APIKey,
		Dim:       llm.Dim,
		BatchSize: llm.BatchSize,
	}
}

func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
