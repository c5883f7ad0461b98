package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/faq-matcher/internal/infra/config"
	"github.com/yanqian/faq-matcher/pkg/logger"
)

// cliEnv carries what every subcommand needs once flags are parsed.
type cliEnv struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func (e *cliEnv) load() error {
	if e.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", e.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg
	e.logger = logger.NewCLI(e.verbose)
	return nil
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	root := &cobra.Command{
		Use:          "faqctl",
		Short:        "Build and operate FAQ matcher catalogs",
		SilenceUsage: true,
		Long: `faqctl turns a faqs.json file into a versioned catalog artifact,
inspects and queries artifacts offline, publishes them to object storage
and mints admin tokens for the reload endpoint.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return env.load()
		},
	}
	root.PersistentFlags().StringVar(&env.configPath, "config", "", "path to config.yaml (defaults to CONFIG_PATH or configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCmd(env),
		newInspectCmd(env),
		newAskCmd(env),
		newPublishCmd(env),
		newTokenCmd(env),
	)
	return root
}
