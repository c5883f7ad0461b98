package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/faq-matcher/internal/infra/admintoken"
)

func newTokenCmd(env *cliEnv) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the reload endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := admintoken.NewManager(env.cfg.Admin.Secret, env.cfg.Admin.Issuer, env.cfg.Admin.TokenTTL)
			if err != nil {
				return err
			}
			token, err := manager.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to admin.tokenTtl)")
	return cmd
}
