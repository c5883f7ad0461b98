package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/faq-matcher/internal/infra/artifact"
)

func newPublishCmd(env *cliEnv) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a validated artifact directory to object storage",
		Long: `Validate the local artifact and upload it to the configured S3/R2
bucket. Data files go first and the manifest last, so readers never see a
manifest that points at missing files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := env.cfg.FAQ.ObjectStorage
			store, err := artifact.NewObjectStore(artifact.ObjectConfig{
				Endpoint:  o.Endpoint,
				AccessKey: o.AccessKey,
				SecretKey: o.SecretKey,
				Bucket:    o.Bucket,
				Region:    o.Region,
				Prefix:    o.Prefix,
			}, env.logger)
			if err != nil {
				return err
			}
			dir = firstNonEmpty(dir, env.cfg.FAQ.ArtifactDir)
			m, err := artifact.Publish(cmd.Context(), artifact.DirSource{Dir: dir}, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d entries (%s) to %s\n", m.Count, m.Strategy, store)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "artifact directory (defaults to faq.artifactDir)")
	return cmd
}
