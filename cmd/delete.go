package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteTarget string

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Long: "delete removes a post you own. The identifier is whatever the post " +
			"command reported: a status ID on Twitter or Mastodon, an at:// URI on Bluesky.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := setup()
			if err != nil {
				return err
			}

			account, err := buildAccount(ctx, deleteTarget, cfg)
			if err != nil {
				return err
			}

			if err := account.RemovePost(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s post %s\n", account.Name(), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&deleteTarget, "target", "twitter", "Platform holding the post")

	return cmd
}
