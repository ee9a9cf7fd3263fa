package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var followersTarget string

func newFollowersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followers [handle]",
		Short: "List the followers of an account",
		Long: "followers prints follower handles one per line, in the order the " +
			"platform yields them. Without a handle it lists your own followers. " +
			"Large accounts take a while: the walk pauses after every hundred entries.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			account, err := buildAccount(ctx, followersTarget, cfg)
			if err != nil {
				return err
			}

			handle := ""
			if len(args) == 1 {
				handle = args[0]
			}

			logger.Debugf("listing followers: target=%s handle=%q", account.Name(), handle)
			followers, err := account.Followers(ctx, handle)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range followers {
				fmt.Fprintln(out, f)
			}
			logger.Infof("%d followers", len(followers))
			return nil
		},
	}

	cmd.Flags().StringVar(&followersTarget, "target", "twitter", "Platform to query")

	return cmd
}
