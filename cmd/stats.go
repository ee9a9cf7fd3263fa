package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"postr/internal/social"
)

var statsTargets []string

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show engagement numbers for your accounts",
		Long: "stats prints a small dashboard per platform: follower count, " +
			"lifetime likes where the platform reports them, and the engagement " +
			"on your newest post.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			resolved, err := normalizeTargets(pickTargets(statsTargets, cfg))
			if err != nil {
				return err
			}

			accounts, err := buildAccounts(ctx, resolved, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, account := range accounts {
				if i > 0 {
					fmt.Fprintln(out)
				}

				profile, err := account.Profile(ctx)
				if err != nil {
					logger.Errorf("%s profile: %v", account.Name(), err)
					fmt.Fprintf(out, "%s: unavailable\n", account.Name())
					continue
				}

				fmt.Fprintf(out, "%s (@%s)\n", account.Name(), profile.Username)
				fmt.Fprintf(out, "  %-17s %s\n", "followers:", formatSigned(profile.Followers))

				likes, err := account.TotalLikes(ctx)
				fmt.Fprintf(out, "  %-17s %s\n", "total likes:", formatMetric(likes, err, logger, account.Name()))

				favs, err := account.LatestFavorites(ctx)
				fmt.Fprintf(out, "  %-17s %s\n", "latest favorites:", formatMetric(favs, err, logger, account.Name()))

				reposts, err := account.LatestReposts(ctx)
				fmt.Fprintf(out, "  %-17s %s\n", "latest reposts:", formatMetric(reposts, err, logger, account.Name()))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statsTargets, "target", nil, "Platforms to report on (default from config)")

	return cmd
}

// formatSigned renders -1 sentinels as n/a.
func formatSigned(n int) string {
	if n < 0 {
		return "n/a"
	}
	return strconv.Itoa(n)
}

// formatMetric folds a metric lookup into a printable cell. Missing posts
// read as such; other failures are logged and shown as errors so one bad
// metric never kills the dashboard.
func formatMetric(n int, err error, logger *log.Logger, provider string) string {
	if err != nil {
		if social.IsKind(err, social.KindNotFound) {
			return "no posts yet"
		}
		logger.Errorf("%s: %v", provider, err)
		return "error"
	}
	return formatSigned(n)
}
