package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"postr/internal/social"
)

var (
	profileTarget string
	profileName   string
	profileBio    string
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Long: "profile prints the authenticated identity on a platform. With --name " +
			"or --bio it updates those fields first; an empty value clears the field.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			account, err := buildAccount(ctx, profileTarget, cfg)
			if err != nil {
				return err
			}

			var up social.ProfileUpdate
			if cmd.Flags().Changed("name") {
				up.DisplayName = &profileName
			}
			if cmd.Flags().Changed("bio") {
				up.Bio = &profileBio
			}
			if up.DisplayName != nil || up.Bio != nil {
				if err := account.UpdateProfile(ctx, up); err != nil {
					return err
				}
				logger.Infof("%s profile updated", account.Name())
			}

			profile, err := account.Profile(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s profile:\n", account.Name())
			fmt.Fprintf(out, "  %-10s %s\n", "id:", profile.ID)
			fmt.Fprintf(out, "  %-10s %s\n", "username:", profile.Username)
			fmt.Fprintf(out, "  %-10s %s\n", "bio:", profile.Bio)
			fmt.Fprintf(out, "  %-10s %s\n", "followers:", formatSigned(profile.Followers))
			return nil
		},
	}

	cmd.Flags().StringVar(&profileTarget, "target", "twitter", "Platform to show or update")
	cmd.Flags().StringVar(&profileName, "name", "", "New display name")
	cmd.Flags().StringVar(&profileBio, "bio", "", "New bio text")

	return cmd
}
