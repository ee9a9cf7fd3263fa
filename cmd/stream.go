package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"postr/internal/social"
)

var (
	streamTarget string
	streamOut    string
)

func newStreamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream <keyword>...",
		Short: "Append live posts matching keywords to a file",
		Long: "stream follows the platform's live firehose for the given keywords " +
			"and appends the text of every matching post to the output file. " +
			"Entries are concatenated as-is. Stop with ctrl-c.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			account, err := buildAccount(ctx, streamTarget, cfg)
			if err != nil {
				return err
			}

			path := streamOut
			if path == "" {
				path = cfg.StreamFile
			}
			sink, err := social.NewFileSink(path)
			if err != nil {
				return err
			}
			defer sink.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "streaming %s posts matching %v into %s\n", account.Name(), args, path)

			err = account.Stream(ctx, args, sink.Handle)
			if errors.Is(err, context.Canceled) {
				logger.Infof("stream stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&streamTarget, "target", "twitter", "Platform to stream from")
	cmd.Flags().StringVar(&streamOut, "out", "", "Destination file (default from config)")

	return cmd
}
