/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"postr/internal/config"
	"postr/internal/logutil"
	"postr/internal/social"
	"postr/internal/social/bluesky"
	"postr/internal/social/mastodon"
	"postr/internal/social/twitter"
)

var (
	cfgFile     string
	verboseFlag bool

	messageFlag string
	mediaPath   string
	mediaAlt    string
	targetsFlag []string
	dryRun      bool
)

var supportedTargets = map[string]struct{}{
	"bluesky":  {},
	"mastodon": {},
	"twitter":  {},
}

// Execute runs the root command under a signal-aware context so long
// operations like streaming stop cleanly on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postr [message]",
		Short: "Post to your social accounts from one place",
		Long: "postr publishes the same update to Twitter/X, Mastodon, and Bluesky, " +
			"and drives the rest of an account's day: deleting posts, listing followers, " +
			"engagement stats, profile updates, and keyword streams. " +
			"Provide your message as an argument or with --message and optional --image.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
		Example: `  postr --message "hello world" --image ./shot.png
  postr "Ship it!" --target twitter --target mastodon
  echo "Release shipped" | postr --target all`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default postr.yml)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Enable debug logging")

	cmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Message text to post")
	cmd.Flags().StringVar(&mediaPath, "image", "", "Path to an image to attach")
	cmd.Flags().StringVar(&mediaAlt, "alt-text", "", "Alternative text to describe the image")
	cmd.Flags().StringSliceVar(&targetsFlag, "target", nil, "Targets to post to (twitter, mastodon, bluesky, or all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print actions without posting")
	cmd.Flags().SortFlags = false

	cmd.AddCommand(
		newComposeCommand(),
		newDeleteCommand(),
		newFollowersCommand(),
		newStatsCommand(),
		newProfileCommand(),
		newStreamCommand(),
		newCompletionCommand(),
	)

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	message, err := resolveMessage(cmd, args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	resolvedTargets, err := normalizeTargets(pickTargets(targetsFlag, cfg))
	if err != nil {
		return err
	}

	req := social.Request{
		Message:   message,
		MediaPath: mediaPath,
		MediaAlt:  strings.TrimSpace(mediaAlt),
	}
	if req.MediaAlt == "" && req.MediaPath != "" {
		req.MediaAlt = cfg.AltText
	}

	accounts, err := buildAccounts(ctx, resolvedTargets, cfg)
	if err != nil {
		return err
	}

	return dispatch(ctx, accounts, req, cmd.OutOrStdout(), dryRun, logger)
}

// setup loads the configuration and builds the CLI's own logger handle.
func setup() (config.Config, *log.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	logger, err := logutil.New("postr", logutil.Options{Verbose: cfg.Verbose, Dir: cfg.LogDir})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// pickTargets prefers explicit flags over the configured defaults.
func pickTargets(flagged []string, cfg config.Config) []string {
	if len(flagged) > 0 {
		return flagged
	}
	return cfg.Platforms
}

func resolveMessage(cmd *cobra.Command, args []string) (string, error) {
	var message string

	if messageFlag != "" {
		message = messageFlag
	}

	if len(args) > 0 {
		if message != "" {
			return "", errors.New("provide the message either as an argument or with --message, not both")
		}
		message = strings.Join(args, " ")
	}

	if message != "" {
		return strings.TrimSpace(message), nil
	}

	stdin := cmd.InOrStdin()
	if file, ok := stdin.(*os.File); ok {
		info, err := file.Stat()
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if (info.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("read stdin: %w", err)
			}
			message = strings.TrimSpace(string(data))
		}
	}

	if message == "" {
		return "", errors.New("message is required")
	}

	return message, nil
}

func normalizeTargets(values []string) ([]string, error) {
	if len(values) == 0 {
		return sortedTargets([]string{"twitter", "mastodon", "bluesky"}), nil
	}

	result := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		if raw == "all" {
			return sortedTargets([]string{"twitter", "mastodon", "bluesky"}), nil
		}
		if _, ok := supportedTargets[raw]; !ok {
			return nil, fmt.Errorf("unsupported target %q", raw)
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		result = append(result, raw)
	}

	if len(result) == 0 {
		return nil, errors.New("no targets selected")
	}

	return sortedTargets(result), nil
}

func sortedTargets(targets []string) []string {
	out := append([]string(nil), targets...)
	sort.Strings(out)
	return out
}

// buildAccounts constructs one adapter per target, each with its own
// component logger. Credential bundles come from the environment inside the
// adapter packages.
func buildAccounts(ctx context.Context, targets []string, cfg config.Config) ([]social.Account, error) {
	constructors := map[string]func(context.Context, *log.Logger) (social.Account, error){
		"bluesky": func(ctx context.Context, lg *log.Logger) (social.Account, error) {
			return bluesky.New(ctx, bluesky.Config{Logger: lg})
		},
		"mastodon": func(ctx context.Context, lg *log.Logger) (social.Account, error) {
			return mastodon.New(ctx, mastodon.Config{Logger: lg})
		},
		"twitter": func(ctx context.Context, lg *log.Logger) (social.Account, error) {
			return twitter.New(ctx, twitter.Config{Logger: lg, Debug: cfg.Verbose})
		},
	}

	accounts := make([]social.Account, 0, len(targets))
	var errs []error
	for _, target := range targets {
		constructor, ok := constructors[target]
		if !ok {
			errs = append(errs, fmt.Errorf("target %q is not implemented", target))
			continue
		}
		logger, err := logutil.New(target, logutil.Options{Verbose: cfg.Verbose, Dir: cfg.LogDir})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}
		account, err := constructor(ctx, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}
		accounts = append(accounts, account)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(accounts) == 0 {
		return nil, errors.New("no targets available")
	}
	return accounts, nil
}

// buildAccount validates and constructs a single target.
func buildAccount(ctx context.Context, target string, cfg config.Config) (social.Account, error) {
	resolved, err := normalizeTargets([]string{target})
	if err != nil {
		return nil, err
	}
	if len(resolved) != 1 {
		return nil, fmt.Errorf("need exactly one target, got %v", resolved)
	}
	accounts, err := buildAccounts(ctx, resolved, cfg)
	if err != nil {
		return nil, err
	}
	return accounts[0], nil
}

func dispatch(ctx context.Context, accounts []social.Account, req social.Request, out io.Writer, simulate bool, logger *log.Logger) error {
	if simulate {
		for _, account := range accounts {
			fmt.Fprintf(out, "[dry-run] would post to %s: %q\n", account.Name(), req.Message)
		}
		if req.MediaPath != "" {
			fmt.Fprintf(out, "[dry-run] image: %s (alt: %q)\n", req.MediaPath, req.MediaAlt)
		}
		return nil
	}

	var errs []error
	for _, account := range accounts {
		fmt.Fprintf(out, "posting to %s...\n", account.Name())
		post, err := publish(ctx, account, req)
		if err != nil {
			logger.Errorf("%s: %v", account.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", account.Name(), err))
			continue
		}
		switch {
		case post.URL != "":
			fmt.Fprintf(out, "posted to %s: %s\n", account.Name(), post.URL)
		case post.ID != "":
			fmt.Fprintf(out, "posted to %s (id=%s)\n", account.Name(), post.ID)
		default:
			fmt.Fprintf(out, "posted to %s\n", account.Name())
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func publish(ctx context.Context, account social.Account, req social.Request) (social.Post, error) {
	if req.MediaPath != "" {
		return account.PostPhoto(ctx, req)
	}
	return account.PostText(ctx, req.Message)
}
