package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"postr/internal/social"
)

var composeDryRun bool

func newComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a post interactively",
		Long: "compose walks through a post step by step: pick targets, type the " +
			"message (finish with a single '.' line), optionally attach an image, " +
			"then confirm. Nothing is sent before the confirmation.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompose,
	}

	cmd.Flags().BoolVar(&composeDryRun, "dry-run", false, "Print actions without posting")

	return cmd
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	prompts := false
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		prompts = term.IsTerminal(int(f.Fd()))
	}

	c := &composer{
		scanner: bufio.NewScanner(cmd.InOrStdin()),
		out:     cmd.OutOrStdout(),
		prompts: prompts,
	}

	d, err := c.run(cfg.Platforms, cfg.AltText)
	if err != nil {
		return err
	}
	if !d.confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "aborted")
		return nil
	}

	accounts, err := buildAccounts(ctx, d.targets, cfg)
	if err != nil {
		return err
	}

	return dispatch(ctx, accounts, d.req, cmd.OutOrStdout(), composeDryRun, logger)
}

// composer drives the step-by-step prompt loop. Prompt strings are
// suppressed when stdin is not a terminal so piped input yields clean
// output.
type composer struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompts bool
}

type draft struct {
	targets   []string
	req       social.Request
	confirmed bool
}

func (c *composer) run(defaultTargets []string, defaultAlt string) (draft, error) {
	options, err := normalizeTargets(defaultTargets)
	if err != nil {
		return draft{}, err
	}

	c.promptf("targets:\n")
	for i, t := range options {
		c.promptf("  %d. %s\n", i+1, t)
	}
	c.promptf("choose (numbers or names, empty for all): ")
	targets, err := parseTargetSelection(c.line(), options)
	if err != nil {
		return draft{}, err
	}

	c.promptf("message (end with a single '.' line):\n")
	message := c.readMessage()
	if strings.TrimSpace(message) == "" {
		// nothing composed, nothing to send anywhere
		return draft{}, errors.New("no text found")
	}

	c.promptf("image path (empty for none): ")
	mediaPath := c.line()
	mediaAlt := ""
	if mediaPath != "" {
		if _, err := os.Stat(mediaPath); err != nil {
			return draft{}, fmt.Errorf("no file found at %q", mediaPath)
		}
		c.promptf("alt text (empty for default): ")
		mediaAlt = c.line()
		if mediaAlt == "" {
			mediaAlt = defaultAlt
		}
	}

	d := draft{
		targets: targets,
		req: social.Request{
			Message:   message,
			MediaPath: mediaPath,
			MediaAlt:  mediaAlt,
		},
	}

	fmt.Fprintln(c.out, "---")
	fmt.Fprintf(c.out, "to:      %s\n", strings.Join(targets, ", "))
	fmt.Fprintf(c.out, "message: %s\n", message)
	if mediaPath != "" {
		fmt.Fprintf(c.out, "image:   %s (alt: %s)\n", mediaPath, mediaAlt)
	}
	fmt.Fprintln(c.out, "---")

	c.promptf("post? [y/N]: ")
	answer := strings.ToLower(c.line())
	d.confirmed = answer == "y" || answer == "yes"

	return d, nil
}

func (c *composer) promptf(format string, args ...any) {
	if c.prompts {
		fmt.Fprintf(c.out, format, args...)
	}
}

// line reads one trimmed line; end of input reads as empty, which every
// step treats as its default.
func (c *composer) line() string {
	if !c.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(c.scanner.Text())
}

// readMessage collects raw lines until a lone '.' or end of input.
func (c *composer) readMessage() string {
	var lines []string
	for c.scanner.Scan() {
		raw := c.scanner.Text()
		if strings.TrimSpace(raw) == "." {
			break
		}
		lines = append(lines, raw)
	}
	return strings.Join(lines, "\n")
}

// parseTargetSelection resolves an input like "1,3" or "twitter,bluesky"
// against the numbered options. Empty or "all" selects everything.
func parseTargetSelection(input string, options []string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "all") {
		return options, nil
	}

	var picked []string
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil {
			if n < 1 || n > len(options) {
				return nil, fmt.Errorf("no target numbered %d", n)
			}
			picked = append(picked, options[n-1])
			continue
		}
		picked = append(picked, token)
	}

	return normalizeTargets(picked)
}
