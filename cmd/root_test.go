package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postr/internal/config"
)

// clearPostrEnv blanks every POSTR_* variable the CLI or the adapters
// consult so tests only see what they set themselves.
func clearPostrEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"POSTR_CONFIG", "POSTR_PLATFORMS", "POSTR_ALT_TEXT", "POSTR_LOG_DIR", "POSTR_STREAM_FILE", "POSTR_VERBOSE",
		"POSTR_TWITTER_CONSUMER_KEY", "POSTR_TWITTER_CONSUMER_SECRET",
		"POSTR_TWITTER_ACCESS_TOKEN", "POSTR_TWITTER_ACCESS_TOKEN_SECRET", "POSTR_TWITTER_DEBUG",
		"POSTR_MASTODON_SERVER", "POSTR_MASTODON_ACCESS_TOKEN", "POSTR_MASTODON_CLIENT_ID", "POSTR_MASTODON_CLIENT_SECRET",
		"POSTR_BLUESKY_HANDLE", "POSTR_BLUESKY_APP_PASSWORD", "POSTR_BLUESKY_PDS_URL",
	} {
		t.Setenv(key, "")
	}
}

// executeRoot runs a fresh root command; building it anew resets every
// package-level flag variable between tests.
func executeRoot(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	if stdin != nil {
		root.SetIn(stdin)
	}
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestNormalizeTargets(t *testing.T) {
	all := []string{"bluesky", "mastodon", "twitter"}

	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr string
	}{
		{name: "empty means all", in: nil, want: all},
		{name: "all keyword", in: []string{"all"}, want: all},
		{name: "all keyword any case", in: []string{"ALL"}, want: all},
		{name: "single", in: []string{"twitter"}, want: []string{"twitter"}},
		{name: "case and spacing", in: []string{" Twitter ", "MASTODON"}, want: []string{"mastodon", "twitter"}},
		{name: "duplicates collapse", in: []string{"twitter", "twitter"}, want: []string{"twitter"}},
		{name: "sorted output", in: []string{"twitter", "bluesky"}, want: []string{"bluesky", "twitter"}},
		{name: "unknown", in: []string{"myspace"}, wantErr: `unsupported target "myspace"`},
		{name: "only blanks", in: []string{"", "  "}, wantErr: "no targets selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeTargets(tt.in)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortedTargetsCopies(t *testing.T) {
	in := []string{"twitter", "bluesky"}

	got := sortedTargets(in)
	assert.Equal(t, []string{"bluesky", "twitter"}, got)
	assert.Equal(t, []string{"twitter", "bluesky"}, in)
}

func TestPickTargets(t *testing.T) {
	cfg := config.Config{Platforms: []string{"mastodon"}}

	assert.Equal(t, []string{"twitter"}, pickTargets([]string{"twitter"}, cfg))
	assert.Equal(t, []string{"mastodon"}, pickTargets(nil, cfg))
}

func TestResolveMessage(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		cmd := newRootCommand()

		msg, err := resolveMessage(cmd, []string{"hello", "world"})
		require.NoError(t, err)
		assert.Equal(t, "hello world", msg)
	})

	t.Run("from flag", func(t *testing.T) {
		cmd := newRootCommand()
		require.NoError(t, cmd.Flags().Set("message", "  from flag  "))

		msg, err := resolveMessage(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "from flag", msg)
	})

	t.Run("flag and argument conflict", func(t *testing.T) {
		cmd := newRootCommand()
		require.NoError(t, cmd.Flags().Set("message", "one"))

		_, err := resolveMessage(cmd, []string{"two"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not both")
	})

	t.Run("from piped stdin", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "stdin")
		require.NoError(t, err)
		_, err = f.WriteString("  piped message\n")
		require.NoError(t, err)
		_, err = f.Seek(0, io.SeekStart)
		require.NoError(t, err)

		cmd := newRootCommand()
		cmd.SetIn(f)

		msg, err := resolveMessage(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "piped message", msg)
	})

	t.Run("nothing provided", func(t *testing.T) {
		cmd := newRootCommand()
		cmd.SetIn(strings.NewReader(""))

		_, err := resolveMessage(cmd, nil)
		require.EqualError(t, err, "message is required")
	})
}

func TestRootRequiresMessage(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, strings.NewReader(""))
	require.EqualError(t, err, "message is required")
}

func TestRootRejectsUnknownTarget(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "hello", "--target", "myspace")
	require.EqualError(t, err, `unsupported target "myspace"`)
}

func TestRootMissingCredentials(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "hello", "--target", "twitter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twitter")
}

func TestRootDryRun(t *testing.T) {
	clearPostrEnv(t)
	t.Setenv("POSTR_TWITTER_CONSUMER_KEY", "ck")
	t.Setenv("POSTR_TWITTER_CONSUMER_SECRET", "cs")
	t.Setenv("POSTR_TWITTER_ACCESS_TOKEN", "at")
	t.Setenv("POSTR_TWITTER_ACCESS_TOKEN_SECRET", "as")
	t.Setenv("POSTR_MASTODON_SERVER", "https://mastodon.example")
	t.Setenv("POSTR_MASTODON_ACCESS_TOKEN", "token")

	out, err := executeRoot(t, nil, "hello world", "--dry-run", "--target", "twitter", "--target", "mastodon")
	require.NoError(t, err)
	assert.Contains(t, out, `[dry-run] would post to mastodon: "hello world"`)
	assert.Contains(t, out, `[dry-run] would post to twitter: "hello world"`)
}

func TestRootDryRunWithImage(t *testing.T) {
	clearPostrEnv(t)
	t.Setenv("POSTR_MASTODON_SERVER", "https://mastodon.example")
	t.Setenv("POSTR_MASTODON_ACCESS_TOKEN", "token")

	out, err := executeRoot(t, nil, "hi", "--dry-run", "--target", "mastodon", "--image", "shot.png")
	require.NoError(t, err)
	assert.Contains(t, out, `[dry-run] would post to mastodon: "hi"`)
	assert.Contains(t, out, `[dry-run] image: shot.png (alt: "Image shared via postr")`)
}

func TestDeleteRejectsUnknownTarget(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "delete", "123", "--target", "myspace")
	require.EqualError(t, err, `unsupported target "myspace"`)
}

func TestDeleteRequiresPostID(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "delete")
	require.Error(t, err)
}

func TestStreamRequiresKeywords(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "stream")
	require.Error(t, err)
}
