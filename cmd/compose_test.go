package cmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetSelection(t *testing.T) {
	options := []string{"bluesky", "mastodon", "twitter"}

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty picks all", input: "", want: options},
		{name: "all keyword", input: "all", want: options},
		{name: "all keyword any case", input: "ALL", want: options},
		{name: "by number", input: "2", want: []string{"mastodon"}},
		{name: "numbers", input: "1,3", want: []string{"bluesky", "twitter"}},
		{name: "numbers out of order", input: "3,1", want: []string{"bluesky", "twitter"}},
		{name: "by name", input: "twitter", want: []string{"twitter"}},
		{name: "mixed", input: "1, twitter", want: []string{"bluesky", "twitter"}},
		{name: "number too high", input: "4", wantErr: "no target numbered 4"},
		{name: "number too low", input: "0", wantErr: "no target numbered 0"},
		{name: "unknown name", input: "myspace", wantErr: `unsupported target "myspace"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTargetSelection(tt.input, options)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestComposer(input string) (*composer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &composer{
		scanner: bufio.NewScanner(strings.NewReader(input)),
		out:     out,
		prompts: false,
	}, out
}

func TestComposerRun(t *testing.T) {
	defaults := []string{"bluesky", "mastodon", "twitter"}

	t.Run("full draft with image", func(t *testing.T) {
		mediaPath := filepath.Join(t.TempDir(), "shot.png")
		require.NoError(t, os.WriteFile(mediaPath, []byte("png"), 0o644))

		input := strings.Join([]string{
			"2",       // target selection
			"hello",   // message line 1
			"world",   // message line 2
			".",       // end of message
			mediaPath, // image path
			"",        // alt text, defaulted
			"y",       // confirm
		}, "\n") + "\n"

		c, out := newTestComposer(input)
		d, err := c.run(defaults, "fallback alt")
		require.NoError(t, err)

		assert.True(t, d.confirmed)
		assert.Equal(t, []string{"mastodon"}, d.targets)
		assert.Equal(t, "hello\nworld", d.req.Message)
		assert.Equal(t, mediaPath, d.req.MediaPath)
		assert.Equal(t, "fallback alt", d.req.MediaAlt)

		preview := out.String()
		assert.Contains(t, preview, "to:      mastodon")
		assert.Contains(t, preview, "hello\nworld")
	})

	t.Run("empty message", func(t *testing.T) {
		c, _ := newTestComposer("\n.\n")

		_, err := c.run(defaults, "")
		require.EqualError(t, err, "no text found")
	})

	t.Run("end of input counts as empty message", func(t *testing.T) {
		c, _ := newTestComposer("\n")

		_, err := c.run(defaults, "")
		require.EqualError(t, err, "no text found")
	})

	t.Run("missing image file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.png")
		input := "\nhi\n.\n" + missing + "\n"

		c, _ := newTestComposer(input)
		_, err := c.run(defaults, "")
		require.EqualError(t, err, `no file found at "`+missing+`"`)
	})

	t.Run("default answer aborts", func(t *testing.T) {
		c, _ := newTestComposer("\nhi\n.\n\n\n")

		d, err := c.run(defaults, "")
		require.NoError(t, err)
		assert.False(t, d.confirmed)
		assert.Equal(t, "hi", d.req.Message)
	})

	t.Run("yes confirms", func(t *testing.T) {
		c, _ := newTestComposer("\nhi\n.\n\nyes\n")

		d, err := c.run(defaults, "")
		require.NoError(t, err)
		assert.True(t, d.confirmed)
	})
}

func TestComposeAbort(t *testing.T) {
	clearPostrEnv(t)

	out, err := executeRoot(t, strings.NewReader("\nhi\n.\n\n\n"), "compose")
	require.NoError(t, err)
	assert.Contains(t, out, "message: hi")
	assert.Contains(t, out, "aborted")
}

func TestComposeEmptyMessage(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, strings.NewReader("\n.\n"), "compose")
	require.EqualError(t, err, "no text found")
}
