package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so results only depend on
// what the test sets.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envConfig, envPlatforms, envAltText, envLogDir, envStreamFile, envVerbose} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"twitter", "mastodon", "bluesky"}, cfg.Platforms)
	assert.Equal(t, "Image shared via postr", cfg.AltText)
	assert.Equal(t, "stream.txt", cfg.StreamFile)
	assert.Empty(t, cfg.LogDir)
	assert.False(t, cfg.Verbose)
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "postr.yml")
	body := `platforms:
  - mastodon
alt_text: from the file
log_dir: /tmp/postr-logs
stream_file: matched.txt
verbose: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mastodon"}, cfg.Platforms)
	assert.Equal(t, "from the file", cfg.AltText)
	assert.Equal(t, "/tmp/postr-logs", cfg.LogDir)
	assert.Equal(t, "matched.txt", cfg.StreamFile)
	assert.True(t, cfg.Verbose)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "postr.yml")
	require.NoError(t, os.WriteFile(path, []byte("alt_text: only this\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "only this", cfg.AltText)
	assert.Equal(t, Default().Platforms, cfg.Platforms)
	assert.Equal(t, Default().StreamFile, cfg.StreamFile)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "postr.yml")
	require.NoError(t, os.WriteFile(path, []byte("platforms: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "elsewhere.yml")
	require.NoError(t, os.WriteFile(path, []byte("alt_text: via env path\n"), 0o644))
	t.Setenv(envConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "via env path", cfg.AltText)
}

func TestLoadEnvPathMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "missing.yml"))

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "postr.yml")
	body := `platforms:
  - mastodon
alt_text: from the file
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv(envPlatforms, "twitter, bluesky")
	t.Setenv(envAltText, "from the env")
	t.Setenv(envStreamFile, "env.txt")
	t.Setenv(envVerbose, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"twitter", "bluesky"}, cfg.Platforms)
	assert.Equal(t, "from the env", cfg.AltText)
	assert.Equal(t, "env.txt", cfg.StreamFile)
	assert.True(t, cfg.Verbose)
}

func TestLoadVerboseEnvForms(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"0", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(envVerbose, tt.value)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Verbose)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"twitter,mastodon", []string{"twitter", "mastodon"}},
		{" twitter , mastodon ", []string{"twitter", "mastodon"}},
		{"twitter,,mastodon", []string{"twitter", "mastodon"}},
		{"twitter", []string{"twitter"}},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitList(tt.in), "input %q", tt.in)
	}
}
