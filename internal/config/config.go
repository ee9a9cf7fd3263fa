// Package config loads the tool configuration. Values come from an optional
// YAML file with environment overrides on top; provider credentials are not
// kept here, each adapter reads its own POSTR_<PROVIDER>_* variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is consulted when no --config flag and no POSTR_CONFIG
	// variable are set.
	DefaultPath = "postr.yml"

	envConfig     = "POSTR_CONFIG"
	envPlatforms  = "POSTR_PLATFORMS"
	envAltText    = "POSTR_ALT_TEXT"
	envLogDir     = "POSTR_LOG_DIR"
	envStreamFile = "POSTR_STREAM_FILE"
	envVerbose    = "POSTR_VERBOSE"
)

// Config holds the non-secret tool settings.
type Config struct {
	// Platforms are the targets used when a command is not given any.
	Platforms []string `yaml:"platforms"`
	// AltText is the fallback image description for photo posts.
	AltText string `yaml:"alt_text"`
	// LogDir roots the per-component log file tree. Empty keeps logs on
	// stderr only.
	LogDir string `yaml:"log_dir"`
	// StreamFile is where the stream command appends matched post text.
	StreamFile string `yaml:"stream_file"`
	Verbose    bool   `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Platforms:  []string{"twitter", "mastodon", "bluesky"},
		AltText:    "Image shared via postr",
		StreamFile: "stream.txt",
	}
}

// Load reads the configuration at path, falling back to POSTR_CONFIG and
// then DefaultPath. A missing file is not an error; environment variables
// always win over file values. A .env file in the working directory is
// loaded first so that provider credentials can live next to the config.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(envConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine, defaults apply.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envPlatforms); v != "" {
		cfg.Platforms = SplitList(v)
	}
	if v := os.Getenv(envAltText); v != "" {
		cfg.AltText = v
	}
	if v := os.Getenv(envLogDir); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv(envStreamFile); v != "" {
		cfg.StreamFile = v
	}
	if v := os.Getenv(envVerbose); v != "" {
		cfg.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
}

// SplitList parses a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
