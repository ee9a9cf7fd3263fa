// Package logutil builds the per-component logger handles used across the
// CLI and the provider adapters. Every component logs to stderr and, when a
// log directory is configured, into its own timestamped file under
// <dir>/<component>/.
package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const fileTimeLayout = "2006-01-02_15-04-05"

// Options configure a component logger.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Dir is the root of the log file tree. Empty disables file logging.
	Dir string
}

// New returns a logger handle for the named component. The handle is meant
// to be constructed once per component and passed down explicitly.
func New(component string, opts Options) (*log.Logger, error) {
	w := io.Writer(os.Stderr)
	if opts.Dir != "" {
		f, err := openLogFile(opts.Dir, component, time.Now())
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stderr, f)
	}
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: component, ReportTimestamp: true, Level: level}), nil
}

// openLogFile creates <dir>/<component>/<component>-<timestamp>.log. The
// file stays open for the life of the process.
func openLogFile(dir, component string, now time.Time) (*os.File, error) {
	sub := filepath.Join(dir, component)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", component, now.Format(fileTimeLayout))
	f, err := os.OpenFile(filepath.Join(sub, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
