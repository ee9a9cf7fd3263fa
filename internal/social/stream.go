package social

import (
	"fmt"
	"os"
)

// StreamPost is one live post delivered by a provider stream.
type StreamPost struct {
	ID     string
	Text   string
	Author string
}

// Handler consumes stream posts. A non-nil error is logged by the provider
// and never tears the stream down.
type Handler func(p StreamPost) error

// FileSink appends the text of each stream post to a single file. Posts are
// written back to back without any delimiter.
type FileSink struct {
	f *os.File
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open stream file: %w", err)
	}
	return &FileSink{f: f}, nil
}

// Handle implements Handler.
func (s *FileSink) Handle(p StreamPost) error {
	if _, err := s.f.WriteString(p.Text); err != nil {
		return fmt.Errorf("write stream file: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error { return s.f.Close() }
