package cmd

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"postr/internal/social"
)

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "42", formatSigned(42))
	assert.Equal(t, "0", formatSigned(0))
	assert.Equal(t, "n/a", formatSigned(-1))
}

func TestFormatMetric(t *testing.T) {
	logger := log.New(io.Discard)

	assert.Equal(t, "7", formatMetric(7, nil, logger, "twitter"))
	assert.Equal(t, "n/a", formatMetric(-1, nil, logger, "twitter"))

	notFound := social.NewError("twitter", "latest post", social.KindNotFound, errors.New("no posts yet"))
	assert.Equal(t, "no posts yet", formatMetric(0, notFound, logger, "twitter"))

	boom := social.NewError("twitter", "latest post", social.KindUnavailable, errors.New("down"))
	assert.Equal(t, "error", formatMetric(0, boom, logger, "twitter"))
}

func TestStatsRejectsUnknownTarget(t *testing.T) {
	clearPostrEnv(t)

	_, err := executeRoot(t, nil, "stats", "--target", "myspace")
	assert.EqualError(t, err, `unsupported target "myspace"`)
}
