package mastodon

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postr/internal/social"
)

func TestStreamDeliversUpdates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/streaming/hashtag", r.URL.Path)
		assert.Equal(t, "golang", r.URL.Query().Get("tag"))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: update\ndata: {\"id\":\"1\",\"content\":\"hello\",\"account\":{\"acct\":\"alice\"}}\n\n")
		io.WriteString(w, "event: update\ndata: {bogus\n\n")
		io.WriteString(w, "event: update\ndata: {\"id\":\"2\",\"content\":\"world\",\"account\":{\"acct\":\"ben\"}}\n\n")
		w.(http.Flusher).Flush()

		// Hold the connection open so the client never reconnects and
		// replays the events.
		<-r.Context().Done()
	})

	c := newTestClient(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []social.StreamPost
	collect := func(p social.StreamPost) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, []string{"#golang"}, collect)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 5*time.Second, 10*time.Millisecond, "malformed event must be skipped, good ones delivered")

	mu.Lock()
	assert.Equal(t, social.StreamPost{ID: "1", Text: "hello", Author: "alice"}, got[0])
	assert.Equal(t, social.StreamPost{ID: "2", Text: "world", Author: "ben"}, got[1])
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestStreamRequiresKeywords(t *testing.T) {
	c := &Client{logger: log.New(io.Discard)}

	err := c.Stream(context.Background(), []string{"#", "  "}, nil)
	require.Error(t, err)
	assert.True(t, social.IsKind(err, social.KindInvalid))
}
