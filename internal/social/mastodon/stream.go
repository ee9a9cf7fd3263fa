package mastodon

import (
	"context"
	"errors"
	"strings"
	"sync"

	mastodonapi "github.com/mattn/go-mastodon"

	"postr/internal/social"
)

// Stream follows the given hashtags and hands every update to h. Each
// keyword gets its own server-sent event stream; the client reconnects
// dropped streams on its own. Malformed events and handler errors are
// logged and skipped so one bad entry never ends the session.
func (c *Client) Stream(ctx context.Context, keywords []string, h social.Handler) error {
	tags := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimPrefix(strings.TrimSpace(k), "#")
		if k != "" {
			tags = append(tags, k)
		}
	}
	if len(tags) == 0 {
		return social.NewError(providerName, "stream", social.KindInvalid, errors.New("no keywords"))
	}

	events := make(chan mastodonapi.Event, 16)
	var wg sync.WaitGroup
	for _, tag := range tags {
		ch, err := c.client.StreamingHashtag(ctx, tag, false)
		if err != nil {
			return classify("stream", err)
		}
		c.logger.Infof("streaming #%s", tag)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range ch {
				select {
				case events <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(events)
	}()

	for e := range events {
		switch ev := e.(type) {
		case *mastodonapi.UpdateEvent:
			post := social.StreamPost{
				ID:     string(ev.Status.ID),
				Text:   ev.Status.Content,
				Author: ev.Status.Account.Acct,
			}
			if err := h(post); err != nil {
				c.logger.Errorf("stream handler: %v", err)
			}
		case *mastodonapi.ErrorEvent:
			c.logger.Errorf("stream event: %s", ev.Error())
		default:
			// deletes and notifications are not interesting here
		}
	}

	return ctx.Err()
}
