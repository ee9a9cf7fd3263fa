package twitter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/tweet/filteredstream"
	filteredstreamtypes "github.com/michimani/gotwi/tweet/filteredstream/types"

	"postr/internal/social"
)

const streamRuleTag = "postr"

// Stream opens a filtered stream whose rule matches any of the keywords and
// hands every inbound post to h. Handler errors and malformed entries are
// logged and skipped; the session stays up until ctx is done or the vendor
// drops the connection. The rule is removed when the stream ends.
func (c *Client) Stream(ctx context.Context, keywords []string, h social.Handler) error {
	rule := buildStreamRule(keywords)
	if rule == "" {
		return social.NewError(providerName, "stream", social.KindInvalid, errors.New("no keywords"))
	}

	created, err := filteredstream.CreateRules(ctx, c.api, &filteredstreamtypes.CreateRulesInput{
		Add: []filteredstreamtypes.AddingRule{
			{Value: gotwi.String(rule), Tag: gotwi.String(streamRuleTag)},
		},
	})
	if err != nil {
		return classify("stream", err)
	}
	ids := make([]string, 0, len(created.Data))
	for _, r := range created.Data {
		ids = append(ids, gotwi.StringValue(r.ID))
	}
	defer c.dropStreamRules(ids)

	c.logger.Infof("streaming posts matching %q", rule)

	s, err := filteredstream.SearchStream(ctx, c.api, &filteredstreamtypes.SearchStreamInput{})
	if err != nil {
		return classify("stream", err)
	}
	defer s.Stop()

	for s.Receive() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		out, err := s.Read()
		if err != nil {
			c.logger.Errorf("stream read: %v", err)
			continue
		}
		if out == nil || out.Data.Text == nil {
			// keep-alive or partial payload
			continue
		}

		post := social.StreamPost{
			ID:   gotwi.StringValue(out.Data.ID),
			Text: gotwi.StringValue(out.Data.Text),
		}
		if err := h(post); err != nil {
			c.logger.Errorf("stream handler: %v", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Infof("stream closed by remote end")
	return nil
}

// dropStreamRules runs after the stream context is already done, so the
// cleanup call gets a fresh short-lived context.
func (c *Client) dropStreamRules(ids []string) {
	if len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := filteredstream.DeleteRules(ctx, c.api, &filteredstreamtypes.DeleteRulesInput{
		Delete: &filteredstreamtypes.DeletingRules{IDs: ids},
	})
	if err != nil {
		c.logger.Errorf("delete stream rules: %v", err)
	}
}

// buildStreamRule joins the keywords into a single any-of rule.
func buildStreamRule(keywords []string) string {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			terms = append(terms, k)
		}
	}
	return strings.Join(terms, " OR ")
}
