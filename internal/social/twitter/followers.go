package twitter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"postr/internal/social"
)

const (
	followersEndpoint = "https://api.twitter.com/1.1/followers/list.json"

	// followerPageSize is the vendor maximum per page.
	followerPageSize = 200

	// The walk pauses for a second after every hundred collected handles
	// to stay under the endpoint's rate window.
	followerPauseEvery = 100
	followerPauseDelay = time.Second
)

// Followers walks the v1.1 follower cursor for handle, or for the
// authenticated account when handle is empty, and returns the follower
// screen names in the order the vendor yields them.
func (c *Client) Followers(ctx context.Context, handle string) ([]string, error) {
	pacer := &social.Pacer{Every: followerPauseEvery, Delay: followerPauseDelay}

	fetch := func(cursor string) (*followersPage, error) {
		params := &followersParameters{
			screenName: handle,
			cursor:     cursor,
			count:      followerPageSize,
		}
		var page followersPage
		if err := c.api.CallAPI(ctx, followersEndpoint, http.MethodGet, params, &page); err != nil {
			return nil, classify("followers", err)
		}
		return &page, nil
	}

	handles, err := collectFollowers(fetch, pacer)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("collected followers: count=%d", len(handles))

	return handles, nil
}

// collectFollowers drains the cursor until the vendor reports the zero
// cursor, ticking the pacer once per collected handle.
func collectFollowers(fetch func(cursor string) (*followersPage, error), pacer *social.Pacer) ([]string, error) {
	var handles []string
	cursor := "-1"
	for {
		page, err := fetch(cursor)
		if err != nil {
			return nil, err
		}
		for _, u := range page.Users {
			handles = append(handles, u.ScreenName)
			pacer.Tick()
		}
		cursor = page.NextCursor
		if cursor == "" || cursor == "0" {
			return handles, nil
		}
	}
}

type followersPage struct {
	Users []struct {
		ScreenName string `json:"screen_name"`
	} `json:"users"`
	NextCursor string `json:"next_cursor_str"`
}

func (followersPage) HasPartialError() bool { return false }

type followersParameters struct {
	screenName  string
	cursor      string
	count       int
	accessToken string
}

func (p *followersParameters) SetAccessToken(token string) {
	p.accessToken = token
}

func (p *followersParameters) AccessToken() string {
	return p.accessToken
}

func (p *followersParameters) ResolveEndpoint(endpointBase string) string {
	q := url.Values{}
	if p.screenName != "" {
		q.Set("screen_name", p.screenName)
	}
	if p.cursor != "" {
		q.Set("cursor", p.cursor)
	}
	if p.count > 0 {
		q.Set("count", strconv.Itoa(p.count))
	}
	q.Set("skip_status", "true")
	q.Set("include_user_entities", "false")
	return endpointBase + "?" + q.Encode()
}

func (p *followersParameters) Body() (io.Reader, error) {
	return nil, nil
}

func (p *followersParameters) ParameterMap() map[string]string {
	return map[string]string{}
}
