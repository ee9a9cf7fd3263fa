package twitter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/fields"
	"github.com/michimani/gotwi/resources"
	"github.com/michimani/gotwi/tweet/timeline"
	timelinetypes "github.com/michimani/gotwi/tweet/timeline/types"
	"github.com/michimani/gotwi/tweet/tweetlookup"
	tweetlookuptypes "github.com/michimani/gotwi/tweet/tweetlookup/types"
	"github.com/michimani/gotwi/user/userlookup"
	userlookuptypes "github.com/michimani/gotwi/user/userlookup/types"

	"postr/internal/social"
)

const updateProfileEndpoint = "https://api.twitter.com/1.1/account/update_profile.json"

// Profile describes the authenticated account.
func (c *Client) Profile(ctx context.Context) (social.Profile, error) {
	me, err := c.me(ctx)
	if err != nil {
		return social.Profile{}, err
	}

	p := social.Profile{
		ID:        gotwi.StringValue(me.ID),
		Username:  gotwi.StringValue(me.Username),
		Bio:       gotwi.StringValue(me.Description),
		Followers: -1,
	}
	if me.PublicMetrics != nil && me.PublicMetrics.FollowersCount != nil {
		p.Followers = *me.PublicMetrics.FollowersCount
	}
	return p, nil
}

// UpdateProfile changes display name and/or bio. v2 has no write endpoint
// for either, so this posts to the v1.1 account/update_profile resource.
func (c *Client) UpdateProfile(ctx context.Context, up social.ProfileUpdate) error {
	if up.DisplayName == nil && up.Bio == nil {
		return social.NewError(providerName, "update profile", social.KindInvalid, errors.New("nothing to update"))
	}

	params := &updateProfileParameters{name: up.DisplayName, description: up.Bio}
	var res updateProfileResponse
	if err := c.api.CallAPI(ctx, updateProfileEndpoint, http.MethodPost, params, &res); err != nil {
		return classify("update profile", err)
	}
	c.logger.Debugf("profile updated: screen_name=%s", res.ScreenName)

	return nil
}

// TotalLikes always reports the -1 sentinel: the API exposes no lifetime
// like counter, so callers treat the value as unavailable.
func (c *Client) TotalLikes(ctx context.Context) (int, error) {
	return -1, nil
}

// LatestFavorites counts likes on the newest own post.
func (c *Client) LatestFavorites(ctx context.Context) (int, error) {
	t, err := c.latestOwnPost(ctx)
	if err != nil {
		return 0, err
	}
	return likeCount(t), nil
}

// LatestReposts counts retweets on the newest own post.
func (c *Client) LatestReposts(ctx context.Context) (int, error) {
	t, err := c.latestOwnPost(ctx)
	if err != nil {
		return 0, err
	}
	return repostCount(t), nil
}

// FavoritesOn counts likes on the given post.
func (c *Client) FavoritesOn(ctx context.Context, id string) (int, error) {
	t, err := c.lookupPost(ctx, id)
	if err != nil {
		return 0, err
	}
	return likeCount(t), nil
}

// RepostsOn counts retweets on the given post.
func (c *Client) RepostsOn(ctx context.Context, id string) (int, error) {
	t, err := c.lookupPost(ctx, id)
	if err != nil {
		return 0, err
	}
	return repostCount(t), nil
}

func (c *Client) me(ctx context.Context) (resources.User, error) {
	res, err := userlookup.GetMe(ctx, c.api, &userlookuptypes.GetMeInput{
		UserFields: fields.UserFieldList{
			fields.UserFieldDescription,
			fields.UserFieldPublicMetrics,
		},
	})
	if err != nil {
		return resources.User{}, classify("profile", err)
	}
	return res.Data, nil
}

func (c *Client) latestOwnPost(ctx context.Context) (resources.Tweet, error) {
	me, err := c.me(ctx)
	if err != nil {
		return resources.Tweet{}, err
	}

	res, err := timeline.ListTweets(ctx, c.api, &timelinetypes.ListTweetsInput{
		ID:          gotwi.StringValue(me.ID),
		MaxResults:  5,
		TweetFields: fields.TweetFieldList{fields.TweetFieldPublicMetrics},
	})
	if err != nil {
		return resources.Tweet{}, classify("latest post", err)
	}
	if len(res.Data) == 0 {
		return resources.Tweet{}, social.NewError(providerName, "latest post", social.KindNotFound, errors.New("no posts yet"))
	}
	return res.Data[0], nil
}

func (c *Client) lookupPost(ctx context.Context, id string) (resources.Tweet, error) {
	res, err := tweetlookup.Get(ctx, c.api, &tweetlookuptypes.GetInput{
		ID:          id,
		TweetFields: fields.TweetFieldList{fields.TweetFieldPublicMetrics},
	})
	if err != nil {
		return resources.Tweet{}, classify("lookup post", err)
	}
	return res.Data, nil
}

func likeCount(t resources.Tweet) int {
	if t.PublicMetrics != nil && t.PublicMetrics.LikeCount != nil {
		return *t.PublicMetrics.LikeCount
	}
	return 0
}

func repostCount(t resources.Tweet) int {
	if t.PublicMetrics != nil && t.PublicMetrics.RetweetCount != nil {
		return *t.PublicMetrics.RetweetCount
	}
	return 0
}

type updateProfileParameters struct {
	name        *string
	description *string
	accessToken string
}

func (p *updateProfileParameters) SetAccessToken(token string) {
	p.accessToken = token
}

func (p *updateProfileParameters) AccessToken() string {
	return p.accessToken
}

// ResolveEndpoint carries the fields in the query string; v1.1 accepts and
// signs POST parameters there.
func (p *updateProfileParameters) ResolveEndpoint(endpointBase string) string {
	q := url.Values{}
	if p.name != nil {
		q.Set("name", *p.name)
	}
	if p.description != nil {
		q.Set("description", *p.description)
	}
	if len(q) == 0 {
		return endpointBase
	}
	return endpointBase + "?" + q.Encode()
}

func (p *updateProfileParameters) Body() (io.Reader, error) {
	return nil, nil
}

func (p *updateProfileParameters) ParameterMap() map[string]string {
	return map[string]string{}
}

type updateProfileResponse struct {
	ScreenName  string `json:"screen_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (updateProfileResponse) HasPartialError() bool { return false }
