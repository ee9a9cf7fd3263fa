// Package mastodon adapts a Mastodon instance to the social.Account
// contract using mattn/go-mastodon.
package mastodon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mastodonapi "github.com/mattn/go-mastodon"

	"postr/internal/social"
)

const (
	envServer       = "POSTR_MASTODON_SERVER"
	envAccessToken  = "POSTR_MASTODON_ACCESS_TOKEN"
	envClientID     = "POSTR_MASTODON_CLIENT_ID"
	envClientSecret = "POSTR_MASTODON_CLIENT_SECRET"

	providerName   = "mastodon"
	requestTimeout = 30 * time.Second

	// followerPageSize is the vendor maximum for the followers endpoint.
	followerPageSize   = 80
	followerPauseEvery = 100
	followerPauseDelay = time.Second
)

// Credentials carry the settings needed to reach a Mastodon server. Server
// and AccessToken are required; the client pair is optional for app-less
// tokens.
type Credentials struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads the bundle from POSTR_MASTODON_* variables.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
	}

	var missing []string
	if creds.Server == "" {
		missing = append(missing, envServer)
	}
	if creds.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Credentials{}, social.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return creds, nil
}

// Config assembles what New needs.
type Config struct {
	Credentials Credentials
	Logger      *log.Logger
}

// Client implements social.Account for a Mastodon instance.
type Client struct {
	client *mastodonapi.Client
	logger *log.Logger
}

// New builds the adapter. An empty credential bundle falls back to
// CredentialsFromEnv.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds := cfg.Credentials
	if creds == (Credentials{}) {
		var err error
		creds, err = CredentialsFromEnv()
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       creds.Server,
		AccessToken:  creds.AccessToken,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient, logger: logger}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// PostText publishes a plain toot.
func (c *Client) PostText(ctx context.Context, text string) (social.Post, error) {
	if strings.TrimSpace(text) == "" {
		return social.Post{}, social.NewError(providerName, "post text", social.KindInvalid, errors.New("empty message"))
	}
	return c.createStatus(ctx, text, nil)
}

// PostPhoto uploads the media at req.MediaPath and publishes a toot
// carrying it.
func (c *Client) PostPhoto(ctx context.Context, req social.Request) (social.Post, error) {
	return c.postMedia(ctx, req, "post photo")
}

// PostVideo behaves like PostPhoto; the instance transcodes the upload.
func (c *Client) PostVideo(ctx context.Context, req social.Request) (social.Post, error) {
	return c.postMedia(ctx, req, "post video")
}

func (c *Client) postMedia(ctx context.Context, req social.Request, op string) (social.Post, error) {
	if strings.TrimSpace(req.MediaPath) == "" {
		return social.Post{}, social.NewError(providerName, op, social.KindInvalid, errors.New("no media path"))
	}

	attachment, err := c.uploadMedia(ctx, req.MediaPath, req.MediaAlt)
	if err != nil {
		return social.Post{}, err
	}
	c.logger.Debugf("media uploaded: id=%s", attachment.ID)

	return c.createStatus(ctx, req.Message, []mastodonapi.ID{attachment.ID})
}

func (c *Client) createStatus(ctx context.Context, text string, mediaIDs []mastodonapi.ID) (social.Post, error) {
	status, err := c.client.PostStatus(ctx, &mastodonapi.Toot{
		Status:   text,
		MediaIDs: mediaIDs,
	})
	if err != nil {
		return social.Post{}, classify("post", err)
	}
	c.logger.Debugf("status posted: id=%s", status.ID)

	return social.Post{
		ID:   string(status.ID),
		Text: text,
		URL:  status.URL,
	}, nil
}

func (c *Client) uploadMedia(ctx context.Context, path, alt string) (*mastodonapi.Attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, social.NewError(providerName, "upload media", social.KindInvalid, fmt.Errorf("media %q not found", path))
		}
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	attachment, err := c.client.UploadMediaFromMedia(ctx, &mastodonapi.Media{
		File:        file,
		Description: alt,
	})
	if err != nil {
		return nil, classify("upload media", err)
	}

	return attachment, nil
}

// RemovePost deletes a status owned by the authenticated account.
func (c *Client) RemovePost(ctx context.Context, id string) error {
	if err := c.client.DeleteStatus(ctx, mastodonapi.ID(id)); err != nil {
		return classify("remove post", err)
	}
	c.logger.Debugf("status deleted: id=%s", id)
	return nil
}

// Followers pages through the follower list for handle, or for the
// authenticated account when handle is empty.
func (c *Client) Followers(ctx context.Context, handle string) ([]string, error) {
	id, err := c.resolveAccountID(ctx, handle)
	if err != nil {
		return nil, err
	}

	pacer := &social.Pacer{Every: followerPauseEvery, Delay: followerPauseDelay}

	var handles []string
	pg := mastodonapi.Pagination{Limit: followerPageSize}
	for {
		accounts, err := c.client.GetAccountFollowers(ctx, id, &pg)
		if err != nil {
			return nil, classify("followers", err)
		}
		for _, a := range accounts {
			handles = append(handles, a.Acct)
			pacer.Tick()
		}
		// The client rewrites pg from the Link header; an empty MaxID
		// means the last page.
		if pg.MaxID == "" {
			break
		}
	}
	c.logger.Debugf("collected followers: count=%d", len(handles))

	return handles, nil
}

func (c *Client) resolveAccountID(ctx context.Context, handle string) (mastodonapi.ID, error) {
	if handle == "" {
		self, err := c.client.GetAccountCurrentUser(ctx)
		if err != nil {
			return "", classify("followers", err)
		}
		return self.ID, nil
	}

	matches, err := c.client.AccountsSearch(ctx, handle, 1)
	if err != nil {
		return "", classify("followers", err)
	}
	if len(matches) == 0 {
		return "", social.NewError(providerName, "followers", social.KindNotFound, fmt.Errorf("no account matching %q", handle))
	}
	return matches[0].ID, nil
}

// Profile describes the authenticated account. Bio keeps the instance's
// HTML rendering of the note.
func (c *Client) Profile(ctx context.Context) (social.Profile, error) {
	account, err := c.client.GetAccountCurrentUser(ctx)
	if err != nil {
		return social.Profile{}, classify("profile", err)
	}
	return social.Profile{
		ID:        string(account.ID),
		Username:  account.Acct,
		Bio:       account.Note,
		Followers: int(account.FollowersCount),
	}, nil
}

// UpdateProfile changes display name and/or bio.
func (c *Client) UpdateProfile(ctx context.Context, up social.ProfileUpdate) error {
	if up.DisplayName == nil && up.Bio == nil {
		return social.NewError(providerName, "update profile", social.KindInvalid, errors.New("nothing to update"))
	}

	_, err := c.client.AccountUpdate(ctx, &mastodonapi.Profile{
		DisplayName: up.DisplayName,
		Note:        up.Bio,
	})
	if err != nil {
		return classify("update profile", err)
	}
	c.logger.Debugf("profile updated")

	return nil
}

// TotalLikes always reports the -1 sentinel: the API has no lifetime
// favourite counter, so callers treat the value as unavailable.
func (c *Client) TotalLikes(ctx context.Context) (int, error) {
	return -1, nil
}

// LatestFavorites counts favourites on the newest own status.
func (c *Client) LatestFavorites(ctx context.Context) (int, error) {
	status, err := c.latestOwnStatus(ctx)
	if err != nil {
		return 0, err
	}
	return int(status.FavouritesCount), nil
}

// LatestReposts counts boosts on the newest own status.
func (c *Client) LatestReposts(ctx context.Context) (int, error) {
	status, err := c.latestOwnStatus(ctx)
	if err != nil {
		return 0, err
	}
	return int(status.ReblogsCount), nil
}

// FavoritesOn counts favourites on the given status.
func (c *Client) FavoritesOn(ctx context.Context, id string) (int, error) {
	status, err := c.client.GetStatus(ctx, mastodonapi.ID(id))
	if err != nil {
		return 0, classify("lookup post", err)
	}
	return int(status.FavouritesCount), nil
}

// RepostsOn counts boosts on the given status.
func (c *Client) RepostsOn(ctx context.Context, id string) (int, error) {
	status, err := c.client.GetStatus(ctx, mastodonapi.ID(id))
	if err != nil {
		return 0, classify("lookup post", err)
	}
	return int(status.ReblogsCount), nil
}

func (c *Client) latestOwnStatus(ctx context.Context) (*mastodonapi.Status, error) {
	self, err := c.client.GetAccountCurrentUser(ctx)
	if err != nil {
		return nil, classify("latest post", err)
	}

	pg := mastodonapi.Pagination{Limit: 1}
	statuses, err := c.client.GetAccountStatuses(ctx, self.ID, &pg)
	if err != nil {
		return nil, classify("latest post", err)
	}
	if len(statuses) == 0 {
		return nil, social.NewError(providerName, "latest post", social.KindNotFound, errors.New("no posts yet"))
	}
	return statuses[0], nil
}

// classify converts a go-mastodon failure into a classified provider error.
func classify(op string, err error) error {
	var apiErr *mastodonapi.APIError
	if errors.As(err, &apiErr) {
		return social.FromStatus(providerName, op, apiErr.StatusCode, err)
	}
	return social.NewError(providerName, op, social.KindUnavailable, err)
}
