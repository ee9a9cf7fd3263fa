// Package bluesky adapts a Bluesky (atproto) account to the social.Account
// contract. Posts are addressed by their at:// record URIs.
package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/charmbracelet/log"

	"postr/internal/social"
)

const (
	envHandle      = "POSTR_BLUESKY_HANDLE"
	envAppPassword = "POSTR_BLUESKY_APP_PASSWORD"
	envPDSURL      = "POSTR_BLUESKY_PDS_URL"

	providerName   = "bluesky"
	requestTimeout = 30 * time.Second

	postCollection = "app.bsky.feed.post"

	// followerPageSize is the vendor maximum for getFollowers.
	followerPageSize   = 100
	followerPauseEvery = 100
	followerPauseDelay = time.Second
)

const defaultPDSURL = "https://bsky.social"

// Credentials identify the account and its PDS. PDSURL defaults to the
// public bsky.social host.
type Credentials struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

// CredentialsFromEnv reads the bundle from POSTR_BLUESKY_* variables.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}

	var missing []string
	if creds.Handle == "" {
		missing = append(missing, envHandle)
	}
	if creds.AppPassword == "" {
		missing = append(missing, envAppPassword)
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

// Client implements social.Account for Bluesky.
type Client struct {
	client *xrpc.Client
	logger *log.Logger
}

// New logs into the PDS and builds the adapter. An empty credential bundle
// falls back to CredentialsFromEnv.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds := cfg.Credentials
	if creds == (Credentials{}) {
		var err error
		creds, err = CredentialsFromEnv()
		if err != nil {
			return nil, err
		}
	}
	if creds.PDSURL == "" {
		creds.PDSURL = defaultPDSURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	userAgent := "postr/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      creds.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: creds.Handle,
		Password:   creds.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient, logger: logger}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// PostText publishes a plain post.
func (c *Client) PostText(ctx context.Context, text string) (social.Post, error) {
	if strings.TrimSpace(text) == "" {
		return social.Post{}, social.NewError(providerName, "post text", social.KindInvalid, errors.New("empty message"))
	}
	return c.createPost(ctx, text, nil, "")
}

// PostPhoto publishes a post with an image embed.
func (c *Client) PostPhoto(ctx context.Context, req social.Request) (social.Post, error) {
	if strings.TrimSpace(req.MediaPath) == "" {
		return social.Post{}, social.NewError(providerName, "post photo", social.KindInvalid, errors.New("no media path"))
	}

	blob, err := c.uploadImage(ctx, req.MediaPath)
	if err != nil {
		return social.Post{}, err
	}

	return c.createPost(ctx, req.Message, blob, req.MediaAlt)
}

// PostVideo is not implemented for this provider.
func (c *Client) PostVideo(ctx context.Context, req social.Request) (social.Post, error) {
	return social.Post{}, social.Unsupported(providerName, "post video")
}

func (c *Client) createPost(ctx context.Context, text string, blob *util.LexBlob, alt string) (social.Post, error) {
	post := &bsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Text:      text,
	}
	if blob != nil {
		post.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{
				Images: []*bsky.EmbedImages_Image{
					{
						Alt:   alt,
						Image: blob,
					},
				},
			},
		}
	}

	out, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       c.client.Auth.Did,
		Record: &util.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return social.Post{}, classify("post", err)
	}
	c.logger.Debugf("record created: uri=%s", out.Uri)

	result := social.Post{ID: out.Uri, Text: text}
	if rkey, err := rkeyFromURI(out.Uri); err == nil {
		result.URL = postWebURL(c.client.Auth.Handle, rkey)
	}
	return result, nil
}

func (c *Client) uploadImage(ctx context.Context, path string) (*util.LexBlob, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, social.NewError(providerName, "upload media", social.KindInvalid, fmt.Errorf("media %q not found", path))
		}
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}

	resp, err := atproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, classify("upload media", err)
	}

	if resp.Blob == nil {
		return nil, fmt.Errorf("upload blob: empty response")
	}

	return resp.Blob, nil
}

// RemovePost deletes the post record addressed by an at:// URI.
func (c *Client) RemovePost(ctx context.Context, id string) error {
	rkey, err := rkeyFromURI(id)
	if err != nil {
		return social.NewError(providerName, "remove post", social.KindInvalid, err)
	}

	_, err = atproto.RepoDeleteRecord(ctx, c.client, &atproto.RepoDeleteRecord_Input{
		Collection: postCollection,
		Repo:       c.client.Auth.Did,
		Rkey:       rkey,
	})
	if err != nil {
		return classify("remove post", err)
	}
	c.logger.Debugf("record deleted: rkey=%s", rkey)

	return nil
}

// Followers pages through getFollowers for handle, or for the authenticated
// account when handle is empty.
func (c *Client) Followers(ctx context.Context, handle string) ([]string, error) {
	actor := handle
	if actor == "" {
		actor = c.client.Auth.Did
	}

	pacer := &social.Pacer{Every: followerPauseEvery, Delay: followerPauseDelay}

	var handles []string
	cursor := ""
	for {
		out, err := bsky.GraphGetFollowers(ctx, c.client, actor, cursor, followerPageSize)
		if err != nil {
			return nil, classify("followers", err)
		}
		for _, f := range out.Followers {
			handles = append(handles, f.Handle)
			pacer.Tick()
		}
		if out.Cursor == nil || *out.Cursor == "" {
			break
		}
		cursor = *out.Cursor
	}
	c.logger.Debugf("collected followers: count=%d", len(handles))

	return handles, nil
}

// Profile describes the authenticated account.
func (c *Client) Profile(ctx context.Context) (social.Profile, error) {
	out, err := bsky.ActorGetProfile(ctx, c.client, c.client.Auth.Did)
	if err != nil {
		return social.Profile{}, classify("profile", err)
	}
	return social.Profile{
		ID:        out.Did,
		Username:  out.Handle,
		Bio:       strValue(out.Description),
		Followers: intValue(out.FollowersCount),
	}, nil
}

// UpdateProfile is not implemented for this provider; profile records need
// a compare-and-swap putRecord that this adapter does not carry.
func (c *Client) UpdateProfile(ctx context.Context, up social.ProfileUpdate) error {
	return social.Unsupported(providerName, "update profile")
}

// TotalLikes always reports the -1 sentinel: the API has no lifetime like
// counter, so callers treat the value as unavailable.
func (c *Client) TotalLikes(ctx context.Context) (int, error) {
	return -1, nil
}

// LatestFavorites counts likes on the newest own post.
func (c *Client) LatestFavorites(ctx context.Context) (int, error) {
	post, err := c.latestOwnPost(ctx)
	if err != nil {
		return 0, err
	}
	return intValue(post.LikeCount), nil
}

// LatestReposts counts reposts on the newest own post.
func (c *Client) LatestReposts(ctx context.Context) (int, error) {
	post, err := c.latestOwnPost(ctx)
	if err != nil {
		return 0, err
	}
	return intValue(post.RepostCount), nil
}

// FavoritesOn counts likes on the post addressed by an at:// URI.
func (c *Client) FavoritesOn(ctx context.Context, id string) (int, error) {
	post, err := c.lookupPost(ctx, id)
	if err != nil {
		return 0, err
	}
	return intValue(post.LikeCount), nil
}

// RepostsOn counts reposts on the post addressed by an at:// URI.
func (c *Client) RepostsOn(ctx context.Context, id string) (int, error) {
	post, err := c.lookupPost(ctx, id)
	if err != nil {
		return 0, err
	}
	return intValue(post.RepostCount), nil
}

// Stream is not implemented for this provider; following the firehose is a
// different kind of client than these request/response calls.
func (c *Client) Stream(ctx context.Context, keywords []string, h social.Handler) error {
	return social.Unsupported(providerName, "stream")
}

func (c *Client) latestOwnPost(ctx context.Context) (*bsky.FeedDefs_PostView, error) {
	out, err := bsky.FeedGetAuthorFeed(ctx, c.client, c.client.Auth.Did, "", "posts_with_replies", false, 1)
	if err != nil {
		return nil, classify("latest post", err)
	}
	if len(out.Feed) == 0 || out.Feed[0].Post == nil {
		return nil, social.NewError(providerName, "latest post", social.KindNotFound, errors.New("no posts yet"))
	}
	return out.Feed[0].Post, nil
}

func (c *Client) lookupPost(ctx context.Context, id string) (*bsky.FeedDefs_PostView, error) {
	out, err := bsky.FeedGetPosts(ctx, c.client, []string{id})
	if err != nil {
		return nil, classify("lookup post", err)
	}
	if len(out.Posts) == 0 {
		return nil, social.NewError(providerName, "lookup post", social.KindNotFound, fmt.Errorf("no post at %s", id))
	}
	return out.Posts[0], nil
}

// classify converts an xrpc failure into a classified provider error.
func classify(op string, err error) error {
	var xe *xrpc.Error
	if errors.As(err, &xe) {
		return social.FromStatus(providerName, op, xe.StatusCode, err)
	}
	return social.NewError(providerName, op, social.KindUnavailable, err)
}

// rkeyFromURI extracts the record key from an at:// post URI, e.g.
// at://did:plc:abc123/app.bsky.feed.post/3kabc -> 3kabc.
func rkeyFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", fmt.Errorf("not an at:// uri: %q", uri)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] == "" {
		return "", fmt.Errorf("malformed post uri: %q", uri)
	}
	return parts[2], nil
}

func postWebURL(handle, rkey string) string {
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intValue(p *int64) int {
	if p == nil {
		return 0
	}
	return int(*p)
}
