// Package twitter adapts the X (Twitter) API to the social.Account
// contract. Posting and lookups ride the v2 endpoints through gotwi; the
// few operations v2 never picked up (follower listing, profile updates,
// media alt text) go through gotwi's CallAPI escape hatch against the
// v1.1 endpoints.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/media/upload"
	uploadtypes "github.com/michimani/gotwi/media/upload/types"
	"github.com/michimani/gotwi/resources"
	"github.com/michimani/gotwi/tweet/managetweet"
	managetweettypes "github.com/michimani/gotwi/tweet/managetweet/types"

	"postr/internal/social"
)

const (
	envAPIKey       = "POSTR_TWITTER_CONSUMER_KEY"
	envAPISecret    = "POSTR_TWITTER_CONSUMER_SECRET"
	envAccessToken  = "POSTR_TWITTER_ACCESS_TOKEN"
	envAccessSecret = "POSTR_TWITTER_ACCESS_TOKEN_SECRET"
	envDebug        = "POSTR_TWITTER_DEBUG"

	providerName = "twitter"

	metadataEndpoint = "https://upload.twitter.com/1.1/media/metadata/create.json"
)

var httpTimeout = 30 * time.Second

// Credentials is the OAuth 1.0a user-context bundle: consumer key pair plus
// access token pair for the account being driven.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// CredentialsFromEnv reads the credential bundle from POSTR_TWITTER_*
// variables, reporting every missing one at once.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		APIKey:       strings.TrimSpace(os.Getenv(envAPIKey)),
		APISecret:    strings.TrimSpace(os.Getenv(envAPISecret)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		AccessSecret: strings.TrimSpace(os.Getenv(envAccessSecret)),
	}

	var missing []string
	if creds.APIKey == "" {
		missing = append(missing, envAPIKey)
	}
	if creds.APISecret == "" {
		missing = append(missing, envAPISecret)
	}
	if creds.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}
	if creds.AccessSecret == "" {
		missing = append(missing, envAccessSecret)
	}

	if len(missing) > 0 {
		return Credentials{}, social.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return creds, nil
}

// Config assembles what New needs: a ready credential bundle and the logger
// handle the adapter should write to.
type Config struct {
	Credentials Credentials
	Logger      *log.Logger
	Debug       bool
}

// Client implements social.Account for X (Twitter).
type Client struct {
	api    *gotwi.Client
	logger *log.Logger
}

// New builds the adapter from an already-resolved credential bundle. When
// the bundle is empty it falls back to CredentialsFromEnv.
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

	httpClient := &http.Client{Timeout: httpTimeout}
	debugEnabled := cfg.Debug || os.Getenv(envDebug) == "1"

	client, err := gotwi.NewClient(&gotwi.NewClientInput{
		HTTPClient:           httpClient,
		AuthenticationMethod: gotwi.AuthenMethodOAuth1UserContext,
		OAuthToken:           creds.AccessToken,
		OAuthTokenSecret:     creds.AccessSecret,
		APIKey:               creds.APIKey,
		APIKeySecret:         creds.APISecret,
		Debug:                debugEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create twitter client: %w", err)
	}

	if !client.IsReady() {
		return nil, fmt.Errorf("twitter client not ready")
	}

	return &Client{api: client, logger: logger}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return providerName }

// PostText publishes a plain status.
func (c *Client) PostText(ctx context.Context, text string) (social.Post, error) {
	if strings.TrimSpace(text) == "" {
		return social.Post{}, social.NewError(providerName, "post text", social.KindInvalid, errors.New("empty message"))
	}
	return c.createPost(ctx, text, nil)
}

// PostPhoto uploads the media at req.MediaPath and publishes a status
// carrying it. req.Message may be empty.
func (c *Client) PostPhoto(ctx context.Context, req social.Request) (social.Post, error) {
	if strings.TrimSpace(req.MediaPath) == "" {
		return social.Post{}, social.NewError(providerName, "post photo", social.KindInvalid, errors.New("no media path"))
	}

	c.logger.Debugf("uploading media: path=%s", req.MediaPath)
	mediaID, err := c.uploadMedia(ctx, req.MediaPath, req.MediaAlt)
	if err != nil {
		return social.Post{}, err
	}
	c.logger.Debugf("media uploaded: media_id=%s", mediaID)

	return c.createPost(ctx, req.Message, []string{mediaID})
}

// PostVideo is not implemented for this provider.
func (c *Client) PostVideo(ctx context.Context, req social.Request) (social.Post, error) {
	return social.Post{}, social.Unsupported(providerName, "post video")
}

// RemovePost deletes a post owned by the authenticated account.
func (c *Client) RemovePost(ctx context.Context, id string) error {
	if _, err := managetweet.Delete(ctx, c.api, &managetweettypes.DeleteInput{ID: id}); err != nil {
		return classify("remove post", err)
	}
	c.logger.Debugf("tweet deleted: id=%s", id)
	return nil
}

func (c *Client) createPost(ctx context.Context, text string, mediaIDs []string) (social.Post, error) {
	input := &managetweettypes.CreateInput{
		Text: gotwi.String(text),
	}
	if len(mediaIDs) > 0 {
		input.Media = &managetweettypes.CreateInputMedia{MediaIDs: mediaIDs}
	}

	c.logger.Debugf("posting tweet: media_count=%d", len(mediaIDs))
	res, err := managetweet.Create(ctx, c.api, input)
	if err != nil {
		return social.Post{}, classify("post", err)
	}

	post := social.Post{
		ID:   gotwi.StringValue(res.Data.ID),
		Text: gotwi.StringValue(res.Data.Text),
	}
	post.URL = postURL(post.ID)
	c.logger.Debugf("tweet posted: id=%s", post.ID)

	return post, nil
}

func postURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://x.com/i/web/status/" + id
}

func (c *Client) uploadMedia(ctx context.Context, mediaPath, altText string) (string, error) {
	data, err := os.ReadFile(mediaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", social.NewError(providerName, "upload media", social.KindInvalid, fmt.Errorf("media %q not found", mediaPath))
		}
		return "", fmt.Errorf("read media: %w", err)
	}

	mediaType, category, err := resolveMediaType(mediaPath, data)
	if err != nil {
		return "", err
	}

	c.logger.Debugf("initialize upload: media_type=%s bytes=%d", mediaType, len(data))
	initRes, err := upload.Initialize(ctx, c.api, &uploadtypes.InitializeInput{
		MediaType:     mediaType,
		TotalBytes:    len(data),
		MediaCategory: category,
	})
	if err != nil {
		return "", classify("upload media", err)
	}
	if err := partialError(initRes.Errors); err != nil {
		return "", fmt.Errorf("initialize upload: %w", err)
	}

	mediaID := initRes.Data.MediaID
	c.logger.Debugf("initialize complete: media_id=%s", mediaID)

	appendIn := &uploadtypes.AppendInput{
		MediaID:      mediaID,
		Media:        bytes.NewReader(data),
		SegmentIndex: 0,
	}
	appendIn.GenerateBoundary()

	c.logger.Debugf("append upload: media_id=%s segment=0", mediaID)
	appendRes, err := upload.Append(ctx, c.api, appendIn)
	if err != nil {
		return "", classify("upload media", err)
	}
	if err := partialError(appendRes.Errors); err != nil {
		return "", fmt.Errorf("append upload: %w", err)
	}

	finalizeRes, err := upload.Finalize(ctx, c.api, &uploadtypes.FinalizeInput{MediaID: mediaID})
	if err != nil {
		return "", classify("upload media", err)
	}
	if err := partialError(finalizeRes.Errors); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	state := finalizeRes.Data.ProcessingInfo.State
	c.logger.Debugf("finalize state=%s media_id=%s", state, mediaID)
	switch state {
	case "", resources.ProcessingInfoStateSucceeded:
		// no-op
	case resources.ProcessingInfoStateInProgress, resources.ProcessingInfoStatePending:
		wait := time.Duration(finalizeRes.Data.ProcessingInfo.CheckAfterSecs) * time.Second
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
			// images usually finish within the advertised window.
		}
	default:
		return "", fmt.Errorf("media processing failed: state=%s", state)
	}

	if alt := strings.TrimSpace(altText); alt != "" {
		c.logger.Debugf("setting alt text: media_id=%s", mediaID)
		if err := c.setAltText(ctx, mediaID, alt); err != nil {
			return "", err
		}
	}

	return mediaID, nil
}

func (c *Client) setAltText(ctx context.Context, mediaID, altText string) error {
	params := &metadataParameters{
		mediaID: mediaID,
		altText: altText,
	}

	ctx = context.WithValue(ctx, "Content-Type", "application/json;charset=UTF-8")

	if err := c.api.CallAPI(ctx, metadataEndpoint, http.MethodPost, params, &metadataResponse{}); err != nil {
		return classify("set alt text", err)
	}
	c.logger.Debugf("alt text set: media_id=%s", mediaID)

	return nil
}

func resolveMediaType(path string, data []byte) (uploadtypes.MediaType, uploadtypes.MediaCategory, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return uploadtypes.MediaTypeJPEG, uploadtypes.MediaCategoryTweetImage, nil
	case ".png":
		return uploadtypes.MediaTypePNG, uploadtypes.MediaCategoryTweetImage, nil
	case ".gif":
		return uploadtypes.MediaTypeGIF, uploadtypes.MediaCategoryTweetGIF, nil
	case ".webp":
		return uploadtypes.MediaTypeWebP, uploadtypes.MediaCategoryTweetImage, nil
	}

	// fallback to simple detection
	detected := http.DetectContentType(data)
	switch {
	case strings.Contains(detected, "jpeg"):
		return uploadtypes.MediaTypeJPEG, uploadtypes.MediaCategoryTweetImage, nil
	case strings.Contains(detected, "png"):
		return uploadtypes.MediaTypePNG, uploadtypes.MediaCategoryTweetImage, nil
	case strings.Contains(detected, "gif"):
		return uploadtypes.MediaTypeGIF, uploadtypes.MediaCategoryTweetGIF, nil
	case strings.Contains(detected, "webp"):
		return uploadtypes.MediaTypeWebP, uploadtypes.MediaCategoryTweetImage, nil
	}

	return "", "", social.NewError(providerName, "upload media", social.KindInvalid, fmt.Errorf("unsupported media type for %q", path))
}

func partialError(partials []resources.PartialError) error {
	if len(partials) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(partials))
	for _, pe := range partials {
		switch {
		case pe.Detail != nil && *pe.Detail != "":
			msgs = append(msgs, *pe.Detail)
		case pe.Title != nil && *pe.Title != "":
			msgs = append(msgs, *pe.Title)
		case pe.ResourceType != nil:
			msgs = append(msgs, fmt.Sprintf("%s", *pe.ResourceType))
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "unknown error")
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// classify converts a gotwi failure into a classified provider error so
// callers can branch on the cause.
func classify(op string, err error) error {
	var gwErr *gotwi.GotwiError
	if errors.As(err, &gwErr) && gwErr != nil {
		return social.FromStatus(providerName, op, gwErr.StatusCode, errors.New(summarizeGotwiError(gwErr)))
	}
	return social.NewError(providerName, op, social.KindUnavailable, err)
}

func summarizeGotwiError(err *gotwi.GotwiError) string {
	if err == nil {
		return "unknown X API error"
	}

	parts := make([]string, 0, 4)
	if err.Title != "" {
		parts = append(parts, err.Title)
	}
	if err.Detail != "" {
		parts = append(parts, err.Detail)
	}
	for _, apiErr := range err.APIErrors {
		if apiErr.Message != "" {
			parts = append(parts, apiErr.Message)
		}
	}
	if len(parts) == 0 {
		if msg := err.Error(); msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "X API request failed")
	}

	return strings.Join(parts, "; ")
}

type metadataParameters struct {
	mediaID     string
	altText     string
	accessToken string
}

func (p *metadataParameters) SetAccessToken(token string) {
	p.accessToken = token
}

func (p *metadataParameters) AccessToken() string {
	return p.accessToken
}

func (p *metadataParameters) ResolveEndpoint(endpointBase string) string {
	return endpointBase
}

func (p *metadataParameters) Body() (io.Reader, error) {
	body := struct {
		MediaID string `json:"media_id"`
		AltText struct {
			Text string `json:"text"`
		} `json:"alt_text"`
	}{}
	body.MediaID = p.mediaID
	body.AltText.Text = p.altText

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func (p *metadataParameters) ParameterMap() map[string]string {
	return map[string]string{}
}

type metadataResponse struct{}

func (metadataResponse) HasPartialError() bool { return false }
