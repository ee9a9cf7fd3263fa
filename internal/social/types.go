package social

import "context"

// Request is the media payload shared across all providers.
type Request struct {
	Message   string
	MediaPath string
	MediaAlt  string
}

// Post identifies a published status on a provider.
type Post struct {
	ID   string
	Text string
	URL  string
}

// Profile describes the authenticated identity on a provider.
// Followers is -1 when the provider does not report a count.
type Profile struct {
	ID        string
	Username  string
	Bio       string
	Followers int
}

// ProfileUpdate carries profile mutations. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
}

// Account abstracts an authenticated social network account. Every method
// either succeeds or returns an *Error describing which capability failed
// and why; providers that lack a capability report KindUnsupported instead
// of guessing.
type Account interface {
	Name() string

	PostText(ctx context.Context, text string) (Post, error)
	PostPhoto(ctx context.Context, req Request) (Post, error)
	PostVideo(ctx context.Context, req Request) (Post, error)
	RemovePost(ctx context.Context, id string) error

	// Followers returns follower handles for the given handle, or for the
	// authenticated account when handle is empty.
	Followers(ctx context.Context, handle string) ([]string, error)
	Profile(ctx context.Context) (Profile, error)
	UpdateProfile(ctx context.Context, up ProfileUpdate) error

	// TotalLikes reports the lifetime like count across all posts.
	// Providers that cannot answer return -1 with a nil error.
	TotalLikes(ctx context.Context) (int, error)
	LatestFavorites(ctx context.Context) (int, error)
	LatestReposts(ctx context.Context) (int, error)
	FavoritesOn(ctx context.Context, id string) (int, error)
	RepostsOn(ctx context.Context, id string) (int, error)

	// Stream delivers live posts matching any of the keywords to h until
	// ctx is done or the provider drops the connection.
	Stream(ctx context.Context, keywords []string, h Handler) error
}
