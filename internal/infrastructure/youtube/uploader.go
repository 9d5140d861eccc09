package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"slidecast/config"
	"slidecast/internal/domain"
	httpclient "slidecast/internal/infrastructure/http"
	"slidecast/internal/logger"
)

// Uploader inserts videos through the YouTube Data API using per-request
// OAuth credentials.
type Uploader struct {
	client            *httpclient.HTTPClient
	endpoint          oauth2.Endpoint
	apiEndpoint       string
	categoryID        string
	language          string
	madeForKids       bool
	notifySubscribers bool
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithEndpoints points the uploader at alternative token and API hosts.
func WithEndpoints(tokenURL, apiEndpoint string) Option {
	return func(u *Uploader) {
		u.endpoint = oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
		u.apiEndpoint = apiEndpoint
	}
}

// NewUploader creates an uploader using the configured upload defaults.
func NewUploader(cfg *config.Config, client *httpclient.HTTPClient, opts ...Option) *Uploader {
	u := &Uploader{
		client:            client,
		endpoint:          google.Endpoint,
		categoryID:        cfg.YouTubeCategoryID,
		language:          cfg.YouTubeDefaultLanguage,
		madeForKids:       cfg.YouTubeMadeForKids,
		notifySubscribers: cfg.YouTubeNotifySubscribers,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload exchanges the refresh token for an access token and inserts media
// with snippet and status. Failures are returned as *domain.UploadError.
func (u *Uploader) Upload(ctx context.Context, creds domain.Credentials, meta domain.VideoMetadata, media io.Reader) (string, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     u.endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	authCtx := context.WithValue(ctx, oauth2.HTTPClient, u.client.GetClient())
	httpClient := oauth2.NewClient(authCtx, conf.TokenSource(authCtx, token))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if u.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(u.apiEndpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return "", &domain.UploadError{Message: "Could not create YouTube client.", Cause: err}
	}

	privacy := meta.Privacy
	if privacy == "" {
		privacy = domain.PrivacyPrivate
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           u.categoryID,
			DefaultLanguage:      u.language,
			DefaultAudioLanguage: u.language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           string(privacy),
			SelfDeclaredMadeForKids: u.madeForKids,
		},
	}

	logger.Info().Str("title", meta.Title).Str("privacy", string(privacy)).Msg("uploading video to YouTube")

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(u.notifySubscribers).
		Media(media).
		Context(ctx).
		Do()
	if err != nil {
		return "", uploadError(err)
	}

	logger.Info().Str("video_id", uploaded.Id).Msg("YouTube upload complete")
	return uploaded.Id, nil
}

func uploadError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("YouTube API returned status %d", apiErr.Code)
		}
		return &domain.UploadError{Message: msg, Cause: err}
	}

	var authErr *oauth2.RetrieveError
	if errors.As(err, &authErr) {
		msg := authErr.ErrorDescription
		if msg == "" {
			msg = authErr.ErrorCode
		}
		if msg == "" {
			msg = "token exchange failed"
		}
		return &domain.UploadError{Message: "Authorization failed: " + msg, Cause: err}
	}

	return &domain.UploadError{Message: "YouTube upload failed: " + err.Error(), Cause: err}
}
