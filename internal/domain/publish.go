package domain

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// PrivacyStatus is the visibility of an uploaded video.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// ParsePrivacy validates s against the closed set of privacy statuses.
func ParsePrivacy(s string) (PrivacyStatus, error) {
	switch p := PrivacyStatus(strings.TrimSpace(s)); p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPrivacy, s)
}

// Credentials authorize an upload. They live only for the active session and
// are never persisted or logged.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether every credential is present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// PublishForm is the user-entered upload metadata and credentials.
type PublishForm struct {
	Title       string
	Description string
	Tags        []string
	Privacy     PrivacyStatus
	Credentials Credentials
}

// PublishResult is the terminal outcome of one publish attempt.
type PublishResult struct {
	// ID identifies the stored record
	ID string `json:"id"`

	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RemoteURL string `json:"remoteUrl,omitempty"`
	VideoID   string `json:"videoId,omitempty"`

	Title     string        `json:"title"`
	Privacy   PrivacyStatus `json:"privacyStatus"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PublishRecordRepository stores publish outcomes. Credentials are never part of a record.
type PublishRecordRepository interface {
	// Save inserts a result, assigning ID and CreatedAt when empty
	Save(result *PublishResult) error

	// List returns the most recent results first
	List(limit int) ([]*PublishResult, error)

	// GetByID returns nil, nil when the record does not exist
	GetByID(id string) (*PublishResult, error)
}

// WatchURLPrefix is the public watch page for an uploaded video id.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// WatchURL returns the watch page for id, or "" when id is empty.
func WatchURL(id string) string {
	if id == "" {
		return ""
	}
	return WatchURLPrefix + id
}

// VideoMetadata describes an upload on the remote platform.
type VideoMetadata struct {
	Title       string
	Description string
	Tags        []string
	Privacy     PrivacyStatus
}

// Uploader sends a video to the hosting platform and returns its id.
// Credentials are used for this call only.
type Uploader interface {
	Upload(ctx context.Context, creds Credentials, meta VideoMetadata, media io.Reader) (string, error)
}
