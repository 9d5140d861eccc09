package publish

import (
	"fmt"
	"strings"

	"slidecast/internal/domain"
)

// Request is the JSON body accepted by the publish endpoint.
type Request struct {
	VideoBase64   string   `json:"videoBase64"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	PrivacyStatus string   `json:"privacyStatus,omitempty"`
	ClientID      string   `json:"clientId"`
	ClientSecret  string   `json:"clientSecret"`
	RefreshToken  string   `json:"refreshToken"`
}

// Response is the publish endpoint reply. Error is set only on failure.
type Response struct {
	VideoID  string `json:"videoId,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Validate checks required fields in wire order and applies the privacy default.
func (r *Request) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"videoBase64", r.VideoBase64},
		{"title", r.Title},
		{"description", r.Description},
		{"clientId", r.ClientID},
		{"clientSecret", r.ClientSecret},
		{"refreshToken", r.RefreshToken},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", domain.ErrMissingField, f.name)
		}
	}

	if r.PrivacyStatus == "" {
		r.PrivacyStatus = string(domain.PrivacyPrivate)
	}
	privacy, err := domain.ParsePrivacy(r.PrivacyStatus)
	if err != nil {
		return err
	}
	r.PrivacyStatus = string(privacy)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return nil
}

// Credentials extracts the request credentials.
func (r *Request) Credentials() domain.Credentials {
	return domain.Credentials{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RefreshToken: r.RefreshToken,
	}
}

// NewRequest merges form state with an encoded artifact.
func NewRequest(form domain.PublishForm, videoBase64 string) *Request {
	privacy := form.Privacy
	if privacy == "" {
		privacy = domain.PrivacyPrivate
	}
	tags := append([]string{}, form.Tags...)
	return &Request{
		VideoBase64:   videoBase64,
		Title:         form.Title,
		Description:   form.Description,
		Tags:          tags,
		PrivacyStatus: string(privacy),
		ClientID:      form.Credentials.ClientID,
		ClientSecret:  form.Credentials.ClientSecret,
		RefreshToken:  form.Credentials.RefreshToken,
	}
}
