// Package publish validates publish form state and runs the publish workflow.
package publish

import (
	"strings"

	"slidecast/internal/domain"
)

// ParseTags splits raw on commas, trims each piece and drops empty ones.
// Duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, piece := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(piece); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Form is the editable publish form. Tags are normalized on every update.
type Form struct {
	domain.PublishForm
	RawTags string
}

// NewForm returns an empty form with private visibility.
func NewForm() *Form {
	return &Form{PublishForm: domain.PublishForm{Tags: []string{}, Privacy: domain.PrivacyPrivate}}
}

// SetTags stores the raw input and its normalized tags.
func (f *Form) SetTags(raw string) {
	f.RawTags = raw
	f.Tags = ParseTags(raw)
}

// SetPrivacy updates the privacy status. Invalid values leave the form unchanged.
func (f *Form) SetPrivacy(s string) error {
	p, err := domain.ParsePrivacy(s)
	if err != nil {
		return err
	}
	f.Privacy = p
	return nil
}

// Snapshot returns a copy safe to hand to a running workflow.
func (f *Form) Snapshot() domain.PublishForm {
	snap := f.PublishForm
	snap.Tags = append([]string{}, f.Tags...)
	return snap
}

// MissingField returns the first required field that is blank, or "".
func MissingField(form domain.PublishForm) string {
	fields := []struct {
		name  string
		value string
	}{
		{"title", form.Title},
		{"description", form.Description},
		{"clientId", form.Credentials.ClientID},
		{"clientSecret", form.Credentials.ClientSecret},
		{"refreshToken", form.Credentials.RefreshToken},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// CanPublish reports whether an artifact exists and every required field is set.
func CanPublish(form domain.PublishForm, hasArtifact bool) bool {
	return hasArtifact && MissingField(form) == ""
}
