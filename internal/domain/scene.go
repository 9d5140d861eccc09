package domain

import (
	"regexp"
	"strings"
)

// Gradient is the pair of colors painted behind a scene, from first to second.
type Gradient [2]string

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Valid reports whether both colors are well-formed hex colors (#rgb, #rrggbb or #rrggbbaa).
func (g Gradient) Valid() bool {
	return hexColor.MatchString(strings.TrimSpace(g[0])) && hexColor.MatchString(strings.TrimSpace(g[1]))
}

// Scene is one narrated, timed segment of the composed video.
type Scene struct {
	// ID is opaque and stable for the scene's lifetime
	ID string `json:"id"`

	// Title is the short display headline
	Title string `json:"title"`

	// Narration is the voice-over script shown on the slide
	Narration string `json:"narration"`

	// Duration is the number of seconds allotted to the scene
	Duration int `json:"duration"`

	// Gradient is the visual background
	Gradient Gradient `json:"gradient"`

	// Emphasis is an authoring note with no effect on rendering
	Emphasis string `json:"emphasis,omitempty"`
}

// ScenePatch is a shallow, field-level update. Nil fields are left unchanged.
type ScenePatch struct {
	Title     *string   `json:"title,omitempty"`
	Narration *string   `json:"narration,omitempty"`
	Duration  *int      `json:"duration,omitempty"`
	Gradient  *Gradient `json:"gradient,omitempty"`
	Emphasis  *string   `json:"emphasis,omitempty"`
}

// Apply returns s with every non-nil patch field copied over.
func (p ScenePatch) Apply(s Scene) Scene {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Narration != nil {
		s.Narration = *p.Narration
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.Gradient != nil {
		s.Gradient = *p.Gradient
	}
	if p.Emphasis != nil {
		s.Emphasis = *p.Emphasis
	}
	return s
}
