package domain

import (
	"io"
	"time"
)

// AudioAsset is an optional background track mixed under the whole video.
// Exactly one of Path or Data is set.
type AudioAsset struct {
	Name string
	Path string
	Data []byte
}

// RenderParams are the global render settings chosen by the user.
type RenderParams struct {
	Width           int
	Height          int
	FPS             int
	BackgroundAudio *AudioAsset
}

// CompositionRequest is an immutable snapshot of scenes plus render parameters.
// It is built fresh for every render and never mutated afterwards.
type CompositionRequest struct {
	Scenes          []Scene
	Width           int
	Height          int
	FPS             int
	BackgroundAudio *AudioAsset

	// Generation is the scene store generation the snapshot was taken from
	Generation uint64
}

// Runtime returns the total runtime in seconds.
func (r CompositionRequest) Runtime() int {
	total := 0
	for _, s := range r.Scenes {
		total += s.Duration
	}
	return total
}

// Artifact is rendered binary video data.
type Artifact interface {
	// Open returns a fresh reader positioned at the start of the data
	Open() (io.ReadCloser, error)

	// Size returns the artifact length in bytes, or -1 when unknown
	Size() int64
}

// RenderResult is the output of a completed render.
type RenderResult struct {
	Artifact Artifact

	// PlayableRef resolves locally to the artifact for preview.
	// It is invalidated by the next render.
	PlayableRef string

	Generation uint64
	RenderedAt time.Time
	Elapsed    time.Duration
}
