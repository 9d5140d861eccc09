// Package composition turns the current scenes and render settings into a render job.
package composition

import (
	"fmt"

	"slidecast/config"
	"slidecast/internal/domain"
	"slidecast/internal/scenes"
)

// SceneSource provides a consistent copy of the scenes to render.
type SceneSource interface {
	Snapshot() ([]domain.Scene, uint64)
}

// Build snapshots src into an immutable CompositionRequest. Zero dimensions and
// frame rate fall back to 1280x720 at 30fps; durations are clamped into range.
func Build(src SceneSource, params domain.RenderParams) (domain.CompositionRequest, error) {
	list, generation := src.Snapshot()
	if len(list) == 0 {
		return domain.CompositionRequest{}, domain.ErrEmptyComposition
	}

	width, height, fps := params.Width, params.Height, params.FPS
	if width == 0 {
		width = config.DefaultWidth
	}
	if height == 0 {
		height = config.DefaultHeight
	}
	if fps == 0 {
		fps = config.DefaultFPS
	}
	if width < 0 || height < 0 || fps < 0 {
		return domain.CompositionRequest{}, fmt.Errorf("%w: %dx%d@%d", domain.ErrInvalidDimension, width, height, fps)
	}

	snapshot := make([]domain.Scene, len(list))
	for i, sc := range list {
		sc.Duration = scenes.ClampDuration(sc.Duration)
		snapshot[i] = sc
	}

	return domain.CompositionRequest{
		Scenes:          snapshot,
		Width:           width,
		Height:          height,
		FPS:             fps,
		BackgroundAudio: cloneAudio(params.BackgroundAudio),
		Generation:      generation,
	}, nil
}

func cloneAudio(a *domain.AudioAsset) *domain.AudioAsset {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}
