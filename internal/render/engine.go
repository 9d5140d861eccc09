// Package render owns the lifecycle of the external encoding engine: load it
// once, run one job at a time, stream progress and hand back the artifact.
package render

import (
	"context"

	"slidecast/internal/domain"
)

// Engine can render a CompositionRequest to a video artifact.
type Engine interface {
	// Load prepares the engine. It is called at most once per successful load.
	Load(ctx context.Context) error

	// Render encodes req, calling progress with ratios in [0, 1]. Progress calls
	// must happen before Render returns.
	Render(ctx context.Context, req domain.CompositionRequest, progress func(float64)) (*Output, error)
}

// Output is what an Engine produces for one render.
type Output struct {
	Artifact domain.Artifact

	// PlayableRef is a local reference for previewing the artifact
	PlayableRef string

	// Release invalidates PlayableRef and frees the artifact. May be nil.
	Release func() error
}

// State is the adapter lifecycle state.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateRendering
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalText lets State serialize as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
