package render

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/metrics"
)

// Adapter serializes access to an Engine. At most one render runs at a time
// and the previous playable reference is released before a new render starts.
type Adapter struct {
	engine Engine
	group  singleflight.Group
	now    func() time.Time

	mu         sync.Mutex
	state      State
	loadErr    error
	job        *Job
	current    *domain.RenderResult
	release    func() error
	generation uint64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter wraps engine. The engine is not loaded until Load is called.
func NewAdapter(engine Engine, opts ...Option) *Adapter {
	a := &Adapter{engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load prepares the engine. Concurrent callers share one initialization; once
// Ready, Load is a no-op. A failed load may be retried.
func (a *Adapter) Load(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateReady || a.state == StateRendering {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	_, err, _ := a.group.Do("load", func() (any, error) {
		a.mu.Lock()
		if a.state == StateReady || a.state == StateRendering {
			a.mu.Unlock()
			return nil, nil
		}
		a.state = StateLoading
		a.loadErr = nil
		a.mu.Unlock()

		logger.Info().Msg("loading render engine")
		err := a.engine.Load(ctx)

		a.mu.Lock()
		defer a.mu.Unlock()
		if err != nil {
			a.state = StateFailed
			a.loadErr = err
			logger.Error().Err(err).Msg("render engine failed to load")
			return nil, err
		}
		a.state = StateReady
		logger.Info().Msg("render engine ready")
		return nil, nil
	})
	return err
}

// Generate starts rendering req and returns immediately. It fails with
// ErrEngineBusy while another render runs and ErrEngineNotReady before Load
// succeeds. The render runs until it finishes or ctx is cancelled.
func (a *Adapter) Generate(ctx context.Context, req domain.CompositionRequest) (*Job, error) {
	if len(req.Scenes) == 0 {
		return nil, domain.ErrEmptyComposition
	}

	a.mu.Lock()
	switch a.state {
	case StateReady:
	case StateRendering:
		a.mu.Unlock()
		metrics.RenderTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, domain.ErrEngineBusy
	default:
		a.mu.Unlock()
		return nil, domain.ErrEngineNotReady
	}

	release := a.release
	a.current = nil
	a.release = nil
	a.generation++
	a.state = StateRendering

	job := newJob(uuid.NewString(), req, a.now())
	a.job = job
	generation := a.generation
	a.mu.Unlock()

	if release != nil {
		if err := release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release previous render")
		}
	}

	metrics.RenderInFlight.Set(1)
	logger.Info().
		Str("job", job.ID).
		Int("scenes", len(req.Scenes)).
		Int("runtime", req.Runtime()).
		Msg("render started")

	go a.run(ctx, job, generation)
	return job, nil
}

func (a *Adapter) run(ctx context.Context, job *Job, generation uint64) {
	out, err := a.engine.Render(ctx, job.Request, job.report)
	finishedAt := a.now()
	elapsed := finishedAt.Sub(job.StartedAt)

	var result *domain.RenderResult
	if err == nil && (out == nil || out.Artifact == nil) {
		err = domain.ErrRenderFailed
	}
	if err != nil {
		err = &domain.RenderError{Cause: err}
		if out != nil && out.Release != nil {
			_ = out.Release()
		}
	} else {
		result = &domain.RenderResult{
			Artifact:    out.Artifact,
			PlayableRef: out.PlayableRef,
			Generation:  generation,
			RenderedAt:  finishedAt,
			Elapsed:     elapsed,
		}
	}

	a.mu.Lock()
	a.state = StateReady
	a.job = nil
	if result != nil {
		a.current = result
		a.release = out.Release
	}
	a.mu.Unlock()

	metrics.RenderInFlight.Set(0)
	metrics.RenderDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.RenderTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error().Err(err).Str("job", job.ID).Msg("render failed")
	} else {
		metrics.RenderTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		metrics.ArtifactBytes.Observe(float64(result.Artifact.Size()))
		logger.Info().
			Str("job", job.ID).
			Dur("elapsed", elapsed).
			Int64("bytes", result.Artifact.Size()).
			Msg("render completed")
	}

	job.finish(result, err)
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LoadError returns the error of the last failed load.
func (a *Adapter) LoadError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

// Current returns the latest successful render, or nil when none is held or
// a newer render has invalidated it.
func (a *Adapter) Current() *domain.RenderResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// ActiveJob returns the running job, if any.
func (a *Adapter) ActiveJob() *Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.job
}

// Progress reports the running job's progress.
func (a *Adapter) Progress() (float64, bool) {
	job := a.ActiveJob()
	if job == nil {
		return 0, false
	}
	return job.Latest(), true
}

// Close releases the held artifact. Running renders are not interrupted;
// cancel their context to stop them.
func (a *Adapter) Close() error {
	a.mu.Lock()
	release := a.release
	a.current = nil
	a.release = nil
	a.mu.Unlock()

	if release != nil {
		return release()
	}
	return nil
}
