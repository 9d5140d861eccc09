package render

import (
	"context"
	"sync"
	"time"

	"slidecast/internal/domain"
)

const progressBuffer = 16

// Job is one render in flight. Progress values are non-decreasing, clamped to
// [0, 1], and the progress channel is closed before Done is closed.
type Job struct {
	ID        string
	Request   domain.CompositionRequest
	StartedAt time.Time

	mu       sync.Mutex
	latest   float64
	sent     bool
	finished bool
	progress chan float64
	done     chan struct{}
	result   *domain.RenderResult
	err      error
}

func newJob(id string, req domain.CompositionRequest, startedAt time.Time) *Job {
	return &Job{
		ID:        id,
		Request:   req,
		StartedAt: startedAt,
		progress:  make(chan float64, progressBuffer),
		done:      make(chan struct{}),
	}
}

// Progress streams progress ratios. Slow readers may miss intermediate values
// but never see them out of order.
func (j *Job) Progress() <-chan float64 {
	return j.progress
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Latest returns the most recent progress ratio.
func (j *Job) Latest() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.latest
}

// Result returns the terminal outcome. It is nil, nil until Done is closed.
func (j *Job) Result() (*domain.RenderResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (*domain.RenderResult, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) report(v float64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.finished {
		return
	}
	if v < 0 || v != v {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	if v < j.latest {
		v = j.latest
	}
	if j.sent && v == j.latest {
		return
	}
	j.latest = v
	j.sent = true

	select {
	case j.progress <- v:
	default:
		// drop the oldest queued value; the producer holds j.mu so the send below cannot block
		select {
		case <-j.progress:
		default:
		}
		j.progress <- v
	}
}

func (j *Job) finish(result *domain.RenderResult, err error) {
	if err == nil {
		j.report(1)
	}

	j.mu.Lock()
	j.finished = true
	j.result = result
	j.err = err
	close(j.progress)
	j.mu.Unlock()

	close(j.done)
}
