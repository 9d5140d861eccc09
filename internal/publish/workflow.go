package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/metrics"
)

// Outcome is what the upload service returned for an accepted upload.
type Outcome struct {
	VideoID  string
	VideoURL string
}

// Dispatcher sends a publish request to the upload service. Rejections should
// be returned as *domain.UploadError carrying the service message.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) (*Outcome, error)
}

const (
	msgNoArtifact     = "Render a video before publishing."
	msgInFlight       = "A publish is already in progress."
	msgUploadFailed   = "Upload failed."
	msgUploadComplete = "Video uploaded successfully."
)

// Workflow runs publish attempts one at a time and retains the latest result.
// A new attempt clears the previous result when it starts.
type Workflow struct {
	dispatcher Dispatcher
	now        func() time.Time

	mu       sync.Mutex
	inFlight bool
	result   *domain.PublishResult
}

// NewWorkflow creates a workflow dispatching through d.
func NewWorkflow(d Dispatcher) *Workflow {
	return &Workflow{dispatcher: d, now: time.Now}
}

// InFlight reports whether an attempt is running.
func (w *Workflow) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Result returns the retained result. It is nil while an attempt is in flight.
func (w *Workflow) Result() *domain.PublishResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Submit publishes a with the given form. The returned result is never nil;
// the error classifies failures (ErrNotReady, ErrPublishInFlight,
// ErrEncodingFailed, ErrUploadRejected) and is nil on success.
func (w *Workflow) Submit(ctx context.Context, form domain.PublishForm, a domain.Artifact) (*domain.PublishResult, error) {
	if a == nil {
		return w.reject(form, msgNoArtifact, domain.ErrNotReady)
	}
	if field := MissingField(form); field != "" {
		return w.reject(form, fmt.Sprintf("Missing required field: %s.", field),
			fmt.Errorf("%w: %s", domain.ErrNotReady, field))
	}

	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		metrics.PublishTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return w.newResult(form, false, msgInFlight), domain.ErrPublishInFlight
	}
	w.inFlight = true
	w.result = nil
	w.mu.Unlock()

	var (
		result *domain.PublishResult
		err    error
	)
	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.result = result
		w.mu.Unlock()
	}()

	result, err = w.run(ctx, form, a)
	if err != nil {
		metrics.PublishTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error().Err(err).Str("title", form.Title).Msg("publish failed")
	} else {
		metrics.PublishTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		logger.Info().Str("video_id", result.VideoID).Str("url", result.RemoteURL).Msg("publish succeeded")
	}
	return result, err
}

func (w *Workflow) run(ctx context.Context, form domain.PublishForm, a domain.Artifact) (*domain.PublishResult, error) {
	encoded, err := artifact.Encode(ctx, a)
	if err != nil {
		return w.newResult(form, false, "Could not prepare the video for upload."), err
	}

	req := NewRequest(form, encoded)
	logger.Info().
		Str("title", req.Title).
		Str("privacy", req.PrivacyStatus).
		Int("tags", len(req.Tags)).
		Msg("dispatching publish request")

	outcome, err := w.dispatcher.Dispatch(ctx, req)
	if err != nil {
		var uploadErr *domain.UploadError
		if !errors.As(err, &uploadErr) {
			uploadErr = &domain.UploadError{Message: msgUploadFailed, Cause: err}
		}
		if uploadErr.Message == "" {
			uploadErr.Message = msgUploadFailed
		}
		return w.newResult(form, false, uploadErr.Message), uploadErr
	}

	result := w.newResult(form, true, msgUploadComplete)
	if outcome != nil {
		result.VideoID = outcome.VideoID
		result.RemoteURL = outcome.VideoURL
		if result.RemoteURL == "" {
			result.RemoteURL = domain.WatchURL(outcome.VideoID)
		}
	}
	return result, nil
}

func (w *Workflow) reject(form domain.PublishForm, msg string, err error) (*domain.PublishResult, error) {
	metrics.PublishTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	return w.newResult(form, false, msg), err
}

func (w *Workflow) newResult(form domain.PublishForm, ok bool, msg string) *domain.PublishResult {
	return &domain.PublishResult{
		ID:        uuid.NewString(),
		Success:   ok,
		Message:   msg,
		Title:     form.Title,
		Privacy:   form.Privacy,
		CreatedAt: w.now(),
	}
}
