package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/internal/artifact"
	"slidecast/internal/domain"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	reqs    []*Request
	outcome *Outcome
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req *Request) (*Outcome, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.outcome, f.err
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func TestSubmitBuildsRequestFromForm(t *testing.T) {
	d := &fakeDispatcher{outcome: &Outcome{VideoID: "abc123"}}
	w := NewWorkflow(d)

	form := NewForm()
	form.PublishForm = completeForm()
	form.SetTags("x,y")

	result, err := w.Submit(context.Background(), form.Snapshot(), artifact.Bytes("video"))
	require.NoError(t, err)

	require.Equal(t, 1, d.calls())
	req := d.reqs[0]
	assert.Equal(t, []string{"x", "y"}, req.Tags)
	assert.NotEmpty(t, req.VideoBase64)
	assert.Equal(t, "Launch", req.Title)
	assert.Equal(t, "private", req.PrivacyStatus)
	assert.Equal(t, "token", req.RefreshToken)

	assert.True(t, result.Success)
	assert.Equal(t, "abc123", result.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", result.RemoteURL)
	assert.Same(t, result, w.Result())
	assert.False(t, w.InFlight())
}

func TestSubmitKeepsServiceURL(t *testing.T) {
	d := &fakeDispatcher{outcome: &Outcome{VideoID: "v1", VideoURL: "https://youtu.be/v1"}}
	result, err := NewWorkflow(d).Submit(context.Background(), completeForm(), artifact.Bytes("video"))
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/v1", result.RemoteURL)
}

func TestSubmitUploadRejected(t *testing.T) {
	d := &fakeDispatcher{err: &domain.UploadError{Message: "quota exceeded"}}
	w := NewWorkflow(d)

	result, err := w.Submit(context.Background(), completeForm(), artifact.Bytes("video"))
	assert.ErrorIs(t, err, domain.ErrUploadRejected)
	assert.False(t, result.Success)
	assert.Equal(t, "quota exceeded", result.Message)
	assert.Empty(t, result.RemoteURL)
	assert.False(t, w.InFlight())
	assert.Same(t, result, w.Result())
}

func TestSubmitTransportErrorUsesGenericMessage(t *testing.T) {
	cause := errors.New("connection refused")
	d := &fakeDispatcher{err: cause}

	result, err := NewWorkflow(d).Submit(context.Background(), completeForm(), artifact.Bytes("video"))
	assert.ErrorIs(t, err, domain.ErrUploadRejected)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Upload failed.", result.Message)
}

func TestSubmitWithoutArtifact(t *testing.T) {
	d := &fakeDispatcher{}
	result, err := NewWorkflow(d).Submit(context.Background(), completeForm(), nil)
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.False(t, result.Success)
	assert.Zero(t, d.calls())
}

func TestSubmitRevalidatesForm(t *testing.T) {
	d := &fakeDispatcher{}
	form := completeForm()
	form.Description = ""

	result, err := NewWorkflow(d).Submit(context.Background(), form, artifact.Bytes("video"))
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Contains(t, result.Message, "description")
	assert.Zero(t, d.calls())
}

func TestSubmitEncodingFailureAbortsBeforeDispatch(t *testing.T) {
	d := &fakeDispatcher{}
	w := NewWorkflow(d)

	result, err := w.Submit(context.Background(), completeForm(), artifact.Bytes(nil))
	assert.ErrorIs(t, err, domain.ErrEncodingFailed)
	assert.False(t, result.Success)
	assert.Zero(t, d.calls())
	assert.False(t, w.InFlight())
}

func TestSubmitWhileInFlight(t *testing.T) {
	d := &fakeDispatcher{
		outcome: &Outcome{VideoID: "first"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	w := NewWorkflow(d)

	// leave a stale result behind
	d2 := &fakeDispatcher{err: &domain.UploadError{Message: "old"}}
	w.dispatcher = d2
	_, _ = w.Submit(context.Background(), completeForm(), artifact.Bytes("video"))
	require.NotNil(t, w.Result())
	w.dispatcher = d

	done := make(chan *domain.PublishResult, 1)
	go func() {
		r, _ := w.Submit(context.Background(), completeForm(), artifact.Bytes("video"))
		done <- r
	}()

	select {
	case <-d.entered:
	case <-time.After(time.Second):
		t.Fatal("dispatch not reached")
	}
	assert.True(t, w.InFlight())
	assert.Nil(t, w.Result(), "previous result is cleared when an attempt starts")

	second, err := w.Submit(context.Background(), completeForm(), artifact.Bytes("video"))
	assert.ErrorIs(t, err, domain.ErrPublishInFlight)
	assert.False(t, second.Success)
	assert.Nil(t, w.Result())

	close(d.gate)
	first := <-done
	assert.True(t, first.Success)
	assert.Equal(t, 1, d.calls())
	assert.False(t, w.InFlight())
	assert.Same(t, first, w.Result())
}
