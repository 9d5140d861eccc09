package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"slidecast/config"
	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	"slidecast/internal/publish"
	"slidecast/internal/render"
	"slidecast/internal/repository/memory"
	"slidecast/internal/scenes"
)

type stubEngine struct {
	mu        sync.Mutex
	err       error
	requests  []domain.CompositionRequest
	released  int
	renderGap chan struct{}
}

func (e *stubEngine) Load(ctx context.Context) error { return nil }

func (e *stubEngine) Render(ctx context.Context, req domain.CompositionRequest, progress func(float64)) (*render.Output, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	err := e.err
	gap := e.renderGap
	e.mu.Unlock()

	progress(0.5)
	if gap != nil {
		<-gap
	}
	if err != nil {
		return nil, err
	}
	return &render.Output{
		Artifact:    artifact.Bytes("rendered"),
		PlayableRef: "memory://render",
		Release: func() error {
			e.mu.Lock()
			e.released++
			e.mu.Unlock()
			return nil
		},
	}, nil
}

type stubDispatcher struct {
	mu   sync.Mutex
	reqs []*publish.Request
	err  error
}

func (d *stubDispatcher) Dispatch(ctx context.Context, req *publish.Request) (*publish.Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	if d.err != nil {
		return nil, d.err
	}
	return &publish.Outcome{VideoID: "abc123"}, nil
}

type fixture struct {
	studio     *Studio
	engine     *stubEngine
	dispatcher *stubDispatcher
	records    *memory.PublishRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		engine:     &stubEngine{},
		dispatcher: &stubDispatcher{},
		records:    memory.NewPublishRepository(),
	}
	store := scenes.NewStore(scenes.WithRand(rand.New(rand.NewSource(1))))
	f.studio = NewStudio(config.Default(), store, render.NewAdapter(f.engine), publish.NewWorkflow(f.dispatcher), f.records)
	t.Cleanup(func() {
		f.studio.WaitRenders()
		_ = f.studio.Close()
	})
	return f
}

func strPtr(s string) *string { return &s }

func fillForm(t *testing.T, s *Studio) {
	t.Helper()
	require.NoError(t, s.UpdateForm(FormPatch{
		Title:        strPtr("Launch"),
		Description:  strPtr("Launch video"),
		Tags:         strPtr("x,y"),
		ClientID:     strPtr("id"),
		ClientSecret: strPtr("secret"),
		RefreshToken: strPtr("token"),
	}))
}

func TestSeedTopicProducesSixScenes(t *testing.T) {
	f := newFixture(t)
	f.studio.Scenes().Seed("Test Topic")

	st := f.studio.Status()
	require.Len(t, st.Scenes, 6)
	for _, sc := range st.Scenes {
		assert.Equal(t, 6, sc.Duration)
	}
	assert.Equal(t, 36, st.Runtime)
}

func TestRenderEmptyStoreSetsNotice(t *testing.T) {
	f := newFixture(t)

	_, err := f.studio.Render(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyComposition)

	st := f.studio.Status()
	require.NotNil(t, st.Notice)
	assert.Equal(t, NoticeError, st.Notice.Level)
	assert.Equal(t, render.StateUnloaded, st.RenderState)
}

func TestRenderThenPublish(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFixture(t)
	f.studio.Scenes().Seed("Test Topic")
	fillForm(t, f.studio)
	assert.False(t, f.studio.CanPublish(), "no artifact yet")

	job, err := f.studio.Render(context.Background())
	require.NoError(t, err)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)
	f.studio.WaitRenders()

	st := f.studio.Status()
	assert.True(t, st.HasArtifact)
	assert.Equal(t, int64(len("rendered")), st.ArtifactBytes)
	require.NotNil(t, st.Notice)
	assert.Equal(t, NoticeInfo, st.Notice.Level)
	assert.True(t, st.CanPublish)
	assert.True(t, st.Form.HasCredentials)
	assert.Len(t, f.engine.requests[0].Scenes, 6)

	result, err := f.studio.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", result.RemoteURL)

	require.Len(t, f.dispatcher.reqs, 1)
	assert.Equal(t, []string{"x", "y"}, f.dispatcher.reqs[0].Tags)
	assert.NotEmpty(t, f.dispatcher.reqs[0].VideoBase64)

	history, err := f.studio.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "abc123", history[0].VideoID)
	assert.Same(t, result, f.studio.Status().PublishResult)
}

func TestPublishFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.err = &domain.UploadError{Message: "quota exceeded"}
	f.studio.Scenes().Seed("x")
	fillForm(t, f.studio)

	job, err := f.studio.Render(context.Background())
	require.NoError(t, err)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)

	result, err := f.studio.Publish(context.Background())
	assert.ErrorIs(t, err, domain.ErrUploadRejected)
	assert.False(t, result.Success)
	assert.Equal(t, "quota exceeded", result.Message)

	history, err := f.studio.History(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestPublishWithoutRender(t *testing.T) {
	f := newFixture(t)
	fillForm(t, f.studio)

	result, err := f.studio.Publish(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.False(t, result.Success)
	assert.Empty(t, f.dispatcher.reqs)
}

func TestRenderFailureSetsNotice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFixture(t)
	f.engine.err = errors.New("encoder crashed")
	f.studio.Scenes().Seed("x")

	job, err := f.studio.Render(context.Background())
	require.NoError(t, err)
	_, err = job.Wait(context.Background())
	assert.ErrorIs(t, err, domain.ErrRenderFailed)
	f.studio.WaitRenders()

	st := f.studio.Status()
	require.NotNil(t, st.Notice)
	assert.Equal(t, NoticeError, st.Notice.Level)
	assert.Contains(t, st.Notice.Message, "encoder crashed")
	assert.Equal(t, render.StateReady, st.RenderState)
	assert.False(t, st.HasArtifact)
}

func TestRenderBusyKeepsRunningJob(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFixture(t)
	f.engine.renderGap = make(chan struct{})
	f.studio.Scenes().Seed("x")

	job, err := f.studio.Render(context.Background())
	require.NoError(t, err)

	_, err = f.studio.Render(context.Background())
	assert.ErrorIs(t, err, domain.ErrEngineBusy)
	assert.Nil(t, f.studio.Status().Notice)

	close(f.engine.renderGap)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)
	f.studio.WaitRenders()
}

func TestRenderSnapshotIgnoresLaterEdits(t *testing.T) {
	f := newFixture(t)
	f.engine.renderGap = make(chan struct{})
	f.studio.Scenes().Seed("x")

	job, err := f.studio.Render(context.Background())
	require.NoError(t, err)

	first := f.studio.Scenes().List()[0]
	_, err = f.studio.Scenes().Update(first.ID, domain.ScenePatch{Title: strPtr("edited")})
	require.NoError(t, err)

	close(f.engine.renderGap)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "edited", job.Request.Scenes[0].Title)
}

func TestUpdateFormRejectsInvalidPrivacy(t *testing.T) {
	f := newFixture(t)
	err := f.studio.UpdateForm(FormPatch{Title: strPtr("New"), PrivacyStatus: strPtr("secret")})
	assert.ErrorIs(t, err, domain.ErrInvalidPrivacy)

	st := f.studio.Status()
	assert.Empty(t, st.Form.Title, "rejected patch leaves the form unchanged")
	assert.Equal(t, domain.PrivacyPrivate, st.Form.PrivacyStatus)

	require.NoError(t, f.studio.UpdateForm(FormPatch{Tags: strPtr("a, ,b,b ")}))
	assert.Equal(t, []string{"a", "b", "b"}, f.studio.Status().Form.Tags)
}
