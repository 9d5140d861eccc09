package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"slidecast/config"
	"slidecast/internal/composition"
	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/publish"
	"slidecast/internal/render"
	"slidecast/internal/scenes"
)

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a user-visible message about the last render attempt.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// FormPatch updates publish form fields. Nil fields are left unchanged.
type FormPatch struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Tags          *string `json:"tags,omitempty"`
	PrivacyStatus *string `json:"privacyStatus,omitempty"`
	ClientID      *string `json:"clientId,omitempty"`
	ClientSecret  *string `json:"clientSecret,omitempty"`
	RefreshToken  *string `json:"refreshToken,omitempty"`
}

// FormView is the publish form without credential values.
type FormView struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	RawTags        string               `json:"rawTags"`
	Tags           []string             `json:"tags"`
	PrivacyStatus  domain.PrivacyStatus `json:"privacyStatus"`
	HasCredentials bool                 `json:"hasCredentials"`
}

// Status is a snapshot of the editing session for the UI.
type Status struct {
	Scenes        []domain.Scene        `json:"scenes"`
	Runtime       int                   `json:"runtime"`
	RenderState   render.State          `json:"renderState"`
	Rendering     bool                  `json:"rendering"`
	Progress      float64               `json:"progress"`
	HasArtifact   bool                  `json:"hasArtifact"`
	ArtifactBytes int64                 `json:"artifactBytes,omitempty"`
	Notice        *Notice               `json:"notice,omitempty"`
	Form          FormView              `json:"form"`
	CanPublish    bool                  `json:"canPublish"`
	Publishing    bool                  `json:"publishing"`
	PublishResult *domain.PublishResult `json:"publishResult,omitempty"`
}

// Studio is one editing session: a scene store, the render adapter, the
// publish form and the publish workflow.
type Studio struct {
	store    *scenes.Store
	adapter  *render.Adapter
	workflow *publish.Workflow
	records  domain.PublishRecordRepository

	mu      sync.Mutex
	form    *publish.Form
	params  domain.RenderParams
	notice  *Notice
	renders sync.WaitGroup
}

// NewStudio wires a session. records may be nil to skip persistence.
func NewStudio(
	cfg *config.Config,
	store *scenes.Store,
	adapter *render.Adapter,
	workflow *publish.Workflow,
	records domain.PublishRecordRepository,
) *Studio {
	form := publish.NewForm()
	if p, err := domain.ParsePrivacy(cfg.DefaultPrivacy); err == nil {
		form.Privacy = p
	}
	return &Studio{
		store:    store,
		adapter:  adapter,
		workflow: workflow,
		records:  records,
		form:     form,
		params: domain.RenderParams{
			Width:  cfg.RenderWidth,
			Height: cfg.RenderHeight,
			FPS:    cfg.RenderFPS,
		},
	}
}

// Scenes returns the session's scene store.
func (s *Studio) Scenes() *scenes.Store {
	return s.store
}

// RenderParams returns the current global render settings.
func (s *Studio) RenderParams() domain.RenderParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetRenderParams replaces the global render settings.
func (s *Studio) SetRenderParams(p domain.RenderParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// Render snapshots the scenes and starts a render. The render outlives ctx's
// cancellation; failures are also recorded as the session notice.
func (s *Studio) Render(ctx context.Context) (*render.Job, error) {
	req, err := composition.Build(s.store, s.RenderParams())
	if err != nil {
		s.fail("Add at least one scene before rendering.", err)
		return nil, err
	}

	if err := s.adapter.Load(ctx); err != nil {
		s.fail("The render engine could not be loaded.", err)
		return nil, err
	}

	job, err := s.adapter.Generate(context.WithoutCancel(ctx), req)
	if err != nil {
		if errors.Is(err, domain.ErrEngineBusy) {
			// the running render keeps its own notice
			return nil, err
		}
		s.fail("The render could not be started.", err)
		return nil, err
	}
	s.setNotice(nil)

	s.renders.Add(1)
	go func() {
		defer s.renders.Done()
		<-job.Done()
		if _, err := job.Result(); err != nil {
			s.fail("Render failed. Check the scenes and try again.", err)
			return
		}
		s.setNotice(&Notice{Level: NoticeInfo, Message: "Render complete.", At: time.Now()})
	}()
	return job, nil
}

// WaitRenders blocks until every started render has been observed.
func (s *Studio) WaitRenders() {
	s.renders.Wait()
}

// Current returns the latest non-superseded render result.
func (s *Studio) Current() *domain.RenderResult {
	return s.adapter.Current()
}

// UpdateForm applies patch. An invalid privacy status rejects the whole patch.
func (s *Studio) UpdateForm(patch FormPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.PrivacyStatus != nil {
		if _, err := domain.ParsePrivacy(*patch.PrivacyStatus); err != nil {
			return err
		}
	}

	f := s.form
	if patch.Title != nil {
		f.Title = *patch.Title
	}
	if patch.Description != nil {
		f.Description = *patch.Description
	}
	if patch.Tags != nil {
		f.SetTags(*patch.Tags)
	}
	if patch.PrivacyStatus != nil {
		_ = f.SetPrivacy(*patch.PrivacyStatus)
	}
	if patch.ClientID != nil {
		f.Credentials.ClientID = *patch.ClientID
	}
	if patch.ClientSecret != nil {
		f.Credentials.ClientSecret = *patch.ClientSecret
	}
	if patch.RefreshToken != nil {
		f.Credentials.RefreshToken = *patch.RefreshToken
	}
	return nil
}

// CanPublish reports the publish readiness predicate for the session.
func (s *Studio) CanPublish() bool {
	s.mu.Lock()
	form := s.form.Snapshot()
	s.mu.Unlock()
	return s.adapter.Current() != nil && !s.workflow.InFlight() && publish.CanPublish(form, true)
}

// Publish submits the current artifact with the form. The result is stored
// without credentials; a rejected concurrent submit is not stored.
func (s *Studio) Publish(ctx context.Context) (*domain.PublishResult, error) {
	s.mu.Lock()
	form := s.form.Snapshot()
	s.mu.Unlock()

	var a domain.Artifact
	if current := s.adapter.Current(); current != nil {
		a = current.Artifact
	}

	result, err := s.workflow.Submit(ctx, form, a)
	if errors.Is(err, domain.ErrPublishInFlight) {
		return result, err
	}

	if s.records != nil {
		record := *result
		if saveErr := s.records.Save(&record); saveErr != nil {
			logger.Error().Err(saveErr).Msg("failed to store publish result")
		}
	}
	return result, err
}

// History returns stored publish results, newest first.
func (s *Studio) History(limit int) ([]*domain.PublishResult, error) {
	if s.records == nil {
		return []*domain.PublishResult{}, nil
	}
	return s.records.List(limit)
}

// Status returns a snapshot of the session.
func (s *Studio) Status() Status {
	s.mu.Lock()
	form := s.form.Snapshot()
	rawTags := s.form.RawTags
	notice := s.notice
	s.mu.Unlock()

	list, _ := s.store.Snapshot()
	st := Status{
		Scenes:      list,
		Runtime:     scenes.TotalRuntime(list),
		RenderState: s.adapter.State(),
		Notice:      notice,
		Form: FormView{
			Title:          form.Title,
			Description:    form.Description,
			RawTags:        rawTags,
			Tags:           form.Tags,
			PrivacyStatus:  form.Privacy,
			HasCredentials: form.Credentials.Complete(),
		},
		Publishing:    s.workflow.InFlight(),
		PublishResult: s.workflow.Result(),
	}
	st.Progress, st.Rendering = s.adapter.Progress()
	if current := s.adapter.Current(); current != nil {
		st.HasArtifact = true
		st.ArtifactBytes = current.Artifact.Size()
	}
	st.CanPublish = st.HasArtifact && !st.Publishing && publish.CanPublish(form, true)
	return st
}

// Close releases the held render artifact.
func (s *Studio) Close() error {
	return s.adapter.Close()
}

func (s *Studio) fail(msg string, err error) {
	logger.Warn().Err(err).Msg(msg)
	s.setNotice(&Notice{Level: NoticeError, Message: msg + " (" + err.Error() + ")", At: time.Now()})
}

func (s *Studio) setNotice(n *Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = n
}
