package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"slidecast/config"
	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	"slidecast/internal/infrastructure/ffmpeg"
	"slidecast/internal/scenes"
	"slidecast/internal/usecase"
)

type scenesResponse struct {
	Scenes  []domain.Scene `json:"scenes"`
	Runtime int            `json:"runtime"`
}

type seedRequest struct {
	Topic string `json:"topic"`
}

type moveRequest struct {
	Index int `json:"index"`
}

type duplicateResponse struct {
	Duplicated bool          `json:"duplicated"`
	Scene      *domain.Scene `json:"scene,omitempty"`
}

type renderRequest struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	FPS    int `json:"fps,omitempty"`

	// BackgroundAudioPath names a file inside render.audio_dir
	BackgroundAudioPath string `json:"backgroundAudioPath,omitempty"`

	BackgroundAudioBase64 string `json:"backgroundAudioBase64,omitempty"`
	BackgroundAudioName   string `json:"backgroundAudioName,omitempty"`
}

type renderStatusResponse struct {
	State       string          `json:"state"`
	Rendering   bool            `json:"rendering"`
	Progress    float64         `json:"progress"`
	HasArtifact bool            `json:"hasArtifact"`
	Notice      *usecase.Notice `json:"notice,omitempty"`
}

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) scenesPayload() scenesResponse {
	list := s.studio.Scenes().List()
	return scenesResponse{Scenes: list, Runtime: scenes.TotalRuntime(list)}
}

func (s *Server) listScenes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.scenesPayload())
}

func (s *Server) addScene(w http.ResponseWriter, r *http.Request) {
	var scene domain.Scene
	if err := decodeJSON(r, &scene); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if scene.Duration == 0 {
		scene.Duration = config.DefaultSceneDuration
	}
	scene.Duration = scenes.ClampDuration(scene.Duration)

	added, err := s.studio.Scenes().Add(scene)
	if err != nil {
		respondError(w, sceneErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, added)
}

func (s *Server) seedScenes(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.studio.Scenes().Seed(req.Topic)
	respondJSON(w, http.StatusOK, s.scenesPayload())
}

func (s *Server) updateScene(w http.ResponseWriter, r *http.Request) {
	var patch domain.ScenePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.Duration != nil {
		d := scenes.ClampDuration(*patch.Duration)
		patch.Duration = &d
	}

	updated, err := s.studio.Scenes().Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, sceneErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) removeScene(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.Scenes().Remove(chi.URLParam(r, "id")); err != nil {
		respondError(w, sceneErrorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) duplicateScene(w http.ResponseWriter, r *http.Request) {
	clone, ok := s.studio.Scenes().Duplicate(chi.URLParam(r, "id"))
	if !ok {
		respondJSON(w, http.StatusOK, duplicateResponse{Duplicated: false})
		return
	}
	respondJSON(w, http.StatusCreated, duplicateResponse{Duplicated: true, Scene: &clone})
}

func (s *Server) moveScene(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.studio.Scenes().Move(chi.URLParam(r, "id"), req.Index); err != nil {
		respondError(w, sceneErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.scenesPayload())
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{
		"runtime": s.studio.Scenes().TotalRuntime(),
		"scenes":  s.studio.Scenes().Len(),
	})
}

func (s *Server) startRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	params := s.studio.RenderParams()
	if req.Width != 0 {
		params.Width = req.Width
	}
	if req.Height != 0 {
		params.Height = req.Height
	}
	if req.FPS != 0 {
		params.FPS = req.FPS
	}
	switch {
	case req.BackgroundAudioBase64 != "":
		data, err := artifact.Decode(req.BackgroundAudioBase64, s.cfg.MaxVideoBytes)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.BackgroundAudio = &domain.AudioAsset{Name: req.BackgroundAudioName, Data: data}
	case req.BackgroundAudioPath != "":
		path, err := ffmpeg.ResolveAudioPath(s.cfg.AudioDir, req.BackgroundAudioPath)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.BackgroundAudio = &domain.AudioAsset{Name: req.BackgroundAudioPath, Path: path}
	default:
		params.BackgroundAudio = nil
	}
	s.studio.SetRenderParams(params)

	job, err := s.studio.Render(r.Context())
	if err != nil {
		respondError(w, renderErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"jobId":   job.ID,
		"runtime": job.Request.Runtime(),
	})
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request) {
	st := s.studio.Status()
	respondJSON(w, http.StatusOK, renderStatusResponse{
		State:       st.RenderState.String(),
		Rendering:   st.Rendering,
		Progress:    st.Progress,
		HasArtifact: st.HasArtifact,
		Notice:      st.Notice,
	})
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request) {
	current := s.studio.Current()
	if current == nil {
		respondError(w, http.StatusNotFound, "no rendered video")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	if f, ok := current.Artifact.(artifact.File); ok {
		http.ServeFile(w, r, f.Path)
		return
	}

	rc, err := current.Artifact.Open()
	if err != nil {
		respondError(w, http.StatusGone, "rendered video is no longer available")
		return
	}
	defer rc.Close()
	if size := current.Artifact.Size(); size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.studio.Status())
}

func (s *Server) updateForm(w http.ResponseWriter, r *http.Request) {
	var patch usecase.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.studio.UpdateForm(patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	st := s.studio.Status()
	respondJSON(w, http.StatusOK, map[string]any{
		"form":       st.Form,
		"canPublish": st.CanPublish,
	})
}

func (s *Server) studioPublish(w http.ResponseWriter, r *http.Request) {
	result, err := s.studio.Publish(r.Context())
	if errors.Is(err, domain.ErrPublishInFlight) {
		respondJSON(w, http.StatusConflict, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) listPublishes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := s.studio.History(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func sceneErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSceneNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateScene):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func renderErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEngineBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyComposition), errors.Is(err, domain.ErrInvalidDimension):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}
