package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/publish"
)

// metadataAllowance covers the JSON fields around videoBase64.
const metadataAllowance = 1 << 20

// handlePublish accepts the publish JSON contract, decodes the video and
// forwards it with the request credentials. Every failure is 400 {error}.
// Credentials are never stored or logged.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxVideoBytes
	r.Body = http.MaxBytesReader(w, r.Body, int64(base64.StdEncoding.EncodedLen(int(limit)))+metadataAllowance)

	var req publish.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusBadRequest, tooLargeMessage(limit))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	video, err := artifact.Decode(req.VideoBase64, limit)
	if err != nil {
		if errors.Is(err, domain.ErrPayloadTooLarge) {
			respondError(w, http.StatusBadRequest, tooLargeMessage(limit))
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.VideoBase64 = ""

	logger.Info().
		Str("title", req.Title).
		Str("privacy", req.PrivacyStatus).
		Str("size", humanize.IBytes(uint64(len(video)))).
		Msg("publish request accepted")

	meta := domain.VideoMetadata{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Privacy:     domain.PrivacyStatus(req.PrivacyStatus),
	}
	id, err := s.uploader.Upload(r.Context(), req.Credentials(), meta, bytes.NewReader(video))
	if err != nil {
		logger.Warn().Err(err).Str("title", req.Title).Msg("upload failed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, publish.Response{VideoID: id, VideoURL: domain.WatchURL(id)})
}

func tooLargeMessage(limit int64) string {
	return domain.ErrPayloadTooLarge.Error() + " of " + humanize.IBytes(uint64(limit))
}
