// Package publishapi dispatches publish requests to the upload service over HTTP.
package publishapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"slidecast/internal/domain"
	infrastructure "slidecast/internal/infrastructure/http"
	"slidecast/internal/logger"
	"slidecast/internal/publish"
)

const maxResponseBytes = 1 << 20

// Client implements publish.Dispatcher against the publish endpoint.
type Client struct {
	client   *infrastructure.HTTPClient
	endpoint string
}

// New creates a client posting to endpoint.
func New(httpClient *infrastructure.HTTPClient, endpoint string) *Client {
	return &Client{client: httpClient, endpoint: endpoint}
}

// Dispatch posts req and maps the reply. Non-2xx replies become
// *domain.UploadError with the server message when one is present.
func (c *Client) Dispatch(ctx context.Context, req *publish.Request) (*publish.Outcome, error) {
	resp, err := c.client.PostJSON(ctx, c.endpoint, req)
	if err != nil {
		return nil, &domain.UploadError{Message: "Could not reach the upload service.", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.UploadError{Message: "Could not read the upload service response.", Cause: err}
	}

	var payload publish.Response
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(payload.Error)
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("Upload failed with status %d.", resp.StatusCode)
		}
		logger.Warn().Int("status", resp.StatusCode).Str("error", msg).Msg("upload service rejected publish")
		return nil, &domain.UploadError{Message: msg}
	}
	if decodeErr != nil {
		return nil, &domain.UploadError{Message: "Upload service returned an invalid response.", Cause: decodeErr}
	}

	outcome := &publish.Outcome{VideoID: payload.VideoID, VideoURL: payload.VideoURL}
	if outcome.VideoURL == "" {
		outcome.VideoURL = domain.WatchURL(outcome.VideoID)
	}
	return outcome, nil
}
