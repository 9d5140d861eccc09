package domain

import "errors"

var (
	// ErrEmptyComposition means there are no scenes to render.
	ErrEmptyComposition = errors.New("composition has no scenes")

	// ErrEngineBusy means a render is already in flight.
	ErrEngineBusy = errors.New("render engine is busy")

	// ErrEngineNotReady means the engine has not been loaded.
	ErrEngineNotReady = errors.New("render engine is not ready")

	// ErrRenderFailed wraps an encoding engine failure.
	ErrRenderFailed = errors.New("render failed")

	// ErrEncodingFailed means the artifact could not be transport-encoded.
	ErrEncodingFailed = errors.New("artifact encoding failed")

	// ErrNotReady means publish preconditions are unmet.
	ErrNotReady = errors.New("publish preconditions not met")

	// ErrPublishInFlight means another publish attempt has not finished.
	ErrPublishInFlight = errors.New("publish already in progress")

	// ErrUploadRejected means the upload service or transport failed.
	ErrUploadRejected = errors.New("upload rejected")

	ErrSceneNotFound    = errors.New("scene not found")
	ErrDuplicateScene   = errors.New("scene id already exists")
	ErrInvalidGradient  = errors.New("gradient colors must be hex values")
	ErrInvalidPrivacy   = errors.New("privacy status must be public, unlisted or private")
	ErrPayloadTooLarge  = errors.New("video exceeds the maximum upload size")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidDimension = errors.New("render dimensions must be positive")
	ErrInvalidAudioPath = errors.New("background audio must name a file inside the audio directory")
)

// RenderError carries the underlying engine failure. It matches both
// ErrRenderFailed and its cause with errors.Is.
type RenderError struct {
	Cause error
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return ErrRenderFailed.Error()
	}
	return ErrRenderFailed.Error() + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRenderFailed}
	}
	return []error{ErrRenderFailed, e.Cause}
}

// UploadError carries the best available message from the upload service.
type UploadError struct {
	Message string
	Cause   error
}

func (e *UploadError) Error() string {
	return e.Message
}

func (e *UploadError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUploadRejected}
	}
	return []error{ErrUploadRejected, e.Cause}
}
