package translate

import "errors"

// Error messages are part of the HTTP contract and are surfaced to callers
// verbatim.
var (
	// ErrAudioRequired rejects requests with an empty audio payload.
	ErrAudioRequired = errors.New("Audio data is required")

	// ErrMisconfigured means the backend credential is absent from the
	// process environment. Configuration-level, not per-request.
	ErrMisconfigured = errors.New("API key not configured")

	// ErrMalformedResponse means no parseable JSON object was found in the
	// model output.
	ErrMalformedResponse = errors.New("Failed to parse translation response")

	// ErrMissingFields means the parsed object lacks the transcription or
	// the translation. Treated as a failed transcription, never as a
	// partial success.
	ErrMissingFields = errors.New("Missing transcription or translation in response")
)

// RateLimitError is upstream throttling, propagated with its own type so
// the proxy client's backoff logic can react to it.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// UpstreamError is any other failure talking to the generative-AI backend.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}
