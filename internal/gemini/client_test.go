package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithAudioBuildsRequest(t *testing.T) {
	var got GenerateRequest
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		resp := GenerateResponse{Candidates: []Candidate{
			{Content: CandidateContent{Parts: []Part{{Text: "model output"}}}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "secret")
	text, err := c.GenerateWithAudio(context.Background(), "transcribe this", "QUJD", "audio/webm")

	require.NoError(t, err)
	assert.Equal(t, "model output", text)
	assert.Equal(t, "secret", gotKey)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "transcribe this", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "audio/webm", got.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "QUJD", got.Contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, 0.3, got.GenerationConfig.Temperature)
	assert.Equal(t, 1000, got.GenerationConfig.MaxOutputTokens)
}

func TestGenerateWithAudioSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: &ErrorDetail{
			Code:    429,
			Message: "quota exhausted",
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "secret")
	_, err := c.GenerateWithAudio(context.Background(), "transcribe", "QUJD", "audio/webm")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "quota exhausted", apiErr.Message)
}

func TestFirstTextEmptyResponse(t *testing.T) {
	var resp GenerateResponse
	assert.Equal(t, "", resp.FirstText())

	resp.Candidates = []Candidate{{}}
	assert.Equal(t, "", resp.FirstText())
}
