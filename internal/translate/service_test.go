package translate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"vaani/internal/gemini"
	"vaani/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls        int
	instructions []string
	text         string
	err          error
}

func (f *fakeGenerator) GenerateWithAudio(ctx context.Context, instruction, audioBase64, mimeType string) (string, error) {
	f.calls++
	f.instructions = append(f.instructions, instruction)
	return f.text, f.err
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.data[key]
	if !ok {
		return errors.New("key not found")
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Close() error { return nil }

type fakeRecordStore struct {
	saved []*model.TranslationRecord
	err   error
}

func (f *fakeRecordStore) SaveTranslation(ctx context.Context, record *model.TranslationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, record)
	return nil
}

type fakeArchive struct {
	keys []string
	data [][]byte
	err  error
}

func (f *fakeArchive) ArchiveAudio(ctx context.Context, id string, audio []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "audio/" + id
	f.keys = append(f.keys, key)
	f.data = append(f.data, audio)
	return key, nil
}

func validRequest() model.TranslationRequest {
	return model.TranslationRequest{
		Audio:          base64.StdEncoding.EncodeToString([]byte("opus bytes")),
		SourceLanguage: "auto",
		TargetLanguage: "hi",
	}
}

func TestTranslateEmptyAudioMakesNoExternalCall(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), model.TranslationRequest{
		SourceLanguage: "auto",
		TargetLanguage: "hi",
	})

	assert.ErrorIs(t, err, ErrAudioRequired)
	assert.Equal(t, 0, gen.calls)
}

func TestTranslateRejectsUnsupportedTarget(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, "key")

	req := validRequest()
	req.TargetLanguage = "xx"
	_, err := svc.Translate(context.Background(), req)

	assert.ErrorIs(t, err, model.ErrBadTarget)
	assert.Equal(t, 0, gen.calls)
}

func TestTranslateRejectsAutoAsTarget(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, "key")

	req := validRequest()
	req.TargetLanguage = model.AutoDetect
	_, err := svc.Translate(context.Background(), req)

	assert.ErrorIs(t, err, model.ErrAutoAsTarget)
	assert.Equal(t, 0, gen.calls)
}

func TestTranslateRejectsUnsupportedSource(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, "key")

	req := validRequest()
	req.SourceLanguage = "xx"
	_, err := svc.Translate(context.Background(), req)

	assert.ErrorIs(t, err, model.ErrBadSourceLang)
	assert.Equal(t, 0, gen.calls)
}

func TestTranslateWhitespaceOnlyFieldIsMissing(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "   ", "translated": "namaste"}`}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestTranslateMissingAPIKey(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, "")

	_, err := svc.Translate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrMisconfigured)
	assert.Equal(t, 0, gen.calls)
}

func TestTranslateExtractsFromProseWrappedJSON(t *testing.T) {
	gen := &fakeGenerator{text: `Here is the result: {"original": "hello", "translated": "namaste"}`}
	svc := NewService(gen, "key")

	result, err := svc.Translate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "hello", result.Original)
	assert.Equal(t, "namaste", result.Translated)
}

func TestTranslateTrimsWhitespace(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "  hello \n", "translated": "\tnamaste  "}`}
	svc := NewService(gen, "key")

	result, err := svc.Translate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "hello", result.Original)
	assert.Equal(t, "namaste", result.Translated)
}

func TestTranslateMissingTranslatedField(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "hello"}`}
	svc := NewService(gen, "key")

	result, err := svc.Translate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Equal(t, model.TranslationResult{}, result)
}

func TestTranslateProseOnlyOutput(t *testing.T) {
	gen := &fakeGenerator{text: "I could not understand the audio."}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestTranslateInvalidJSONSpan(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": hello}`}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestTranslateRateLimitKeepsType(t *testing.T) {
	gen := &fakeGenerator{err: &gemini.APIError{StatusCode: http.StatusTooManyRequests}}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Contains(t, rle.Message, "rate limit")
}

func TestTranslateUpstreamErrorCarriesMessage(t *testing.T) {
	gen := &fakeGenerator{err: &gemini.APIError{StatusCode: http.StatusBadGateway, Message: "backend exploded"}}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "API error: backend exploded", ue.Message)
}

func TestTranslateNetworkErrorIsUpstream(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	svc := NewService(gen, "key")

	_, err := svc.Translate(context.Background(), validRequest())

	var ue *UpstreamError
	assert.ErrorAs(t, err, &ue)
}

func TestTranslateInstructionPerSourceLanguage(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "a", "translated": "b"}`}
	svc := NewService(gen, "key")

	req := validRequest()
	_, err := svc.Translate(context.Background(), req)
	require.NoError(t, err)

	req.SourceLanguage = "ta"
	req.Audio = base64.StdEncoding.EncodeToString([]byte("different"))
	_, err = svc.Translate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, gen.instructions, 2)
	assert.Contains(t, gen.instructions[0], "Transcribe the audio and translate it to Hindi.")
	assert.NotContains(t, gen.instructions[0], "spoken in")
	assert.Contains(t, gen.instructions[1], "spoken in Tamil")
	assert.Contains(t, gen.instructions[1], "translate it to Hindi")
}

func TestTranslateCacheHitSkipsUpstream(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "hello", "translated": "namaste"}`}
	c := newFakeCache()
	svc := NewService(gen, "key", WithCache(c))

	first, err := svc.Translate(context.Background(), validRequest())
	require.NoError(t, err)

	second, err := svc.Translate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls)
}

func TestTranslatePersistsRecordAndArchive(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "hello", "translated": "namaste"}`}
	records := &fakeRecordStore{}
	archive := &fakeArchive{}
	svc := NewService(gen, "key", WithRecordStore(records), WithAudioArchive(archive))

	_, err := svc.Translate(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, records.saved, 1)
	rec := records.saved[0]
	assert.Equal(t, "hello", rec.Original)
	assert.Equal(t, "namaste", rec.Translated)
	assert.Equal(t, "auto", rec.SourceLanguage)
	assert.Equal(t, "hi", rec.TargetLanguage)
	require.NotNil(t, rec.AudioKey)

	require.Len(t, archive.data, 1)
	assert.Equal(t, []byte("opus bytes"), archive.data[0])
}

func TestTranslatePersistenceFailuresAreNonFatal(t *testing.T) {
	gen := &fakeGenerator{text: `{"original": "hello", "translated": "namaste"}`}
	records := &fakeRecordStore{err: errors.New("db down")}
	archive := &fakeArchive{err: errors.New("bucket down")}
	svc := NewService(gen, "key", WithRecordStore(records), WithAudioArchive(archive))

	result, err := svc.Translate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "hello", result.Original)
}
