// Package translate implements the translation service: the only component
// that talks to the generative-AI backend. It enforces the request contract
// and insulates callers from the shape of model output.
package translate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vaani/internal/gemini"
	"vaani/internal/language"
	"vaani/pkg/cache"
	"vaani/pkg/logger"
	"vaani/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AudioMIMEType is the media type of capture payloads.
const AudioMIMEType = "audio/webm"

// Generator produces model output for an instruction plus inlined audio.
type Generator interface {
	GenerateWithAudio(ctx context.Context, instruction, audioBase64, mimeType string) (string, error)
}

// RecordStore persists completed translations for audit.
type RecordStore interface {
	SaveTranslation(ctx context.Context, record *model.TranslationRecord) error
}

// AudioArchive stores received audio payloads.
type AudioArchive interface {
	ArchiveAudio(ctx context.Context, id string, audio []byte, contentType string) (string, error)
}

// Service handles one translation round trip per call. It is stateless per
// call and never retries; retry is the caller's responsibility.
type Service struct {
	gen     Generator
	apiKey  string
	cache   cache.Cache
	records RecordStore
	archive AudioArchive
}

// Option wires optional collaborators into the service.
type Option func(*Service)

// WithCache caches results keyed by the audio payload and language pair.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecordStore enables the server-side audit log.
func WithRecordStore(r RecordStore) Option {
	return func(s *Service) { s.records = r }
}

// WithAudioArchive enables archival of received audio.
func WithAudioArchive(a AudioArchive) Option {
	return func(s *Service) { s.archive = a }
}

// NewService creates a translation service. apiKey may be empty: the
// misconfiguration is then surfaced per request, matching the endpoint
// contract.
func NewService(gen Generator, apiKey string, opts ...Option) *Service {
	s := &Service{
		gen:    gen,
		apiKey: apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate performs a single transcribe-and-translate round trip. On
// success both fields of the result are populated and trimmed; otherwise no
// result is returned at all.
func (s *Service) Translate(ctx context.Context, req model.TranslationRequest) (model.TranslationResult, error) {
	if err := req.Validate(language.IsSupported); err != nil {
		if errors.Is(err, model.ErrEmptyAudio) {
			return model.TranslationResult{}, ErrAudioRequired
		}
		return model.TranslationResult{}, err
	}
	if s.apiKey == "" {
		return model.TranslationResult{}, ErrMisconfigured
	}

	cacheKey := cache.TranslationCacheKey(req.Audio, req.SourceLanguage, req.TargetLanguage)
	if s.cache != nil {
		var cached model.TranslationResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			logger.Debug("Translation served from cache",
				zap.String("source", req.SourceLanguage),
				zap.String("target", req.TargetLanguage))
			return cached, nil
		}
	}

	instruction := buildInstruction(req.SourceLanguage, req.TargetLanguage)

	text, err := s.gen.GenerateWithAudio(ctx, instruction, req.Audio, AudioMIMEType)
	if err != nil {
		return model.TranslationResult{}, mapUpstreamError(err)
	}

	span, err := firstJSONObject(text)
	if err != nil {
		logger.Error("Model output carried no JSON object",
			zap.String("output", text))
		return model.TranslationResult{}, ErrMalformedResponse
	}

	var parsed struct {
		Original   string `json:"original"`
		Translated string `json:"translated"`
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		logger.Error("Failed to parse model JSON",
			zap.Error(err),
			zap.String("span", span))
		return model.TranslationResult{}, ErrMalformedResponse
	}

	original := strings.TrimSpace(parsed.Original)
	translated := strings.TrimSpace(parsed.Translated)
	if original == "" || translated == "" {
		return model.TranslationResult{}, ErrMissingFields
	}

	result := model.TranslationResult{
		Original:   original,
		Translated: translated,
	}

	s.persist(ctx, req, result)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result); err != nil {
			logger.Warn("Failed to cache translation", zap.Error(err))
		}
	}

	return result, nil
}

// persist records the completed translation and archives the audio. Both
// are best effort and never fail the translate call.
func (s *Service) persist(ctx context.Context, req model.TranslationRequest, result model.TranslationResult) {
	if s.records == nil && s.archive == nil {
		return
	}

	id := uuid.New().String()
	var audioKey *string

	if s.archive != nil {
		if raw, err := base64.StdEncoding.DecodeString(req.Audio); err == nil {
			key, err := s.archive.ArchiveAudio(ctx, id, raw, AudioMIMEType)
			if err != nil {
				logger.Warn("Failed to archive audio", zap.Error(err))
			} else {
				audioKey = &key
			}
		} else {
			logger.Warn("Audio payload is not valid base64, skipping archive", zap.Error(err))
		}
	}

	if s.records != nil {
		record := &model.TranslationRecord{
			ID:             id,
			Original:       result.Original,
			Translated:     result.Translated,
			SourceLanguage: req.SourceLanguage,
			TargetLanguage: req.TargetLanguage,
			AudioKey:       audioKey,
			CreatedAt:      time.Now(),
		}
		if err := s.records.SaveTranslation(ctx, record); err != nil {
			logger.Warn("Failed to save translation record", zap.Error(err))
		}
	}
}

// buildInstruction phrases the model prompt per the auto-detect sentinel.
func buildInstruction(sourceLanguage, targetLanguage string) string {
	const format = `Return ONLY valid JSON in this exact format: {"original": "transcribed text here", "translated": "translated text here"}`

	targetName := language.Name(targetLanguage)
	if sourceLanguage == model.AutoDetect {
		return fmt.Sprintf("Transcribe the audio and translate it to %s. %s", targetName, format)
	}
	return fmt.Sprintf("Transcribe the audio that is spoken in %s and translate it to %s. %s",
		language.Name(sourceLanguage), targetName, format)
}

// mapUpstreamError classifies failures of the external call. Throttling
// keeps its status so the proxy client's backoff can see it; everything
// else becomes an upstream error carrying the best available message.
func mapUpstreamError(err error) error {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Message: "API rate limit exceeded. Please try again in a moment."}
		}
		msg := apiErr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return &UpstreamError{Message: fmt.Sprintf("API error: %s", msg)}
	}
	return &UpstreamError{Message: fmt.Sprintf("API error: %v", err)}
}
