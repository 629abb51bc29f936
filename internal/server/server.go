// Package server exposes the translation service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"vaani/internal/storage"
	"vaani/internal/translate"
	"vaani/pkg/logger"
	"vaani/pkg/model"
	"vaani/pkg/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Translator handles one translation round trip.
type Translator interface {
	Translate(ctx context.Context, req model.TranslationRequest) (model.TranslationResult, error)
}

// TranslationReader reads the server-side audit log.
type TranslationReader interface {
	GetTranslation(ctx context.Context, id string) (*model.TranslationRecord, error)
	RecentTranslations(ctx context.Context, limit int) ([]*model.TranslationRecord, error)
}

// AudioFetcher retrieves archived audio payloads by object key.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, key string) ([]byte, error)
}

type Server struct {
	addr       string
	svc        Translator
	limiter    *resilience.RateLimiter
	records    TranslationReader
	audio      AudioFetcher
	httpServer *http.Server
}

// Option wires optional collaborators into the server.
type Option func(*Server)

// WithTranslationReader exposes the audit log over GET /api/translations.
func WithTranslationReader(r TranslationReader) Option {
	return func(s *Server) { s.records = r }
}

// WithAudioFetcher serves archived audio alongside audit rows. Requires a
// TranslationReader; without one no audio route is registered.
func WithAudioFetcher(f AudioFetcher) Option {
	return func(s *Server) { s.audio = f }
}

// New creates the API server. limiter may be nil to disable local
// throttling.
func New(addr string, svc Translator, limiter *resilience.RateLimiter, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		svc:     svc,
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Audit routes appear only when a reader
// is configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.records != nil {
		mux.HandleFunc("GET /api/translations", s.handleRecentTranslations)
		mux.HandleFunc("GET /api/translations/{id}", s.handleGetTranslation)
		if s.audio != nil {
			mux.HandleFunc("GET /api/translations/{id}/audio", s.handleGetAudio)
		}
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("API server listening", zap.String("addr", s.addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	log := logger.With(zap.String("request_id", requestID))

	if s.limiter != nil && !s.limiter.Allow() {
		log.Warn("Local rate limit exceeded")
		writeError(w, http.StatusTooManyRequests, "API rate limit exceeded. Please try again in a moment.")
		return
	}

	var req model.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log.Info("Translation request",
		zap.String("source", req.SourceLanguage),
		zap.String("target", req.TargetLanguage),
		zap.Int("audio_bytes", len(req.Audio)))

	result, err := s.svc.Translate(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		log.Error("Translation failed",
			zap.Int("status", status),
			zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	log.Info("Translation completed",
		zap.Int("original_length", len(result.Original)),
		zap.Int("translated_length", len(result.Translated)))

	writeJSON(w, http.StatusOK, result)
}

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

func (s *Server) handleRecentTranslations(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records, err := s.records.RecentTranslations(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to list translations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list translations")
		return
	}
	if records == nil {
		records = []*model.TranslationRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetTranslation(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookupRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookupRecord(w, r)
	if !ok {
		return
	}
	if record.AudioKey == nil {
		writeError(w, http.StatusNotFound, "No audio archived for this translation")
		return
	}

	audio, err := s.audio.FetchAudio(r.Context(), *record.AudioKey)
	if err != nil {
		logger.Error("Failed to fetch archived audio",
			zap.String("key", *record.AudioKey),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch audio")
		return
	}

	w.Header().Set("Content-Type", translate.AudioMIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) lookupRecord(w http.ResponseWriter, r *http.Request) (*model.TranslationRecord, bool) {
	record, err := s.records.GetTranslation(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Translation not found")
			return nil, false
		}
		logger.Error("Failed to get translation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get translation")
		return nil, false
	}
	return record, true
}

// statusFor maps service errors onto the HTTP contract: request contract
// violations are bad requests, upstream throttling keeps its 429 so client
// backoff can react, and everything else is a 500.
func statusFor(err error) int {
	var rle *translate.RateLimitError
	switch {
	case errors.Is(err, translate.ErrAudioRequired),
		errors.Is(err, model.ErrBadTarget),
		errors.Is(err, model.ErrAutoAsTarget),
		errors.Is(err, model.ErrBadSourceLang):
		return http.StatusBadRequest
	case errors.As(err, &rle):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
