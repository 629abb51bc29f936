package model

import (
	"errors"
	"time"
)

// AutoDetect is the sentinel source language meaning "detect the spoken
// language instead of assuming one". It is never a valid target.
const AutoDetect = "auto"

var (
	ErrEmptyAudio    = errors.New("audio payload is empty")
	ErrBadTarget     = errors.New("target language is not supported")
	ErrAutoAsTarget  = errors.New("target language cannot be auto")
	ErrBadSourceLang = errors.New("source language is not supported")
)

// TranslationRequest is the payload sent to the translation endpoint.
// Audio carries base64-encoded sample data.
type TranslationRequest struct {
	Audio          string `json:"audio"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// Validate enforces the request contract. supported reports registry
// membership of a language code; the registry itself lives elsewhere so
// this package stays dependency-free.
func (r TranslationRequest) Validate(supported func(code string) bool) error {
	if r.Audio == "" {
		return ErrEmptyAudio
	}
	if r.SourceLanguage != AutoDetect && !supported(r.SourceLanguage) {
		return ErrBadSourceLang
	}
	if r.TargetLanguage == AutoDetect {
		return ErrAutoAsTarget
	}
	if !supported(r.TargetLanguage) {
		return ErrBadTarget
	}
	return nil
}

// TranslationResult is the transcript pair produced by a successful round
// trip. Both fields are present and trimmed, or the whole result is absent
// and an error is surfaced instead.
type TranslationResult struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// HistoryEntry is one past translation. Owned exclusively by the history
// store; IDs increase strictly with append time.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	Original       string    `json:"original"`
	Translated     string    `json:"translated"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	Timestamp      time.Time `json:"timestamp"`
}

// TranslationRecord is the server-side audit row for a completed
// translation.
type TranslationRecord struct {
	ID             string    `json:"id" db:"id"`
	Original       string    `json:"original" db:"original"`
	Translated     string    `json:"translated" db:"translated"`
	SourceLanguage string    `json:"source_language" db:"source_language"`
	TargetLanguage string    `json:"target_language" db:"target_language"`
	AudioKey       *string   `json:"audio_key,omitempty" db:"audio_key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
