// Package language holds the fixed set of languages the translation
// pipeline supports, shared by the endpoint, the client, and playback.
package language

import (
	"sort"

	"vaani/pkg/model"
)

// Language describes one supported language.
type Language struct {
	Code   string
	Name   string
	Locale string
}

var languages = map[string]Language{
	model.AutoDetect: {Code: model.AutoDetect, Name: "auto-detect", Locale: ""},
	"hi":             {Code: "hi", Name: "Hindi", Locale: "hi-IN"},
	"ta":             {Code: "ta", Name: "Tamil", Locale: "ta-IN"},
	"te":             {Code: "te", Name: "Telugu", Locale: "te-IN"},
	"kn":             {Code: "kn", Name: "Kannada", Locale: "kn-IN"},
	"or":             {Code: "or", Name: "Odia", Locale: "or-IN"},
	"ml":             {Code: "ml", Name: "Malayalam", Locale: "ml-IN"},
	"mr":             {Code: "mr", Name: "Marathi", Locale: "mr-IN"},
	"gu":             {Code: "gu", Name: "Gujarati", Locale: "gu-IN"},
	"bn":             {Code: "bn", Name: "Bengali", Locale: "bn-IN"},
	"pa":             {Code: "pa", Name: "Punjabi", Locale: "pa-IN"},
	"ur":             {Code: "ur", Name: "Urdu", Locale: "ur-PK"},
	"en":             {Code: "en", Name: "English", Locale: "en-US"},
}

// IsSupported reports whether code is a known language, including the
// auto-detect sentinel.
func IsSupported(code string) bool {
	_, ok := languages[code]
	return ok
}

// IsTarget reports whether code is a valid translation target. The
// auto-detect sentinel is source-only.
func IsTarget(code string) bool {
	return code != model.AutoDetect && IsSupported(code)
}

// Name returns the display name for code, or code itself when unknown.
func Name(code string) string {
	if l, ok := languages[code]; ok {
		return l.Name
	}
	return code
}

// Locale returns the speech-synthesis locale tag for code. Unknown codes
// and the auto-detect sentinel fall back to en-US.
func Locale(code string) string {
	if l, ok := languages[code]; ok && l.Locale != "" {
		return l.Locale
	}
	return "en-US"
}

// Codes returns all target language codes in stable order.
func Codes() []string {
	codes := make([]string, 0, len(languages)-1)
	for code := range languages {
		if code == model.AutoDetect {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
