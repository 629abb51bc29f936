// Package playback selects a synthetic voice for a target language and
// drives text-to-speech. Playback never blocks the caller and never blocks
// display of a translation.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"vaani/internal/language"
	"vaani/pkg/logger"

	"go.uber.org/zap"
)

// ErrUnsupported means the platform has no speech-synthesis capability.
var ErrUnsupported = errors.New("speech synthesis not supported on this system")

// Voice is one available synthetic voice.
type Voice struct {
	Name   string
	Locale string
}

// Engine is the platform speech-synthesis backend.
type Engine interface {
	Voices() ([]Voice, error)
	Speak(ctx context.Context, text string, voice Voice) error
}

// Events receives utterance lifecycle signals. Any callback may be nil.
type Events struct {
	Started func()
	Ended   func()
	Error   func(message string)
}

// preferredProviders are voice-name substrings indicating a known
// high-quality provider, tried after locale matching fails.
var preferredProviders = []string{"Google"}

// Controller plays at most one utterance at a time; a new Speak always
// preempts the previous one.
type Controller struct {
	engine Engine
	events Events

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(engine Engine, events Events) *Controller {
	return &Controller{
		engine: engine,
		events: events,
	}
}

// Speak synthesizes text in the voice chosen for languageCode. It returns
// once playback has been started; completion and errors arrive through the
// event callbacks.
func (c *Controller) Speak(text, languageCode string) error {
	if c.engine == nil {
		return ErrUnsupported
	}

	voices, err := c.engine.Voices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	voice, ok := SelectVoice(voices, language.Locale(languageCode))
	if !ok {
		return fmt.Errorf("%w: no voices available", ErrUnsupported)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	logger.Debug("Speaking",
		zap.String("voice", voice.Name),
		zap.String("locale", voice.Locale),
		zap.Int("text_length", len(text)))

	c.wg.Add(1)
	go c.play(ctx, cancel, text, voice, languageCode)
	return nil
}

func (c *Controller) play(ctx context.Context, cancel context.CancelFunc, text string, voice Voice, languageCode string) {
	defer c.wg.Done()
	defer cancel()

	if c.events.Started != nil {
		c.events.Started()
	}

	err := c.engine.Speak(ctx, text, voice)

	c.mu.Lock()
	preempted := ctx.Err() != nil
	c.mu.Unlock()

	if err != nil && !preempted {
		if c.events.Error != nil {
			c.events.Error(fmt.Sprintf(
				"Speech synthesis not available for %s. Try English or check your voice settings.",
				language.Name(languageCode)))
		}
		return
	}

	if c.events.Ended != nil {
		c.events.Ended()
	}
}

// Cancel stops any in-flight utterance.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Wait blocks until in-flight playback has finished. Intended for teardown.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// SelectVoice picks a voice for locale by descending preference: exact
// locale match, same base language, a known provider by name, then the
// first voice as last resort.
func SelectVoice(voices []Voice, locale string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	for _, v := range voices {
		if v.Locale == locale {
			return v, true
		}
	}

	base := strings.SplitN(locale, "-", 2)[0]
	for _, v := range voices {
		if strings.HasPrefix(v.Locale, base) {
			return v, true
		}
	}

	for _, provider := range preferredProviders {
		for _, v := range voices {
			if strings.Contains(v.Name, provider) {
				return v, true
			}
		}
	}

	return voices[0], true
}
