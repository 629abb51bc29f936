package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVoiceExactLocale(t *testing.T) {
	voices := []Voice{
		{Name: "english", Locale: "en-US"},
		{Name: "hindi", Locale: "hi-IN"},
	}

	v, ok := SelectVoice(voices, "hi-IN")
	require.True(t, ok)
	assert.Equal(t, "hindi", v.Name)
}

func TestSelectVoiceBaseLanguageFallback(t *testing.T) {
	voices := []Voice{
		{Name: "english", Locale: "en-US"},
		{Name: "hindi-alt", Locale: "hi"},
	}

	v, ok := SelectVoice(voices, "hi-IN")
	require.True(t, ok)
	assert.Equal(t, "hindi-alt", v.Name)
}

func TestSelectVoiceProviderFallback(t *testing.T) {
	voices := []Voice{
		{Name: "plain", Locale: "fr-FR"},
		{Name: "Google Deutsch", Locale: "de-DE"},
	}

	v, ok := SelectVoice(voices, "hi-IN")
	require.True(t, ok)
	assert.Equal(t, "Google Deutsch", v.Name)
}

func TestSelectVoiceLastResort(t *testing.T) {
	voices := []Voice{
		{Name: "plain", Locale: "fr-FR"},
		{Name: "other", Locale: "de-DE"},
	}

	v, ok := SelectVoice(voices, "hi-IN")
	require.True(t, ok)
	assert.Equal(t, "plain", v.Name)
}

func TestSelectVoiceNoVoices(t *testing.T) {
	_, ok := SelectVoice(nil, "hi-IN")
	assert.False(t, ok)
}

// fakeEngine blocks in Speak until the utterance context is cancelled or
// release is closed, so tests can observe preemption.
type fakeEngine struct {
	voices []Voice

	mu       sync.Mutex
	speaking []string
	release  chan struct{}
	err      error
}

func (f *fakeEngine) Voices() ([]Voice, error) { return f.voices, nil }

func (f *fakeEngine) Speak(ctx context.Context, text string, voice Voice) error {
	f.mu.Lock()
	f.speaking = append(f.speaking, text)
	release := f.release
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeEngine) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.speaking...)
}

func TestSpeakNoEngineIsUnsupported(t *testing.T) {
	c := NewController(nil, Events{})
	err := c.Speak("hello", "hi")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSpeakEmitsLifecycleEvents(t *testing.T) {
	engine := &fakeEngine{voices: []Voice{{Name: "hindi", Locale: "hi-IN"}}}

	started := make(chan struct{}, 1)
	ended := make(chan struct{}, 1)
	c := NewController(engine, Events{
		Started: func() { started <- struct{}{} },
		Ended:   func() { ended <- struct{}{} },
	})

	require.NoError(t, c.Speak("namaste", "hi"))

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("started event missing")
	}
	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("ended event missing")
	}

	assert.Equal(t, []string{"namaste"}, engine.spoken())
}

func TestSpeakErrorNamesLanguage(t *testing.T) {
	engine := &fakeEngine{
		voices: []Voice{{Name: "default", Locale: "en-US"}},
		err:    errors.New("synthesis boom"),
	}

	msgs := make(chan string, 1)
	c := NewController(engine, Events{
		Error: func(m string) { msgs <- m },
	})

	require.NoError(t, c.Speak("text", "ta"))

	select {
	case m := <-msgs:
		assert.Contains(t, m, "Tamil")
	case <-time.After(time.Second):
		t.Fatal("error event missing")
	}
}

func TestSpeakPreemptsInFlightUtterance(t *testing.T) {
	engine := &fakeEngine{
		voices:  []Voice{{Name: "hindi", Locale: "hi-IN"}},
		release: make(chan struct{}),
	}
	c := NewController(engine, Events{})

	require.NoError(t, c.Speak("first", "hi"))

	require.Eventually(t, func() bool {
		return len(engine.spoken()) == 1
	}, time.Second, time.Millisecond)

	// The second call must cancel the first; last call wins.
	engine.mu.Lock()
	engine.release = nil
	engine.mu.Unlock()
	require.NoError(t, c.Speak("second", "hi"))

	c.Wait()
	assert.Equal(t, []string{"first", "second"}, engine.spoken())
}

func TestCancelStopsPlayback(t *testing.T) {
	engine := &fakeEngine{
		voices:  []Voice{{Name: "hindi", Locale: "hi-IN"}},
		release: make(chan struct{}),
	}
	c := NewController(engine, Events{})

	require.NoError(t, c.Speak("long utterance", "hi"))
	c.Cancel()
	c.Wait()
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "hi", normalizeLocale("hi"))
	assert.Equal(t, "pa-IN", normalizeLocale("pa-in"))
	assert.Equal(t, "ur-PK", normalizeLocale("ur_pk"))
}
