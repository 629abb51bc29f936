// Package capture manages microphone acquisition and the recording session
// lifecycle, producing a base64 payload ready for transport.
package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// State is the recording session lifecycle. Exactly one session is active
// per recorder.
type State string

const (
	StateIdle                State = "idle"
	StateCapturing           State = "capturing"
	StateEncoding            State = "encoding"
	StateAwaitingTranslation State = "awaiting_translation"
	StateErrored             State = "errored"
)

var (
	// ErrCaptureActive rejects Start while a session is already running.
	// Starting twice is a programming error, not a user condition.
	ErrCaptureActive = errors.New("capture session already active")

	// ErrNotCapturing rejects Stop outside the capturing state.
	ErrNotCapturing = errors.New("no capture in progress")

	// ErrPermissionDenied means the OS denied microphone access.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrDeviceUnavailable means no usable input device was found.
	ErrDeviceUnavailable = errors.New("no microphone found")

	// ErrNoAudio means the device produced no data before Stop.
	ErrNoAudio = errors.New("no audio captured")
)

// UserMessage maps a capture error to remedy text distinguishing a
// permission problem from a hardware one.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Please allow microphone access in your system settings."
	case errors.Is(err, ErrDeviceUnavailable):
		return "No microphone found. Please check your audio devices."
	default:
		return "Failed to access microphone. Please check your audio settings."
	}
}

// Config describes how the microphone should be captured.
type Config struct {
	SampleRate       int
	Channels         int
	NoiseSuppression bool
	InputFormat      string
	InputDevice      string

	// MaxDuration bounds the capturing phase; the recorder auto-stops
	// when it elapses.
	MaxDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 10 * time.Second
	}
	return c
}

// Session is a live device capture stream. Stop releases the device and
// ends the stream.
type Session interface {
	io.Reader
	Stop() error
}

// Device acquires the microphone.
type Device interface {
	Start(ctx context.Context, cfg Config) (Session, error)
}

// Recorder drives one capture session at a time through the state machine
// Idle -> Capturing -> Encoding -> AwaitingTranslation -> Idle, with
// Errored reachable from any non-idle state.
type Recorder struct {
	device Device
	cfg    Config

	// OnAutoStop receives the finalized payload when the duration ceiling
	// stops the session before the caller does. Set before Start.
	OnAutoStop func(payload string, err error)

	mu       sync.Mutex
	state    State
	starting bool
	session  Session
	timer    *time.Timer
	audio    bytes.Buffer
	pumpDone chan struct{}
	pumpErr  error
}

func NewRecorder(device Device, cfg Config) *Recorder {
	return &Recorder{
		device: device,
		cfg:    cfg.withDefaults(),
		state:  StateIdle,
	}
}

// State returns the current session state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start acquires the device and begins buffering audio. Valid only from
// the idle state.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle || r.starting {
		r.mu.Unlock()
		return ErrCaptureActive
	}
	// Reserve the recorder so a concurrent Start cannot acquire a second
	// device while this one is still opening.
	r.starting = true
	r.mu.Unlock()

	session, err := r.device.Start(ctx, r.cfg)
	if err != nil {
		r.mu.Lock()
		r.starting = false
		r.mu.Unlock()
		// The session never began; the recorder stays idle.
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r.mu.Lock()
	r.starting = false
	r.state = StateCapturing
	r.session = session
	r.audio.Reset()
	r.pumpErr = nil
	r.pumpDone = make(chan struct{})
	r.timer = time.AfterFunc(r.cfg.MaxDuration, r.autoStop)
	done := r.pumpDone
	r.mu.Unlock()

	go r.pump(session, done)
	return nil
}

// pump drains the device stream into the session buffer until the stream
// ends.
func (r *Recorder) pump(session Session, done chan struct{}) {
	defer close(done)

	chunk := make([]byte, 4096)
	for {
		n, err := session.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			r.audio.Write(chunk[:n])
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				r.mu.Lock()
				r.pumpErr = err
				r.mu.Unlock()
			}
			return
		}
	}
}

// Stop finalizes the buffered chunks into a base64 payload. Valid only
// while capturing. The device is released on every path, success or
// failure.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	if r.state != StateCapturing {
		r.mu.Unlock()
		return "", ErrNotCapturing
	}
	r.state = StateEncoding
	session := r.session
	timer := r.timer
	done := r.pumpDone
	r.session = nil
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	stopErr := session.Stop()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pumpErr != nil {
		r.state = StateErrored
		return "", fmt.Errorf("capture stream failed: %w", r.pumpErr)
	}
	if stopErr != nil {
		r.state = StateErrored
		return "", fmt.Errorf("failed to stop capture cleanly: %w", stopErr)
	}
	if r.audio.Len() == 0 {
		r.state = StateErrored
		return "", ErrNoAudio
	}

	payload := base64.StdEncoding.EncodeToString(r.audio.Bytes())
	r.state = StateAwaitingTranslation
	return payload, nil
}

// autoStop enforces the capture duration ceiling.
func (r *Recorder) autoStop() {
	payload, err := r.Stop()
	if errors.Is(err, ErrNotCapturing) {
		// The caller stopped first.
		return
	}
	if r.OnAutoStop != nil {
		r.OnAutoStop(payload, err)
	}
}

// Complete returns the session to idle after the translation round trip
// finished.
func (r *Recorder) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateAwaitingTranslation || r.state == StateEncoding {
		r.state = StateIdle
	}
}

// Fail marks the session errored from any non-idle state.
func (r *Recorder) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		r.state = StateErrored
	}
}

// Reset returns an errored recorder to idle so a new session can start.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateErrored {
		r.state = StateIdle
	}
}
