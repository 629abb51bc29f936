package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"vaani/pkg/logger"

	"go.uber.org/zap"
)

// FFmpegDevice captures microphone audio via an ffmpeg child process,
// producing an opus-in-webm stream on stdout. Echo cancellation is left to
// the audio server (e.g. the PulseAudio echo-cancel module on the default
// source); noise suppression maps to the afftdn filter.
type FFmpegDevice struct {
	command string
}

func NewFFmpegDevice(command string) *FFmpegDevice {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegDevice{command: command}
}

func (d *FFmpegDevice) Start(ctx context.Context, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
	}
	if cfg.NoiseSuppression {
		args = append(args, "-af", "afftdn")
	}
	args = append(args,
		"-c:a", "libopus",
		"-b:a", "32k",
		"-f", "webm",
		"-",
	)

	cmd := exec.CommandContext(ctx, d.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, classifyDeviceError(err, stderr.String())
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// ffmpeg fails fast when the device cannot be opened; give it a moment
	// so acquisition errors surface here instead of mid-session.
	select {
	case err := <-waitErr:
		if err == nil {
			err = errors.New("ffmpeg exited before capture started")
		}
		return nil, classifyDeviceError(err, stderr.String())
	case <-time.After(250 * time.Millisecond):
	}

	logger.Debug("Microphone capture started",
		zap.String("input", cfg.InputDevice),
		zap.Int("sample_rate", cfg.SampleRate))

	return &ffmpegSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

type ffmpegSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Stop interrupts ffmpeg so it flushes the webm container, then reaps the
// process. All device resources are released regardless of outcome.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExitErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeExitErr(err)
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeExitErr drops the exit status ffmpeg reports for an interrupt
// shutdown; that is the expected way to end a capture.
func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// classifyDeviceError distinguishes permission problems from missing
// devices so callers can direct the user to the right remedy.
func classifyDeviceError(err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	lower := strings.ToLower(detail + " " + err.Error())

	switch {
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, detail)
	case strings.Contains(lower, "no such"), strings.Contains(lower, "not found"),
		strings.Contains(lower, "cannot open"), strings.Contains(lower, "connection refused"):
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, detail)
	default:
		if detail != "" {
			return fmt.Errorf("audio device error: %w: %s", err, detail)
		}
		return fmt.Errorf("audio device error: %w", err)
	}
}
