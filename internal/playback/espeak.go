package playback

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// EspeakEngine synthesizes speech with the espeak-ng command-line tool.
type EspeakEngine struct {
	command string
}

func NewEspeakEngine(command string) *EspeakEngine {
	if command == "" {
		command = "espeak-ng"
	}
	return &EspeakEngine{command: command}
}

// Detect returns an engine when espeak-ng is installed, nil otherwise so
// the controller reports the platform as unsupported.
func Detect(command string) *EspeakEngine {
	e := NewEspeakEngine(command)
	if _, err := exec.LookPath(e.command); err != nil {
		return nil
	}
	return e
}

// Voices lists installed voices. espeak-ng prints a fixed-width table:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  hi              --/M      hindi              indic/hi
func (e *EspeakEngine) Voices() ([]Voice, error) {
	out, err := exec.Command(e.command, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false // header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			Name:   fields[3],
			Locale: normalizeLocale(fields[1]),
		})
	}
	return voices, nil
}

// Speak runs one utterance to completion. Cancelling ctx kills the child
// process, which is how preemption takes effect.
func (e *EspeakEngine) Speak(ctx context.Context, text string, voice Voice) error {
	cmd := exec.CommandContext(ctx, e.command, "-v", voice.Name, "-s", "150", text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("espeak failed: %w: %s", err, detail)
		}
		return fmt.Errorf("espeak failed: %w", err)
	}
	return nil
}

// normalizeLocale maps espeak language tags (hi, pa-IN, ur) onto the
// hyphenated BCP-47 form the selector compares against.
func normalizeLocale(tag string) string {
	tag = strings.ReplaceAll(tag, "_", "-")
	parts := strings.SplitN(tag, "-", 2)
	if len(parts) == 2 {
		return parts[0] + "-" + strings.ToUpper(parts[1])
	}
	return tag
}
