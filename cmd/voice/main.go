package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vaani/internal/capture"
	"vaani/internal/client"
	"vaani/internal/config"
	"vaani/internal/history"
	"vaani/internal/language"
	"vaani/internal/playback"
	"vaani/pkg/logger"
	"vaani/pkg/model"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	source := flag.String("source", model.AutoDetect, "source language code, or auto to detect")
	target := flag.String("target", "hi", "target language code")
	listHistory := flag.Bool("history", false, "print saved translations and exit")
	clearHistory := flag.Bool("clear-history", false, "delete all saved translations and exit")
	replay := flag.Int64("replay", 0, "speak a saved translation by id and exit")
	listLanguages := flag.Bool("languages", false, "print supported language codes and exit")
	flag.Parse()

	if err := logger.Init(os.Getenv("DEBUG") != ""); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
		return
	}

	if *listLanguages {
		for _, code := range language.Codes() {
			fmt.Printf("%-6s %s\n", code, language.Name(code))
		}
		return
	}

	store, err := openHistory(cfg.Client.HistoryDir)
	if err != nil {
		logger.Fatal("Failed to open history", zap.Error(err))
		return
	}

	speaker := newSpeaker(cfg.Client.SpeakCommand)

	switch {
	case *clearHistory:
		store.Clear()
		fmt.Println("History cleared.")
		return
	case *listHistory:
		printHistory(store)
		return
	case *replay != 0:
		replayEntry(store, speaker, *replay)
		return
	}

	if !language.IsSupported(*source) {
		fmt.Fprintf(os.Stderr, "Unknown source language %q. Run with -languages to list codes.\n", *source)
		os.Exit(1)
	}
	if !language.IsTarget(*target) {
		fmt.Fprintf(os.Stderr, "Unknown target language %q. Run with -languages to list codes.\n", *target)
		os.Exit(1)
	}

	if err := run(cfg, store, speaker, *source, *target); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run records one utterance, translates it, saves it and speaks the result.
func run(cfg *config.Config, store *history.Store, speaker *playback.Controller, source, target string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	device := capture.NewFFmpegDevice(cfg.Client.CaptureCommand)
	recorder := capture.NewRecorder(device, capture.Config{NoiseSuppression: true})

	type captured struct {
		payload string
		err     error
	}
	done := make(chan captured, 1)
	recorder.OnAutoStop = func(payload string, err error) {
		done <- captured{payload: payload, err: err}
	}

	if err := recorder.Start(ctx); err != nil {
		return errors.New(capture.UserMessage(err))
	}

	fmt.Printf("Recording (%s -> %s). Press Enter to stop; auto-stops after 10s.\n",
		language.Name(source), language.Name(target))

	enter := make(chan struct{})
	go func() {
		reader := bufio.NewReader(os.Stdin)
		_, _ = reader.ReadString('\n')
		close(enter)
	}()

	var payload string
	select {
	case <-enter:
		p, err := recorder.Stop()
		if errors.Is(err, capture.ErrNotCapturing) {
			// The duration ceiling beat the keypress.
			c := <-done
			p, err = c.payload, c.err
		}
		if err != nil {
			recorder.Fail()
			return errors.New(capture.UserMessage(err))
		}
		payload = p
	case c := <-done:
		if c.err != nil {
			recorder.Fail()
			return errors.New(capture.UserMessage(c.err))
		}
		payload = c.payload
	case <-ctx.Done():
		_, _ = recorder.Stop()
		recorder.Reset()
		return errors.New("recording cancelled")
	}

	fmt.Println("Translating...")

	proxy := client.New(cfg.Client.ServerURL)
	result, err := proxy.Translate(ctx, model.TranslationRequest{
		Audio:          payload,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		recorder.Fail()
		return err
	}
	recorder.Complete()

	entry := store.Append(result, source, target)
	printEntry(entry)

	if err := speaker.Speak(result.Translated, target); err != nil {
		if errors.Is(err, playback.ErrUnsupported) {
			logger.Warn("Speech synthesis unavailable", zap.Error(err))
			return nil
		}
		return err
	}
	speaker.Wait()
	return nil
}

func openHistory(dir string) (*history.Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "vaani")
	}
	persist, err := history.NewFilePersistence(dir)
	if err != nil {
		return nil, err
	}
	return history.NewStore(persist), nil
}

func newSpeaker(command string) *playback.Controller {
	events := playback.Events{
		Error: func(message string) {
			fmt.Fprintln(os.Stderr, message)
		},
	}
	// Detect returns a typed nil when espeak-ng is missing; only a found
	// engine may be stored in the interface.
	if engine := playback.Detect(command); engine != nil {
		return playback.NewController(engine, events)
	}
	return playback.NewController(nil, events)
}

func printHistory(store *history.Store) {
	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Println("No saved translations.")
		return
	}
	for _, e := range entries {
		fmt.Printf("[%d] %s  %s -> %s\n", e.ID,
			e.Timestamp.Format(time.RFC3339),
			language.Name(e.SourceLanguage), language.Name(e.TargetLanguage))
		fmt.Printf("    %s\n", e.Original)
		fmt.Printf("    %s\n", e.Translated)
	}
}

func replayEntry(store *history.Store, speaker *playback.Controller, id int64) {
	entry, ok := store.Select(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "No saved translation with id %d.\n", id)
		os.Exit(1)
	}
	printEntry(entry)
	if err := speaker.Speak(entry.Translated, entry.TargetLanguage); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	speaker.Wait()
}

func printEntry(entry model.HistoryEntry) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("You said:    %s\n", entry.Original)
	fmt.Printf("Translation: %s\n", entry.Translated)
	fmt.Println(strings.Repeat("-", 40))
}
