package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrTranscription is shown when transcription fails after a capture
const ErrTranscription = "Error transcribiendo audio. Intenta de nuevo."

// Transcriber uploads captured audio for remote transcription. Satisfied by
// the backend API client.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName, mimeType string) (string, error)
}

// Recognizer turns spoken audio into a transcript, regardless of which
// underlying capability the host offers. Start/Stop must not overlap;
// callers gate on Listening.
type Recognizer interface {
	// Start begins listening. On failure the error is also retained for Err.
	Start(ctx context.Context) error
	// Stop ends listening and returns the final transcript
	Stop(ctx context.Context) (string, error)
	// Transcript returns the last final transcript
	Transcript() string
	// Listening reports whether a capture is in progress
	Listening() bool
	// Err returns the last capture or transcription error
	Err() error
	// Supported reports whether any capture strategy is available
	Supported() bool
}

// localEngines are transcription binaries probed for the local path, in
// preference order
var localEngines = []string{"whisper-cli", "whisper-cpp", "whisper"}

// NewRecognizer probes capabilities once and picks a strategy: a local
// transcription engine when one is installed, otherwise record-and-upload
// against the backend. Both need a working capture tool; without one the
// recognizer reports unsupported.
func NewRecognizer(transcriber Transcriber, language string) Recognizer {
	recorder, ok := NewRecorder()
	if !ok {
		return &unsupportedRecognizer{}
	}

	for _, engine := range localEngines {
		if _, err := lookPath(engine); err == nil {
			return &engineRecognizer{
				base:     base{recorder: recorder},
				engine:   engine,
				language: language,
			}
		}
	}

	return &uploadRecognizer{
		base:        base{recorder: recorder},
		transcriber: transcriber,
	}
}

// base holds the shared capture state of both strategies
type base struct {
	recorder *Recorder

	mu         sync.Mutex
	transcript string
	lastErr    error
	listening  bool
}

func (b *base) Transcript() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcript
}

func (b *base) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *base) Supported() bool { return true }

func (b *base) startCapture(ctx context.Context) error {
	b.mu.Lock()
	b.transcript = ""
	b.lastErr = nil
	b.mu.Unlock()

	if err := b.recorder.Start(ctx); err != nil {
		b.setResult("", err)
		return err
	}

	b.mu.Lock()
	b.listening = true
	b.mu.Unlock()
	return nil
}

func (b *base) setResult(transcript string, err error) {
	b.mu.Lock()
	b.transcript = transcript
	b.lastErr = err
	b.listening = false
	b.mu.Unlock()
}

// uploadRecognizer records audio and uploads it to the backend's
// speech-to-text endpoint
type uploadRecognizer struct {
	base
	transcriber Transcriber
}

func (r *uploadRecognizer) Start(ctx context.Context) error {
	return r.startCapture(ctx)
}

func (r *uploadRecognizer) Stop(ctx context.Context) (string, error) {
	audio, fileName, mimeType, err := r.recorder.Stop()
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", ErrTranscription, err)
		r.setResult("", wrapped)
		return "", wrapped
	}

	transcript, err := r.transcriber.Transcribe(ctx, audio, fileName, mimeType)
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", ErrTranscription, err)
		r.setResult("", wrapped)
		return "", wrapped
	}

	transcript = strings.TrimSpace(transcript)
	r.setResult(transcript, nil)
	return transcript, nil
}

// engineRecognizer records audio and transcribes it with a local whisper
// binary, Spanish, final result only
type engineRecognizer struct {
	base
	engine   string
	language string
}

func (r *engineRecognizer) Start(ctx context.Context) error {
	return r.startCapture(ctx)
}

func (r *engineRecognizer) Stop(ctx context.Context) (string, error) {
	audio, fileName, _, err := r.recorder.Stop()
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", ErrTranscription, err)
		r.setResult("", wrapped)
		return "", wrapped
	}

	transcript, err := r.transcribeLocal(ctx, audio, fileName)
	if err != nil {
		wrapped := fmt.Errorf("Error de reconocimiento: %w", err)
		r.setResult("", wrapped)
		return "", wrapped
	}

	transcript = strings.TrimSpace(transcript)
	r.setResult(transcript, nil)
	return transcript, nil
}

func (r *engineRecognizer) transcribeLocal(ctx context.Context, audio []byte, fileName string) (string, error) {
	path, cleanup, err := writeTemp(audio, fileName)
	if err != nil {
		return "", err
	}
	defer cleanup()

	lang := r.language
	if i := strings.Index(lang, "-"); i > 0 {
		lang = lang[:i] // whisper takes the bare language code
	}

	cmd := exec.CommandContext(ctx, r.engine, "-nt", "-l", lang, "-f", path)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", r.engine, err)
	}
	return string(out), nil
}

// unsupportedRecognizer is returned when no capture tool is installed
type unsupportedRecognizer struct{}

func (unsupportedRecognizer) Start(context.Context) error {
	return errors.New(ErrMicrophone)
}
func (unsupportedRecognizer) Stop(context.Context) (string, error) {
	return "", errors.New(ErrMicrophone)
}
func (unsupportedRecognizer) Transcript() string { return "" }
func (unsupportedRecognizer) Listening() bool    { return false }
func (unsupportedRecognizer) Err() error         { return errors.New(ErrMicrophone) }
func (unsupportedRecognizer) Supported() bool    { return false }
