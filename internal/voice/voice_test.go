package voice

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPickSpanishVoice(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		listing []string
		want    string
	}{
		{
			name:   "say prefers Colombian Spanish",
			engine: "say",
			listing: []string{
				"Monica              es_ES    # Hola, me llamo Monica.",
				"Carlos              es_CO    # Hola, me llamo Carlos.",
				"Paulina             es_MX    # Hola, me llamo Paulina.",
			},
			want: "Carlos",
		},
		{
			name:   "say falls back to any Spanish",
			engine: "say",
			listing: []string{
				"Alex                en_US    # Hello, my name is Alex.",
				"Monica              es_ES    # Hola, me llamo Monica.",
			},
			want: "Monica",
		},
		{
			name:   "espeak returns the language tag",
			engine: "espeak-ng",
			listing: []string{
				" 5  en             M  english",
				" 5  es-419         M  spanish-latin-am",
				" 5  es             M  spanish",
			},
			want: "es-419",
		},
		{
			name:    "no spanish voice",
			engine:  "say",
			listing: []string{"Alex                en_US    # Hello."},
			want:    "",
		},
		{
			name:    "empty listing",
			engine:  "espeak",
			listing: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := listVoices
			listVoices = func(string) []string { return tt.listing }
			defer func() { listVoices = orig }()

			if got := pickSpanishVoice(tt.engine, "es-CO"); got != tt.want {
				t.Errorf("pickSpanishVoice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnsupportedRecognizer(t *testing.T) {
	orig := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	defer func() { lookPath = orig }()

	rec := NewRecognizer(nil, "es-CO")
	if rec.Supported() {
		t.Fatal("recognizer should be unsupported without capture tools")
	}

	err := rec.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "No se pudo acceder al micrófono") {
		t.Errorf("Start error = %v", err)
	}
	if rec.Listening() {
		t.Error("unsupported recognizer must never be listening")
	}
}

func TestRecognizerProbesLocalEngineFirst(t *testing.T) {
	orig := lookPath
	lookPath = func(name string) (string, error) {
		switch name {
		case "ffmpeg", "whisper-cli":
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	defer func() { lookPath = orig }()

	rec := NewRecognizer(nil, "es-CO")
	if _, ok := rec.(*engineRecognizer); !ok {
		t.Errorf("expected local engine path, got %T", rec)
	}

	lookPath = func(name string) (string, error) {
		if name == "ffmpeg" {
			return "/usr/bin/ffmpeg", nil
		}
		return "", exec.ErrNotFound
	}
	rec = NewRecognizer(nil, "es-CO")
	if _, ok := rec.(*uploadRecognizer); !ok {
		t.Errorf("expected upload fallback, got %T", rec)
	}
}

type fakeTranscriber struct {
	transcript string
	err        error
	gotMime    string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _, mimeType string) (string, error) {
	f.gotMime = mimeType
	return f.transcript, f.err
}

// fakeRecorder builds a Recorder whose start hook writes canned audio to
// the output file instead of launching a process
func fakeRecorder(t *testing.T, audio []byte) *Recorder {
	t.Helper()
	return &Recorder{
		tool: captureTools[0],
		start: func(cmd *exec.Cmd) error {
			path := cmd.Args[len(cmd.Args)-1]
			return os.WriteFile(path, audio, 0600)
		},
	}
}

func TestUploadRecognizerRoundTrip(t *testing.T) {
	transcriber := &fakeTranscriber{transcript: " Hola, quiero información "}
	rec := &uploadRecognizer{
		base:        base{recorder: fakeRecorder(t, []byte("opus-bytes"))},
		transcriber: transcriber,
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if !rec.Listening() {
		t.Error("should be listening after Start")
	}

	transcript, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop err: %v", err)
	}
	if transcript != "Hola, quiero información" {
		t.Errorf("transcript = %q", transcript)
	}
	if rec.Listening() {
		t.Error("should not be listening after Stop")
	}
	if rec.Transcript() != transcript {
		t.Error("Transcript() should return the final result")
	}
	if transcriber.gotMime != "audio/ogg" {
		t.Errorf("mime = %q", transcriber.gotMime)
	}
}

func TestUploadRecognizerTranscriptionFailure(t *testing.T) {
	rec := &uploadRecognizer{
		base:        base{recorder: fakeRecorder(t, []byte("opus-bytes"))},
		transcriber: &fakeTranscriber{err: errors.New("503")},
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	_, err := rec.Stop(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Error transcribiendo audio") {
		t.Errorf("Stop error = %v", err)
	}
	if rec.Listening() {
		t.Error("listening must reset after a failed transcription")
	}
	if rec.Err() == nil {
		t.Error("Err() should retain the failure")
	}
}

func TestUploadRecognizerEmptyRecording(t *testing.T) {
	rec := &uploadRecognizer{
		base:        base{recorder: fakeRecorder(t, nil)},
		transcriber: &fakeTranscriber{},
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if _, err := rec.Stop(context.Background()); err == nil {
		t.Error("empty recording should fail")
	}
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(context.Context, string, string) ([]byte, error) {
	return f.audio, f.err
}

// scriptedPlayer blocks each playback until its context is cancelled,
// recording every playback context in start order
type scriptedPlayer struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (p *scriptedPlayer) play(ctx context.Context, _ string) error {
	p.mu.Lock()
	p.ctxs = append(p.ctxs, ctx)
	p.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func (p *scriptedPlayer) snapshot() []context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]context.Context{}, p.ctxs...)
}

func TestSpeakSupersedesInFlight(t *testing.T) {
	player := &scriptedPlayer{}
	speaker := &remoteSpeaker{
		tts:   &fakeTTS{audio: []byte("mp3")},
		voice: "es-CO-SalomeNeural",
		play:  player.play,
	}

	if err := speaker.Speak(context.Background(), "primera frase"); err != nil {
		t.Fatalf("Speak err: %v", err)
	}
	if !speaker.Speaking() {
		t.Fatal("should be speaking after Speak")
	}

	if err := speaker.Speak(context.Background(), "segunda frase"); err != nil {
		t.Fatalf("second Speak err: %v", err)
	}

	// The first playback must be cancelled; only the second stays live
	deadline := time.Now().Add(2 * time.Second)
	for {
		ctxs := player.snapshot()
		if len(ctxs) == 2 && ctxs[0].Err() != nil {
			if ctxs[1].Err() != nil {
				t.Fatal("second utterance must not be cancelled by the first")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("supersede did not settle: %d playbacks", len(ctxs))
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !speaker.Speaking() {
		t.Error("second utterance should still be speaking")
	}
	speaker.Stop()
}

func TestStopResetsSpeaking(t *testing.T) {
	var doneCalls int
	var mu sync.Mutex
	player := &scriptedPlayer{}
	speaker := &remoteSpeaker{
		playback: playback{onDone: func() {
			mu.Lock()
			doneCalls++
			mu.Unlock()
		}},
		tts:  &fakeTTS{audio: []byte("mp3")},
		play: player.play,
	}

	if err := speaker.Speak(context.Background(), "hola"); err != nil {
		t.Fatalf("Speak err: %v", err)
	}
	speaker.Stop()

	if speaker.Speaking() {
		t.Error("Stop must reset the speaking flag")
	}

	// onDone fires exactly once even after the cancelled goroutine exits
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if doneCalls != 1 {
		t.Errorf("onDone fired %d times, want 1", doneCalls)
	}
}

func TestSpeakTTSFailure(t *testing.T) {
	speaker := &remoteSpeaker{tts: &fakeTTS{err: errors.New("503")}}
	if err := speaker.Speak(context.Background(), "hola"); err == nil {
		t.Fatal("expected error when TTS fails")
	}
	if speaker.Speaking() {
		t.Error("failed Speak must not leave speaking set")
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	speaker := &remoteSpeaker{tts: &fakeTTS{audio: []byte("mp3")}}
	if err := speaker.Speak(context.Background(), "  "); err == nil {
		t.Error("expected error for empty text")
	}
}
