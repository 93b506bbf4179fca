package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// TTSClient produces speech audio from text remotely. Satisfied by the
// backend API client.
type TTSClient interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Speaker speaks a text string aloud. At most one utterance plays at a
// time: Speak supersedes any in-flight playback, Stop forces idle.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
	Speaking() bool
	Supported() bool
}

// playerTools are audio players probed in preference order
var playerTools = [][]string{
	{"mpv", "--no-terminal", "--no-video"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"aplay", "-q"},
	{"paplay"},
}

// localSynths are local speech-synthesis engines probed when no player is
// installed for remote audio
var localSynths = []string{"say", "espeak-ng", "espeak"}

// NewSpeaker probes capabilities once: remote synthesis through the backend
// when an audio player is installed, otherwise a local synthesis engine
// with a Spanish voice. onDone fires whenever playback finishes, errors, or
// is stopped.
func NewSpeaker(tts TTSClient, voice string, onDone func()) Speaker {
	if player, ok := findPlayer(); ok {
		return &remoteSpeaker{
			playback: playback{onDone: onDone},
			tts:      tts,
			voice:    voice,
			player:   player,
		}
	}

	for _, synth := range localSynths {
		if _, err := lookPath(synth); err == nil {
			return &localSpeaker{
				playback: playback{onDone: onDone},
				engine:   synth,
				voice:    pickSpanishVoice(synth, voice),
			}
		}
	}

	return &unsupportedSpeaker{}
}

func findPlayer() ([]string, bool) {
	for _, tool := range playerTools {
		if _, err := lookPath(tool[0]); err == nil {
			return tool, true
		}
	}
	return nil, false
}

// playback tracks the single in-flight utterance shared by both
// strategies. A generation counter keeps a superseded utterance's exit
// from clobbering its successor's state.
type playback struct {
	mu       sync.Mutex
	gen      int
	cancel   context.CancelFunc
	speaking bool
	onDone   func()
}

// begin supersedes any in-flight utterance and registers the new one's
// cancel func; the returned generation identifies this utterance
func (p *playback) begin(cancel context.CancelFunc) int {
	p.mu.Lock()
	prev := p.cancel
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.speaking = true
	p.mu.Unlock()

	if prev != nil {
		prev()
	}
	return gen
}

// finish clears the speaking flag if this utterance is still current
func (p *playback) finish(gen int) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	done := p.speaking
	p.speaking = false
	p.cancel = nil
	p.mu.Unlock()

	if done && p.onDone != nil {
		p.onDone()
	}
}

// Stop forcibly ends playback and resets the speaking flag
func (p *playback) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	wasSpeaking := p.speaking
	p.speaking = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasSpeaking && p.onDone != nil {
		p.onDone()
	}
}

func (p *playback) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

// remoteSpeaker fetches synthesized audio from the backend and plays it
// with an external player. Temp audio files are removed when playback
// ends, errors, or is superseded.
type remoteSpeaker struct {
	playback
	tts    TTSClient
	voice  string
	player []string

	// play is replaceable in tests
	play func(ctx context.Context, path string) error
}

func (s *remoteSpeaker) Supported() bool { return true }

func (s *remoteSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to speak")
	}

	audio, err := s.tts.Synthesize(ctx, text, s.voice)
	if err != nil {
		return fmt.Errorf("TTS failed: %w", err)
	}

	path, cleanup, err := writeTemp(audio, "speech.mp3")
	if err != nil {
		return err
	}

	playCtx, cancel := context.WithCancel(context.Background())
	gen := s.begin(cancel)

	go func() {
		defer cleanup()
		defer s.finish(gen)
		playFn := s.play
		if playFn == nil {
			playFn = s.playWithCommand
		}
		playFn(playCtx, path)
	}()

	return nil
}

func (s *remoteSpeaker) playWithCommand(ctx context.Context, path string) error {
	args := append(append([]string{}, s.player[1:]...), path)
	cmd := exec.CommandContext(ctx, s.player[0], args...)
	return cmd.Run()
}

// localSpeaker invokes a local speech-synthesis engine directly
type localSpeaker struct {
	playback
	engine string
	voice  string

	play func(ctx context.Context, text string) error
}

func (s *localSpeaker) Supported() bool { return true }

func (s *localSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to speak")
	}

	playCtx, cancel := context.WithCancel(context.Background())
	gen := s.begin(cancel)

	go func() {
		defer s.finish(gen)
		playFn := s.play
		if playFn == nil {
			playFn = s.speakWithCommand
		}
		playFn(playCtx, text)
	}()

	return nil
}

func (s *localSpeaker) speakWithCommand(ctx context.Context, text string) error {
	var cmd *exec.Cmd
	if s.voice != "" {
		cmd = exec.CommandContext(ctx, s.engine, "-v", s.voice, text)
	} else {
		cmd = exec.CommandContext(ctx, s.engine, text)
	}
	return cmd.Run()
}

// unsupportedSpeaker is returned when neither a player nor a synthesis
// engine is installed
type unsupportedSpeaker struct{}

func (unsupportedSpeaker) Speak(context.Context, string) error {
	return errors.New("síntesis de voz no disponible")
}
func (unsupportedSpeaker) Stop()           {}
func (unsupportedSpeaker) Speaking() bool  { return false }
func (unsupportedSpeaker) Supported() bool { return false }
