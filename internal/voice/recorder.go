package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMicrophone is shown when no capture tool works or the device is denied
const ErrMicrophone = "No se pudo acceder al micrófono. Verifica los permisos."

// lookPath is a hook over exec.LookPath for capability probing in tests
var lookPath = exec.LookPath

// defaultCaptureFormat is the ffmpeg input device format per platform
var defaultCaptureFormat = func() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "alsa"
	}
}()

// captureTool pairs an external recorder with the encoding it produces.
// Tools are tried in order; the first one installed wins, which also fixes
// the encoding preference (opus-in-ogg, then ogg, then plain wav).
type captureTool struct {
	name     string
	ext      string
	mimeType string
	args     func(outPath string) []string
}

var captureTools = []captureTool{
	{
		name:     "ffmpeg",
		ext:      ".ogg",
		mimeType: "audio/ogg",
		args: func(outPath string) []string {
			return []string{"-hide_banner", "-loglevel", "error", "-f", defaultCaptureFormat,
				"-i", "default", "-c:a", "libopus", "-y", outPath}
		},
	},
	{
		name:     "rec", // sox
		ext:      ".ogg",
		mimeType: "audio/ogg",
		args: func(outPath string) []string {
			return []string{"-q", outPath}
		},
	},
	{
		name:     "arecord",
		ext:      ".wav",
		mimeType: "audio/wav",
		args: func(outPath string) []string {
			return []string{"-q", "-f", "cd", outPath}
		},
	},
}

// findCaptureTool returns the first installed capture tool
func findCaptureTool() (captureTool, bool) {
	for _, tool := range captureTools {
		if _, err := lookPath(tool.name); err == nil {
			return tool, true
		}
	}
	return captureTool{}, false
}

// Recorder captures microphone audio through an external tool into a temp
// file. One recording at a time; Stop always releases the process and
// removes the temp file.
type Recorder struct {
	tool captureTool

	mu    sync.Mutex
	cmd   *exec.Cmd
	path  string
	start func(cmd *exec.Cmd) error
}

// NewRecorder probes for a capture tool; ok is false when none is installed
func NewRecorder() (*Recorder, bool) {
	tool, ok := findCaptureTool()
	if !ok {
		return nil, false
	}
	return &Recorder{tool: tool, start: func(cmd *exec.Cmd) error { return cmd.Start() }}, true
}

// Start begins recording. Fails if a recording is already in progress.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return fmt.Errorf("recording already in progress")
	}

	path := filepath.Join(os.TempDir(), "iupchat-rec-"+uuid.New().String()+r.tool.ext)
	cmd := exec.CommandContext(ctx, r.tool.name, r.tool.args(path)...)
	if err := r.start(cmd); err != nil {
		return fmt.Errorf("%s: %w", ErrMicrophone, err)
	}

	r.cmd = cmd
	r.path = path
	return nil
}

// Stop ends the recording and returns the captured audio. The recorder
// process is interrupted and the temp file removed unconditionally.
func (r *Recorder) Stop() ([]byte, string, string, error) {
	r.mu.Lock()
	cmd, path := r.cmd, r.path
	r.cmd, r.path = nil, ""
	r.mu.Unlock()

	if cmd == nil {
		return nil, "", "", fmt.Errorf("no recording in progress")
	}
	defer os.Remove(path)

	if cmd.Process != nil {
		// SIGINT lets the tool flush and close the container
		cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() {
			cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			cmd.Process.Kill()
			<-done
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read recording: %w", err)
	}
	if len(data) == 0 {
		return nil, "", "", fmt.Errorf("recording is empty")
	}
	return data, "recording" + r.tool.ext, r.tool.mimeType, nil
}

// Recording reports whether a capture is in progress
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// writeTemp stores audio bytes in a uniquely named temp file and returns
// its path with a cleanup func
func writeTemp(audio []byte, fileName string) (string, func(), error) {
	path := filepath.Join(os.TempDir(), "iupchat-"+uuid.New().String()+"-"+fileName)
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return "", nil, fmt.Errorf("failed to write temp audio: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}
