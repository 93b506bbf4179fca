package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Backend API settings
	APIBaseURL     string
	RequestTimeout time.Duration

	// Session storage
	StateDir string

	// Chat settings
	Language      string
	PageLimit     int
	HistoryWindow int

	// Voice settings
	VoiceEnabled bool
	TTSVoice     string
	SpeechLocale string

	// Feature flags
	Verbose bool
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Backend defaults (FastAPI dev server)
		APIBaseURL:     getEnvOrDefault("IUPCHAT_API_URL", "http://localhost:8000"),
		RequestTimeout: 120 * time.Second,

		// Session storage defaults
		StateDir: expandHome("~/.iupchat"),

		// Chat defaults
		Language:      "es",
		PageLimit:     20,
		HistoryWindow: 50,

		// Voice defaults (Colombian Spanish, matching the backend)
		VoiceEnabled: true,
		TTSVoice:     getEnvOrDefault("IUPCHAT_TTS_VOICE", "es-CO-SalomeNeural"),
		SpeechLocale: "es-CO",

		Verbose: false,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}
	if c.PageLimit < 1 || c.PageLimit > 100 {
		return fmt.Errorf("page limit must be between 1 and 100")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history window must be at least 1")
	}
	return nil
}

// getEnvOrDefault returns the trimmed env value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	return defaultValue
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = func(key string) string {
	// Will be replaced with os.Getenv in main
	return ""
}

// ParseTimeout converts a seconds flag into the request timeout
func (c *Config) ParseTimeout(seconds int) {
	if seconds > 0 {
		c.RequestTimeout = time.Duration(seconds) * time.Second
	}
}
