// Package config provides configuration for the voxdocs service.
// A single Config is built at process start and passed into every
// component; no package holds hidden process-wide state.
package config

import (
	"os"
	"time"
)

// Default configuration values.
const (
	DefaultPort            = "3001"
	DefaultDocsServiceURL  = "https://mcp.context7.com/mcp"
	DefaultCompletionModel = "gpt-4o-mini"
	DefaultVoice           = "rachel"
	DefaultAltVoice        = "adam"
	DefaultSpeechSpeed     = 1.0
)

// Stage timeouts for outbound calls. A timeout is handled exactly like
// any other recoverable failure at the call site.
const (
	CorrectionTimeout = 3 * time.Second
	ResolveTimeout    = 10 * time.Second
	FetchTimeout      = 15 * time.Second
	CompletionTimeout = 10 * time.Second
	SynthesisTimeout  = 30 * time.Second
)

// Config holds all configuration for the voxdocs service.
// Flag parsing is done in cmd/voxdocs/main.go; this struct is data only.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// OpenAIKey authenticates completion calls. Required.
	OpenAIKey string

	// OpenAIBaseURL overrides the completion endpoint (for tests and
	// OpenAI-compatible gateways).
	OpenAIBaseURL string

	// CompletionModel is the model used for answers and corrections.
	CompletionModel string

	// ElevenLabsKey authenticates TTS calls. Optional: when empty the
	// service runs in web-speech-only mode and the tts endpoint tells
	// callers to synthesize locally.
	ElevenLabsKey string

	// Voice and AltVoice are ElevenLabs voice presets or raw voice IDs.
	// AltVoice is tried once when synthesis with Voice fails.
	Voice    string
	AltVoice string

	// SpeechSpeed is the TTS speech-rate multiplier.
	SpeechSpeed float64

	// AssemblyAIKey authenticates the streaming transcription relay.
	// Optional: when empty the /ws/voice relay is disabled.
	AssemblyAIKey string

	// DocsServiceURL is the documentation retrieval endpoint.
	DocsServiceURL string
}

// DefaultConfig returns sensible defaults for voxdocs configuration.
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		LogLevel:        "info",
		CompletionModel: DefaultCompletionModel,
		Voice:           DefaultVoice,
		AltVoice:        DefaultAltVoice,
		SpeechSpeed:     DefaultSpeechSpeed,
		DocsServiceURL:  DefaultDocsServiceURL,
	}
}

// LoadEnv loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.AssemblyAIKey = os.Getenv("ASSEMBLYAI_API_KEY")

	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.OpenAIBaseURL = url
	}
	if url := os.Getenv("DOCS_SERVICE_URL"); url != "" {
		c.DocsServiceURL = url
	}
	if model := os.Getenv("COMPLETION_MODEL"); model != "" {
		c.CompletionModel = model
	}
	if voice := os.Getenv("ELEVENLABS_VOICE_ID"); voice != "" {
		c.Voice = voice
	}
}

// Validate checks that required configuration is present.
// A missing OpenAI key is fatal at startup; a missing ElevenLabs key is not.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required"}
	}
	if c.DocsServiceURL == "" {
		return &ConfigError{Field: "DocsServiceURL", Message: "documentation service URL must not be empty"}
	}
	return nil
}

// WebSpeechOnly reports whether vendor TTS is unavailable and callers
// should use on-device speech synthesis.
func (c *Config) WebSpeechOnly() bool {
	return c.ElevenLabsKey == ""
}

// RelayEnabled reports whether the streaming transcription relay can run.
func (c *Config) RelayEnabled() bool {
	return c.AssemblyAIKey != ""
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
