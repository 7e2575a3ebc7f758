package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Voice configuration. AltVoiceID is tried once when synthesis with
	// VoiceID fails; leave empty to disable the alternate-voice retry.
	VoiceID       string
	AltVoiceID    string
	ModelID       string
	VoiceSettings VoiceSettings

	// Timeout bounds each synthesis request.
	Timeout time.Duration

	// HTTPClient performs the requests. When nil, a client with Timeout
	// applied is constructed.
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the voice: a preset name or a raw voice ID.
func WithVoice(voice string) Option {
	return func(c *Config) { c.VoiceID = ResolveVoice(voice) }
}

// WithAltVoice sets the alternate voice tried when the primary fails.
func WithAltVoice(voice string) Option {
	return func(c *Config) { c.AltVoiceID = ResolveVoice(voice) }
}

// WithModel sets the model ID.
func WithModel(modelID string) Option {
	return func(c *Config) { c.ModelID = modelID }
}

// WithSpeed sets the speech-rate multiplier.
func WithSpeed(speed float64) Option {
	return func(c *Config) { c.VoiceSettings.Speed = speed }
}

// WithVoiceSettings sets voice characteristics.
func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Config) { c.VoiceSettings = settings }
}

// WithTimeout sets the synthesis request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithHTTPClient sets the HTTP client used for requests, typically one
// with a pooled transport. The supplied client's timeout is used as-is;
// WithTimeout only applies to the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModelID:       "eleven_turbo_v2_5",
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       30 * time.Second,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}
