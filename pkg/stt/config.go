package stt

import (
	"log/slog"
	"time"
)

// Config holds streaming transcription configuration.
type Config struct {
	// APIKey is the vendor API key. Required.
	APIKey string

	// Endpoint is the vendor's realtime WebSocket URL.
	Endpoint string

	// SampleRate is the PCM16 input sample rate in Hz.
	SampleRate int

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the vendor API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithEndpoint sets the realtime WebSocket URL.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithSampleRate sets the input sample rate in Hz.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithHandshakeTimeout sets the dial timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.HandshakeTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults. Browsers capture microphone
// audio at 16kHz PCM16 for speech use cases, so that is the default rate.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:         "wss://streaming.assemblyai.com/v3/ws",
		SampleRate:       16000,
		HandshakeTimeout: 10 * time.Second,
		Logger:           slog.Default(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.SampleRate <= 0 {
		return ErrBadSampleRate
	}
	return nil
}
