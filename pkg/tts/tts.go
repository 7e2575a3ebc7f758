// Package tts provides text-to-speech synthesis for spoken answers.
//
// The package wraps the ElevenLabs HTTP API behind a Provider interface.
// Synthesis is bounded: input longer than MaxTextLen is rejected up front
// so callers pre-truncate at a sentence boundary, and a failed synthesis
// is retried once against an alternate voice before giving up. Total
// failure is signaled to HTTP callers as a structured "use on-device
// speech" response, not an error page.
//
// Example usage:
//
//	provider, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice("rachel"),
//	    tts.WithAltVoice("adam"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3 audio bytes
package tts

import (
	"context"
)

// MaxTextLen is the synthesis character ceiling. Longer input is rejected
// with ErrTextTooLong before any network call.
const MaxTextLen = 500

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data.
	Audio []byte

	// MIME is the audio content type (audio/mpeg for MP3 output).
	MIME string

	// Voice is the voice ID that produced the audio. When the primary
	// voice failed and the alternate succeeded this is the alternate.
	Voice string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the total synthesis time in milliseconds.
	LatencyMs int64
}

// VoiceSettings controls voice characteristics.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive/variable, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Speed is the speech-rate multiplier (1.0 = normal).
	Speed float64
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Speed:           1.0,
	}
}
