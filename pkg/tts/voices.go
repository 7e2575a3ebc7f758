// Package tts voice presets for ElevenLabs.
package tts

// Voices maps friendly preset names to ElevenLabs voice IDs.
// Use ResolveVoice to look up a voice by name or pass through raw IDs.
var Voices = map[string]string{
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // American female, calm
	"aria":      "9BWtsMINqrJLrRacOk9x", // American female, expressive
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // American female, soft
	"charlotte": "XB0fDUnXU5powFXDhCwa", // British female, warm
	"josh":      "TxGEqnHWrfWFTfGW9XjX", // American male, deep
	"adam":      "pNInz6obpgDQGcFmaJgB", // American male, deep
	"sam":       "yoZ06aMxZJJ28mfd3POQ", // American male, raspy
}

// DefaultVoice is the default voice preset for spoken answers.
const DefaultVoice = "rachel"

// DefaultAltVoice is the alternate retried when the default fails.
const DefaultAltVoice = "adam"

// ResolveVoice returns the voice ID for a preset name,
// or the input unchanged if it's already a voice ID.
func ResolveVoice(name string) string {
	if id, ok := Voices[name]; ok {
		return id
	}
	return name // Assume it's already a voice ID
}

// IsPreset returns true if the name is a known preset.
func IsPreset(name string) bool {
	_, ok := Voices[name]
	return ok
}
