package stt

import "errors"

var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("stt: API key is required")

	// ErrBadSampleRate is returned for a non-positive sample rate.
	ErrBadSampleRate = errors.New("stt: sample rate must be positive")

	// ErrSessionClosed is returned when writing to a closed session.
	ErrSessionClosed = errors.New("stt: session closed")
)
