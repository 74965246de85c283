package tts

import "errors"

// Common errors for the speech playback system.
var (
	// Request errors
	ErrEmptyText   = errors.New("passage text is empty")
	ErrUnknownRole = errors.New("unknown speaker role")

	// Remote backend errors
	ErrBackendUnreachable = errors.New("synthesis backend is unreachable")
	ErrSynthesisFailed    = errors.New("remote synthesis failed")
	ErrNotAudio           = errors.New("synthesis response is not an audio payload")
	ErrPayloadTooLarge    = errors.New("synthesis payload exceeds size limit")

	// Local synthesis errors
	ErrNoSynthesizer = errors.New("no on-device synthesizer available")
	ErrNoVoices      = errors.New("no on-device voices available")

	// Controller errors
	ErrNoPlaybackPath = errors.New("controller has neither a player nor a synthesizer")
)
