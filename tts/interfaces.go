package tts

import "context"

// Backend is the remote synthesis service as seen by the controller.
type Backend interface {
	// Health checks reachability. A nil return means the service answered
	// with a success status within the caller's deadline.
	Health(ctx context.Context) error

	// Synthesize converts text to a compressed audio payload for the given
	// speaker role. The full text travels in the request body, never the
	// URL, so passage length is not limited by URL size.
	Synthesize(ctx context.Context, text, speaker string) ([]byte, error)
}

// Transcoder converts a compressed synthesis payload into raw PCM suitable
// for the audio player.
type Transcoder interface {
	ToPCM(ctx context.Context, data []byte) ([]byte, error)
}

// Player plays raw PCM audio.
//
// Play must not block for the duration of playback: it starts the audio and
// returns, and done is invoked exactly once from the player's own goroutine
// when playback completes or irrecoverably errors. Neither Play nor Stop may
// invoke done synchronously; the controller relies on this to hold its own
// lock across calls.
type Player interface {
	Play(pcm []byte, done func(err error)) error
	Stop() error
	IsPlaying() bool
	Close() error
}

// SpeakOptions parameterizes a single on-device utterance.
type SpeakOptions struct {
	Voice Voice
	Rate  float64 // 1.0 = normal speed
	Pitch float64 // 1.0 = normal pitch

	// Lifecycle callbacks. OnStart fires when audible output begins, and
	// exactly one of OnEnd or OnError fires when the utterance finishes.
	// All are invoked from the synthesizer's own goroutine.
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// Synthesizer is the host-provided on-device speech capability: an
// enumerable voice list, a speak-and-play primitive, and a cancel-all
// primitive. Speak must not block for the duration of the utterance.
type Synthesizer interface {
	Voices() ([]Voice, error)
	Speak(ctx context.Context, text string, opts SpeakOptions) error
	Cancel()
}
