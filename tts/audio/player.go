// Package audio provides cross-platform PCM playback for synthesized speech
// using oto, plus an ffmpeg-backed transcoder for the compressed payloads
// the remote synthesis service returns.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Config contains audio device configuration.
type Config struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // 16 bits per sample
}

// DefaultConfig returns the default device configuration: CD-rate mono,
// which matches the transcoder's output format.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Channels:   1,
		BitDepth:   16,
	}
}

func (c Config) validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", c.BitDepth)
	}
	return nil
}

// Player plays raw PCM buffers through the system audio device. It owns at
// most one oto player at a time; starting a new buffer releases the previous
// one first.
type Player struct {
	context *oto.Context
	cfg     Config

	mu      sync.Mutex
	session *session
	closed  bool
}

// session is one live playback of a PCM buffer. The data slice is retained
// for the whole playback; releasing it early causes audible static.
type session struct {
	player *oto.Player
	data   []byte
	done   func(err error)

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewPlayer opens the audio device with the given configuration.
func NewPlayer(cfg Config) (*Player, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	return &Player{context: ctx, cfg: cfg}, nil
}

// Play starts playback of the PCM buffer and returns immediately. done is
// invoked once, from the playback goroutine, when the buffer drains or the
// device errors. An explicit Stop suppresses done; the caller that stopped
// the playback already knows it ended.
func (p *Player) Play(pcm []byte, done func(err error)) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}
	if done == nil {
		done = func(error) {}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("player is closed")
	}
	p.stopSessionLocked()

	// Copy so the caller may reuse its buffer.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	s := &session{
		player:  p.context.NewPlayer(bytes.NewReader(data)),
		data:    data,
		done:    done,
		stopped: make(chan struct{}),
	}
	p.session = s
	s.player.Play()

	go p.watch(s)
	return nil
}

// watch polls the oto player until the buffer drains, then fires done and
// releases the session.
func (p *Player) watch(s *session) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			if s.player.IsPlaying() {
				continue
			}

			err := s.player.Err()
			p.mu.Lock()
			if p.session == s {
				p.session = nil
			}
			drained := false
			s.stopOnce.Do(func() {
				close(s.stopped)
				_ = s.player.Close()
				drained = true
			})
			p.mu.Unlock()
			// drained is false when an explicit Stop won the race; that
			// caller owns the lifecycle event.
			if drained {
				s.done(err)
			}
			return
		}
	}
}

// Stop halts any active playback and releases its resources. Idempotent and
// safe to call when nothing is playing.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopSessionLocked()
	return nil
}

// stopSessionLocked tears down the live session. Callers must hold p.mu.
func (p *Player) stopSessionLocked() {
	s := p.session
	if s == nil {
		return
	}
	p.session = nil
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.player.Pause()
		_ = s.player.Close()
	})
}

// IsPlaying reports whether a buffer is currently being played.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil && p.session.player.IsPlaying()
}

// Close stops playback and releases the audio device. The player must not
// be used afterwards.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.stopSessionLocked()
	p.closed = true
	// oto contexts cannot be closed; suspending parks the device thread.
	return p.context.Suspend()
}
