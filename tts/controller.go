package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"
)

// Controller decides which synthesis backend plays a passage, owns the
// single active audio resource, and reports lifecycle events to its caller.
//
// At most one playback is live at any moment: starting a new request first
// releases the previous handle, and callbacks from a superseded attempt are
// silently dropped so a slow remote response can never resurrect stale
// state.
type Controller struct {
	backend    Backend
	transcoder Transcoder
	player     Player
	synth      Synthesizer
	cfg        Config
	logger     *log.Logger

	// Backend availability, probed at most once per process run.
	probeOnce sync.Once
	avail     Availability

	mu     sync.Mutex
	active *attempt
}

// attempt tracks one playback invocation from Play until its terminal event.
type attempt struct {
	id      string
	cancel  context.CancelFunc
	started bool
	endOnce sync.Once
	onEnd   func()
}

// end fires the attempt's terminal event exactly once.
func (a *attempt) end() {
	a.endOnce.Do(a.onEnd)
}

// NewController creates a playback controller. backend and transcoder may be
// nil to disable the remote path, and synth may be nil to disable the local
// path, but at least one complete path must exist.
func NewController(cfg Config, backend Backend, transcoder Transcoder, player Player, synth Synthesizer) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	remoteOK := backend != nil && transcoder != nil && player != nil
	if !remoteOK && synth == nil {
		return nil, ErrNoPlaybackPath
	}

	return &Controller{
		backend:    backend,
		transcoder: transcoder,
		player:     player,
		synth:      synth,
		cfg:        cfg,
		logger:     log.Default().WithPrefix("tts"),
	}, nil
}

// Probe resolves the remote backend's availability. The network round trip
// happens at most once per controller lifetime; every later call returns the
// memoized answer. A backend that comes up mid-session is deliberately not
// re-probed.
func (c *Controller) Probe(ctx context.Context) Availability {
	c.probeOnce.Do(func() {
		if c.backend == nil {
			c.avail = BackendUnavailable
			return
		}

		pctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		defer cancel()

		if err := c.backend.Health(pctx); err != nil {
			c.logger.Warn("synthesis backend unreachable, using on-device voices",
				"error", err)
			c.avail = BackendUnavailable
			return
		}
		c.logger.Debug("synthesis backend available")
		c.avail = BackendAvailable
	})
	return c.avail
}

// Play speaks the passage described by req. onStart fires when audible
// playback actually begins, and onEnd fires exactly once when playback
// completes, errors out, or is stopped after having started. A non-nil
// return means the request was rejected before anything was acquired; no
// callbacks fire in that case.
//
// Any active playback is released first, and a remote failure silently
// degrades to the on-device path.
func (c *Controller) Play(ctx context.Context, req Request, onStart, onEnd func()) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if onStart == nil {
		onStart = func() {}
	}
	if onEnd == nil {
		onEnd = func() {}
	}

	actx, cancel := context.WithCancel(ctx)
	at := &attempt{id: xid.New().String(), cancel: cancel, onEnd: onEnd}

	c.mu.Lock()
	pendingEnd := c.releaseLocked()
	c.active = at
	c.mu.Unlock()

	// Terminal event of the superseded playback, fired outside the lock.
	if pendingEnd != nil {
		pendingEnd()
	}

	c.logger.Debug("play requested", "id", at.id, "role", req.Role, "chars", len(req.Text))

	start := func() {
		c.mu.Lock()
		current := c.active == at
		if current {
			at.started = true
		}
		c.mu.Unlock()
		if current {
			onStart()
		}
	}
	finish := func() {
		c.mu.Lock()
		current := c.active == at
		if current {
			c.active = nil
		}
		c.mu.Unlock()
		if current {
			at.cancel()
			at.end()
		}
	}

	go c.run(actx, at, req, start, finish)
	return nil
}

// run executes one playback attempt: remote first when available, local
// otherwise or on any remote failure.
func (c *Controller) run(ctx context.Context, at *attempt, req Request, start, finish func()) {
	if c.Probe(ctx) == BackendAvailable {
		err := c.playRemote(ctx, at, req, start, finish)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			// Superseded mid-flight; the new attempt owns the device now.
			return
		}
		c.logger.Warn("remote synthesis failed, falling back to on-device voices",
			"id", at.id, "error", err)
	}
	c.playLocal(ctx, at, req, start, finish)
}

// playRemote synthesizes through the remote service and plays the decoded
// payload. Any returned error means the local path should take over.
func (c *Controller) playRemote(ctx context.Context, at *attempt, req Request, start, finish func()) error {
	if c.player == nil || c.transcoder == nil {
		return ErrNoPlaybackPath
	}

	sctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	data, err := c.backend.Synthesize(sctx, req.Text, string(req.Role))
	if err != nil {
		return err
	}

	pcm, err := c.transcoder.ToPCM(sctx, data)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	c.mu.Lock()
	if c.active != at {
		// Superseded while the request was in flight. Drop the payload;
		// the successor already owns the player.
		c.mu.Unlock()
		return nil
	}
	err = c.player.Play(pcm, func(perr error) {
		if perr != nil {
			// Mid-playback decode or device errors resolve as a normal
			// completion; the listener just hears silence.
			c.logger.Error("playback ended with error", "id", at.id, "error", perr)
		}
		finish()
	})
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	start()
	return nil
}

// playLocal speaks through the on-device synthesizer. Terminal failures
// resolve as an immediate end event so the caller never hangs waiting.
func (c *Controller) playLocal(ctx context.Context, at *attempt, req Request, start, finish func()) {
	if c.synth == nil {
		c.logger.Error("local synthesis unavailable", "id", at.id, "error", ErrNoSynthesizer)
		finish()
		return
	}

	// Cancel-before-speak mirrors the host capability's contract: only one
	// utterance may be in flight.
	c.synth.Cancel()

	voices, err := c.synth.Voices()
	if err != nil {
		c.logger.Error("enumerating on-device voices failed", "id", at.id, "error", err)
		finish()
		return
	}
	voice, err := SelectVoice(voices, req.Role)
	if err != nil {
		c.logger.Error("local synthesis unavailable", "id", at.id, "error", err)
		finish()
		return
	}
	c.logger.Debug("selected on-device voice", "id", at.id, "voice", voice.Name, "role", req.Role)

	opts := SpeakOptions{
		Voice:   voice,
		Rate:    localRate,
		Pitch:   localPitch,
		OnStart: start,
		OnEnd:   finish,
		OnError: func(serr error) {
			c.logger.Error("on-device synthesis error", "id", at.id, "error", serr)
			finish()
		},
	}

	c.mu.Lock()
	if c.active != at {
		c.mu.Unlock()
		return
	}
	err = c.synth.Speak(ctx, req.Text, opts)
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("on-device synthesis failed to start", "id", at.id, "error", err)
		finish()
	}
}

// Stop releases any active playback. It is idempotent and safe to call when
// nothing is playing. If playback had audibly started, its pending end event
// fires; an attempt stopped before its start event fires nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	pendingEnd := c.releaseLocked()
	c.mu.Unlock()

	if pendingEnd != nil {
		pendingEnd()
	}
}

// releaseLocked detaches and cancels the active attempt, stopping whichever
// device it holds. It returns the attempt's terminal event when one is still
// owed, to be fired after the lock is dropped. Callers must hold c.mu.
func (c *Controller) releaseLocked() func() {
	at := c.active
	if at == nil {
		return nil
	}
	c.active = nil
	at.cancel()

	if c.player != nil {
		if err := c.player.Stop(); err != nil {
			c.logger.Error("stopping audio player failed", "id", at.id, "error", err)
		}
	}
	if c.synth != nil {
		c.synth.Cancel()
	}

	c.logger.Debug("playback released", "id", at.id, "started", at.started)
	if at.started {
		return at.end
	}
	return nil
}

// Close stops playback and releases the audio device. The controller must
// not be used afterwards.
func (c *Controller) Close() error {
	c.Stop()
	if c.player != nil {
		return c.player.Close()
	}
	return nil
}
