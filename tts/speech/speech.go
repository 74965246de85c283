// Package speech provides the on-device synthesis fallback, backed by the
// espeak-ng binary. It implements the host speech capability the playback
// controller consumes: an enumerable voice list, a speak-and-play primitive
// with lifecycle callbacks, and cancel-all.
package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

// espeak-ng defaults: 175 words per minute, pitch midpoint 50 on a 0-99
// scale. The controller's rate/pitch multipliers scale these.
const (
	defaultWPM   = 175
	defaultPitch = 50
)

// Engine drives espeak-ng as a child process. At most one utterance is in
// flight; Speak and Cancel enforce that.
type Engine struct {
	binary string
	logger *log.Logger

	mu      sync.Mutex
	current *exec.Cmd

	voicesOnce sync.Once
	voices     []tts.Voice
	voicesErr  error
}

// NewEngine creates an engine using the given binary name or path. An empty
// binary defaults to "espeak-ng".
func NewEngine(binary string) *Engine {
	if binary == "" {
		binary = "espeak-ng"
	}
	return &Engine{
		binary: binary,
		logger: log.Default().WithPrefix("speech"),
	}
}

// Available reports whether the synthesis binary can be found.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Voices enumerates the installed English voices. The list is queried once
// and cached; installed voices do not change within a session.
func (e *Engine) Voices() ([]tts.Voice, error) {
	e.voicesOnce.Do(func() {
		out, err := exec.Command(e.binary, "--voices=en").Output()
		if err != nil {
			e.voicesErr = fmt.Errorf("list voices: %w", err)
			return
		}
		e.voices = parseVoices(out)
	})
	return e.voices, e.voicesErr
}

// parseVoices reads `espeak-ng --voices` output. Columns are
// Pty Language Age/Gender VoiceName File [Other Languages]; the header line
// and anything malformed is skipped.
func parseVoices(out []byte) []tts.Voice {
	var voices []tts.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, tts.Voice{
			Name: fields[3],
			Lang: fields[1],
		})
	}
	if len(voices) > 0 {
		voices[0].Default = true
	}
	return voices
}

// Speak starts speaking text with the given voice and prosody and returns
// once the child process is running. Lifecycle callbacks fire from the
// watcher goroutine: OnStart immediately, then exactly one of OnEnd or
// OnError when the process exits. A superseding Cancel or Speak suppresses
// the superseded utterance's callbacks.
func (e *Engine) Speak(ctx context.Context, text string, opts tts.SpeakOptions) error {
	e.Cancel()

	wpm := int(opts.Rate * defaultWPM)
	if wpm <= 0 {
		wpm = defaultWPM
	}
	pitch := int(opts.Pitch * defaultPitch)
	if pitch < 0 {
		pitch = 0
	} else if pitch > 99 {
		pitch = 99
	}

	args := []string{"-s", strconv.Itoa(wpm), "-p", strconv.Itoa(pitch)}
	if opts.Voice.Name != "" {
		args = append(args, "-v", opts.Voice.Name)
	}
	args = append(args, "--", text)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.binary, err)
	}

	e.mu.Lock()
	e.current = cmd
	e.mu.Unlock()

	go e.watch(cmd, opts)
	return nil
}

// watch follows one utterance to completion.
func (e *Engine) watch(cmd *exec.Cmd, opts tts.SpeakOptions) {
	e.mu.Lock()
	live := e.current == cmd
	e.mu.Unlock()

	if live && opts.OnStart != nil {
		opts.OnStart()
	}

	err := cmd.Wait()

	e.mu.Lock()
	superseded := e.current != cmd
	if !superseded {
		e.current = nil
	}
	e.mu.Unlock()

	if superseded {
		// Killed by Cancel; the canceller owns the lifecycle.
		return
	}

	if err != nil {
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return
	}
	if opts.OnEnd != nil {
		opts.OnEnd()
	}
}

// Cancel kills any in-flight utterance. Its callbacks are suppressed.
// Idempotent and safe to call when nothing is speaking.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cmd := e.current
	e.current = nil
	e.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		e.logger.Debug("killing utterance failed", "error", err)
	}
}

// Ensure Engine implements the host speech capability.
var _ tts.Synthesizer = (*Engine)(nil)
