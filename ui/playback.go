package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

// PlaybackState is the UI-facing playback state, driven by controller
// lifecycle callbacks and user actions.
type PlaybackState int

const (
	// StateIdle means nothing is playing and nothing has been requested.
	StateIdle PlaybackState = iota
	// StateLoading means a play request was issued but audio has not
	// started yet.
	StateLoading
	// StateSpeaking means audio is audibly playing.
	StateSpeaking
	// StateFinished means playback completed; replay is available.
	StateFinished
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSpeaking:
		return "speaking"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// CanPlay reports whether a play action is accepted in this state. Requests
// made while loading or speaking are ignored, never queued.
func (s PlaybackState) CanPlay() bool {
	return s == StateIdle || s == StateFinished
}

// Playback lifecycle messages. Started and ended arrive through the event
// channel from controller callbacks; a failed message comes straight from
// the play command when the request is rejected before anything starts.
// Each carries the generation of the play attempt it belongs to; messages
// whose generation is no longer current are dropped, so an end event queued
// by a stopped attempt cannot touch the attempt that replaced it.

type playbackStartedMsg struct{ gen int }

type playbackEndedMsg struct{ gen int }

type playFailedMsg struct {
	gen int
	err error
}

// speechController is the surface of tts.Controller the UI drives. Narrowed
// to an interface so tests can substitute a scripted fake.
type speechController interface {
	Play(ctx context.Context, req tts.Request, onStart, onEnd func()) error
	Stop()
}

// listenCmd re-arms the event pump: it blocks on the channel and delivers
// the next controller callback as a message.
func listenCmd(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// playCmd issues the playback request for req. Lifecycle events flow back
// through the event channel tagged with gen; a synchronous rejection becomes
// playFailedMsg so the model can fall back to idle instead of spinning
// forever.
func playCmd(ctrl speechController, req tts.Request, gen int, events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Play(context.Background(), req,
			func() { events <- playbackStartedMsg{gen: gen} },
			func() { events <- playbackEndedMsg{gen: gen} },
		)
		if err != nil {
			return playFailedMsg{gen: gen, err: err}
		}
		return nil
	}
}
