// Package ui renders the listening-practice TUI and maps playback
// controller callbacks onto the observable playback states.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tiexiang0-alt/Mock-Test/internal/passage"
)

const minWidth = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	roleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	bodyStyle  = lipgloss.NewStyle().PaddingLeft(2).PaddingTop(1).PaddingBottom(1)
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	posStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
)

type keyMap struct {
	Play key.Binding
	Next key.Binding
	Prev key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "play/replay"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n", "next passage"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p", "previous passage"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// PassagesReloadedMsg carries a freshly loaded passage set, typically sent
// by the file watcher through Program.Send.
type PassagesReloadedMsg struct {
	Passages []passage.Passage
}

// Model is the top-level TUI model.
type Model struct {
	cfg      Config
	ctrl     speechController
	keys     keyMap
	logger   *log.Logger
	passages []passage.Passage
	index    int
	width    int

	state     PlaybackState
	hasPlayed bool
	spinner   spinner.Model

	// gen identifies the current play attempt. It advances on every play
	// and on every reset, so lifecycle messages still queued from a
	// superseded attempt no longer match and get dropped.
	gen int

	// events carries controller lifecycle callbacks into the update loop.
	events chan tea.Msg
}

// NewModel builds the TUI model for the given passage set.
func NewModel(cfg Config, ctrl speechController, passages []passage.Passage) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return Model{
		cfg:      cfg,
		ctrl:     ctrl,
		keys:     defaultKeyMap(),
		logger:   log.Default().WithPrefix("ui"),
		passages: passages,
		spinner:  sp,
		state:    StateIdle,
		events:   make(chan tea.Msg, 8),
	}
}

// State exposes the current playback state, mainly for tests.
func (m Model) State() PlaybackState { return m.state }

// HasPlayed reports whether the current passage finished playing at least
// once, which drives the replay affordance.
func (m Model) HasPlayed() bool { return m.hasPlayed }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listenCmd(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case playbackStartedMsg:
		if msg.gen != m.gen {
			return m, listenCmd(m.events)
		}
		if m.state == StateLoading {
			m.state = StateSpeaking
		}
		return m, listenCmd(m.events)

	case playbackEndedMsg:
		if msg.gen != m.gen {
			return m, listenCmd(m.events)
		}
		// An error-end can arrive while still loading; either way the
		// passage is done and replay becomes available.
		if m.state == StateSpeaking || m.state == StateLoading {
			m.state = StateFinished
			m.hasPlayed = true
		}
		return m, listenCmd(m.events)

	case playFailedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.logger.Error("play request rejected", "error", msg.err)
		m.state = StateIdle
		return m, nil

	case PassagesReloadedMsg:
		return m.setPassages(msg.Passages), nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Play):
		if !m.state.CanPlay() || len(m.passages) == 0 {
			return m, nil
		}
		m.gen++
		m.state = StateLoading
		req := m.passages[m.index].Request()
		return m, tea.Batch(m.spinner.Tick, playCmd(m.ctrl, req, m.gen, m.events))

	case key.Matches(msg, m.keys.Next):
		return m.selectPassage(m.index + 1), nil

	case key.Matches(msg, m.keys.Prev):
		return m.selectPassage(m.index - 1), nil
	}

	return m, nil
}

// selectPassage switches the input text. Any active audio is stopped
// synchronously and playback state resets before the new passage can play.
func (m Model) selectPassage(i int) Model {
	if i < 0 || i >= len(m.passages) || i == m.index {
		return m
	}
	m.ctrl.Stop()
	m.gen++
	m.index = i
	m.state = StateIdle
	m.hasPlayed = false
	return m
}

// setPassages replaces the passage set after a file reload, clamping the
// selection and resetting playback like any other input change.
func (m Model) setPassages(passages []passage.Passage) Model {
	if len(passages) == 0 {
		return m
	}
	m.ctrl.Stop()
	m.gen++
	m.passages = passages
	if m.index >= len(passages) {
		m.index = len(passages) - 1
	}
	m.state = StateIdle
	m.hasPlayed = false
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.passages) == 0 {
		return helpStyle.Render("no passages loaded")
	}

	width := m.width
	if width < minWidth {
		width = minWidth
	}

	p := m.passages[m.index]
	var b strings.Builder

	b.WriteString(titleStyle.Render(p.Title))
	b.WriteString("  ")
	b.WriteString(roleStyle.Render(fmt.Sprintf("[%s]", p.Role())))
	b.WriteString("  ")
	b.WriteString(posStyle.Render(fmt.Sprintf("%d/%d", m.index+1, len(m.passages))))
	b.WriteString("\n")

	b.WriteString(bodyStyle.Render(wordwrap.String(p.Text, width-4)))
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: play/replay • n/p: switch passage • q: quit"))
	return b.String()
}

func (m Model) statusLine() string {
	switch m.state {
	case StateLoading:
		return stateStyle.Render(m.spinner.View() + " preparing audio…")
	case StateSpeaking:
		return stateStyle.Render("▶ speaking")
	case StateFinished:
		return stateStyle.Render("■ finished, press space to replay")
	default:
		return stateStyle.Render("■ ready")
	}
}
