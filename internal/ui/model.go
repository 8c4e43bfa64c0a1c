// Package ui is the Bubble Tea front end. It owns the text fields, the
// transcript viewport and the key bindings, feeds user actions to the
// navigator and carries out the commands the navigator hands back.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"FantasyChat/internal/backend"
	"FantasyChat/internal/navigator"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 6 // header, divider, input, help
)

// Sender is the part of backend.Client the UI needs.
type Sender interface {
	Send(ctx context.Context, req backend.ChatRequest) (string, error)
	Probe(ctx context.Context) error
}

// eventMsg wraps a navigator event so it can travel through the Bubble Tea loop.
type eventMsg struct {
	event navigator.Event
}

// focusMsg asks for the text field of screen to take focus.
type focusMsg struct {
	screen navigator.Screen
}

// Model is the Bubble Tea model for the whole application.
type Model struct {
	nav     *navigator.Navigator
	state   navigator.State
	startup []navigator.Command

	client  Sender
	timeout time.Duration
	logger  *slog.Logger
	clip    func(string) error

	entry    textinput.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles

	width  int
	height int
	flash  string
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithRequestTimeout bounds each chat request. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.clip = write }
}

// WithStyles replaces DefaultStyles.
func WithStyles(s Styles) Option {
	return func(m *Model) { m.styles = s }
}

// New creates the model and computes the navigator's starting state.
func New(nav *navigator.Navigator, client Sender, opts ...Option) Model {
	entry := textinput.New()
	entry.Prompt = "> "
	entry.Placeholder = "session_..."
	entry.CharLimit = 256

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Ask about your league..."
	input.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		nav:      nav,
		client:   client,
		logger:   slog.Default(),
		clip:     clipboard.WriteAll,
		entry:    entry,
		input:    input,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		spinner:  sp,
		styles:   DefaultStyles(),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	for _, opt := range opts {
		opt(&m)
	}
	sp.Style = m.styles.StatusLoading
	m.spinner = sp

	m.state, m.startup = nav.Init()
	m.resize()
	m.refreshTranscript(true)
	return m
}

// State returns the current navigator state.
func (m Model) State() navigator.State {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(m.startup))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshTranscript(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		return m, m.dispatch(msg.event)

	case focusMsg:
		if msg.screen != m.state.Screen {
			return m, nil
		}
		return m, m.focus(msg.screen)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state.Screen {
	case navigator.ScreenInitial:
		switch msg.String() {
		case "n", "enter":
			return m, m.dispatch(navigator.StartNewChat{})
		case "c":
			return m, m.dispatch(navigator.RequestContinueExisting{})
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case navigator.ScreenSessionEntry:
		switch msg.String() {
		case "enter":
			return m, m.dispatch(navigator.ConfirmContinue{ID: m.entry.Value()})
		case "esc":
			return m, m.dispatch(navigator.BackToInitial{})
		}
		var cmd tea.Cmd
		m.entry, cmd = m.entry.Update(msg)
		return m, cmd

	case navigator.ScreenChat:
		switch msg.String() {
		case "enter":
			return m, m.dispatch(navigator.Submit{Text: m.input.Value()})
		case "ctrl+n":
			return m, m.dispatch(navigator.StartNewChat{})
		case "ctrl+q":
			return m, m.dispatch(navigator.Quit{})
		case "ctrl+y":
			m.copySessionID()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// dispatch runs ev through the navigator and returns the resulting side effects.
func (m *Model) dispatch(ev navigator.Event) tea.Cmd {
	next, cmds, err := m.nav.Step(m.state, ev)
	if err != nil {
		if errors.Is(err, navigator.ErrEmptyIdentifier) {
			m.logger.Debug("session id missing", "screen", m.state.Screen.String())
		} else {
			m.logger.Error("navigator step failed", "event", ev, "error", err)
		}
	}

	if next.SessionID != m.state.SessionID && next.SessionID != "" {
		m.logger.Info("session changed", "session_id", next.SessionID)
	}
	grew := len(next.Messages) != len(m.state.Messages) || next.SessionID != m.state.SessionID
	m.state = next
	m.flash = ""
	m.refreshTranscript(grew)
	return m.run(cmds)
}

func (m *Model) run(cmds []navigator.Command) tea.Cmd {
	out := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		if cmd := m.command(c); cmd != nil {
			out = append(out, cmd)
		}
	}
	return tea.Batch(out...)
}

// command turns one navigator command into a Bubble Tea command, applying
// anything that only touches the model right away.
func (m *Model) command(c navigator.Command) tea.Cmd {
	switch c := c.(type) {
	case navigator.ShowScreen:
		m.logger.Debug("showing screen", "screen", c.Screen.String())
		m.entry.Blur()
		m.input.Blur()
		if c.FocusDelay <= 0 {
			return nil
		}
		screen := c.Screen
		return tea.Tick(c.FocusDelay, func(time.Time) tea.Msg {
			return focusMsg{screen: screen}
		})

	case navigator.ClearInput:
		switch c.Screen {
		case navigator.ScreenSessionEntry:
			m.entry.Reset()
		case navigator.ScreenChat:
			m.input.Reset()
		}
		return nil

	case navigator.SendChat:
		client, timeout, req := m.client, m.timeout, c.Request
		return func() tea.Msg {
			ctx, cancel := requestContext(timeout)
			defer cancel()
			body, err := client.Send(ctx, req)
			if err != nil {
				return eventMsg{navigator.ReplyFailed{Err: err}}
			}
			return eventMsg{navigator.ReplyReceived{Body: body}}
		}

	case navigator.ProbeConnection:
		client, timeout := m.client, m.timeout
		return func() tea.Msg {
			ctx, cancel := requestContext(timeout)
			defer cancel()
			return eventMsg{navigator.ProbeFinished{Err: client.Probe(ctx)}}
		}

	case navigator.Schedule:
		ev := c.Event
		return tea.Tick(c.Delay, func(time.Time) tea.Msg {
			return eventMsg{ev}
		})

	case navigator.StatusChanged:
		m.logger.Debug("status changed", "kind", c.Status.Kind.String(), "text", c.Status.Text)
		return nil
	}

	m.logger.Warn("unhandled command", "command", c)
	return nil
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func (m *Model) focus(screen navigator.Screen) tea.Cmd {
	switch screen {
	case navigator.ScreenSessionEntry:
		m.input.Blur()
		return m.entry.Focus()
	case navigator.ScreenChat:
		m.entry.Blur()
		return m.input.Focus()
	}
	return nil
}

func (m *Model) copySessionID() {
	if m.state.SessionID == "" {
		return
	}
	if err := m.clip(m.state.SessionID); err != nil {
		m.logger.Warn("failed to copy session id", "error", err)
		m.flash = "Clipboard unavailable"
		return
	}
	m.flash = "Session ID copied"
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 4
	m.entry.Width = m.width - 4
}

// refreshTranscript re-renders the messages. The view jumps to the newest
// message when follow is set or it was already showing the bottom.
func (m *Model) refreshTranscript(follow bool) {
	follow = follow || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow {
		m.viewport.GotoBottom()
	}
}
