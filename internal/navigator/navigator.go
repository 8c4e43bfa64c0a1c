package navigator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"FantasyChat/internal/backend"
	"FantasyChat/internal/config"
	"FantasyChat/internal/formatter"
	"FantasyChat/internal/session"
)

// ErrEmptyIdentifier is returned when a session is continued with a blank id.
var ErrEmptyIdentifier = errors.New("empty session identifier")

const (
	FocusDelay = 100 * time.Millisecond
	QuitDelay  = 1500 * time.Millisecond
	NoticeTTL  = 3 * time.Second
)

const quitCommand = "quit"

// Text shown to the user.
const (
	WelcomeText         = "Welcome to Fantasy Basketball Helper! I'm here to help you with your league management, player analysis, and strategic advice. Type 'quit' to end the conversation."
	ContinueTextFmt     = "Continuing session: %s. Type 'quit' to end the conversation."
	SessionEndedText    = "Session ended. You can start a new chat or continue an existing one."
	SendErrorText       = "Sorry, I encountered an error. Please try again."
	EmptyIdentifierText = "Please enter a session ID to continue."
)

var (
	statusReady        = Status{StatusReady, "Ready"}
	statusSending      = Status{StatusLoading, "Sending message..."}
	statusSent         = Status{StatusSuccess, "Message sent successfully"}
	statusSendFailed   = Status{StatusError, "Error sending message"}
	statusEnded        = Status{StatusSuccess, "Session ended"}
	statusProbing      = Status{StatusLoading, "Testing connection..."}
	statusConnected    = Status{StatusSuccess, "Connected to API"}
	statusDisconnected = Status{StatusError, "Cannot connect to API"}
)

// QuitPolicy decides where the widget goes once a session has ended.
type QuitPolicy int

const (
	ReturnToChooser QuitPolicy = iota
	NewSession
)

// ParseQuitPolicy maps a config value onto a QuitPolicy.
func ParseQuitPolicy(s string) (QuitPolicy, error) {
	switch s {
	case config.QuitReturnToChooser:
		return ReturnToChooser, nil
	case config.QuitNewSession:
		return NewSession, nil
	}
	return ReturnToChooser, fmt.Errorf("unknown quit policy: %s", s)
}

// IDSource hands out session identifiers.
type IDSource interface {
	Next() string
}

// Options configures a Navigator.
type Options struct {
	OnQuit QuitPolicy
	// Strict ignores navigation while a message is in flight. When false a
	// user may leave the conversation mid-request and the reply still lands
	// in whatever conversation is showing when it arrives.
	Strict        bool
	StartInChat   bool
	Probe         bool
	LeagueID      string
	VectorStoreID string
	Now           func() time.Time
}

// Navigator computes state transitions. It holds configuration only; all
// mutable state lives in the State values passed through Step.
type Navigator struct {
	opts Options
	ids  IDSource
}

// New creates a Navigator drawing session identifiers from ids.
func New(opts Options, ids IDSource) *Navigator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Navigator{opts: opts, ids: ids}
}

// FromConfig builds Options from the application config.
func FromConfig(cfg config.Config) (Options, error) {
	policy, err := ParseQuitPolicy(cfg.OnQuit)
	if err != nil {
		return Options{}, err
	}
	return Options{
		OnQuit:        policy,
		Strict:        cfg.StrictNavigation,
		StartInChat:   cfg.StartScreen == config.StartChat,
		Probe:         cfg.ProbeOnStart,
		LeagueID:      cfg.LeagueID,
		VectorStoreID: cfg.VectorStoreID,
	}, nil
}

// Init returns the starting state and the commands to run on startup.
func (n *Navigator) Init() (State, []Command) {
	s := State{Screen: ScreenInitial, Status: statusReady}
	var cmds []Command

	if n.opts.StartInChat {
		s, cmds = n.startNewChat(s)
	} else {
		cmds = append(cmds, n.show(&s, ScreenInitial))
	}

	if n.opts.Probe {
		s.Status = statusProbing
		cmds = append(cmds, StatusChanged{statusProbing}, ProbeConnection{})
	}
	return s, cmds
}

// Step applies ev to s. The only error it returns is ErrEmptyIdentifier, which
// is informational: the returned state and commands are still to be applied.
func (n *Navigator) Step(s State, ev Event) (State, []Command, error) {
	if n.opts.Strict && s.Sending && isNavigation(ev) {
		return s, nil, nil
	}

	switch ev := ev.(type) {
	case StartNewChat:
		s, cmds := n.startNewChat(s)
		return s, cmds, nil

	case RequestContinueExisting:
		cmds := []Command{ClearInput{ScreenSessionEntry}}
		cmds = append(cmds, n.show(&s, ScreenSessionEntry))
		return s, cmds, nil

	case ConfirmContinue:
		return n.confirmContinue(s, ev.ID)

	case BackToInitial:
		return s, []Command{n.show(&s, ScreenInitial)}, nil

	case Submit:
		s, cmds := n.submit(s, ev.Text)
		return s, cmds, nil

	case Quit:
		s, cmds := n.quit(s)
		return s, cmds, nil

	case ReplyReceived:
		s = s.withMessage(session.Message{
			Role:      session.RoleAssistant,
			Text:      ev.Body,
			Markup:    formatter.Format(ev.Body),
			Timestamp: n.opts.Now(),
		})
		s, cmds := n.finishSend(s, statusSent)
		return s, cmds, nil

	case ReplyFailed:
		s = n.system(s, SendErrorText)
		s, cmds := n.finishSend(s, statusSendFailed)
		return s, cmds, nil

	case QuitDelayElapsed:
		if n.opts.OnQuit == NewSession {
			s, cmds := n.startNewChat(s)
			return s, cmds, nil
		}
		return s, []Command{n.show(&s, ScreenInitial)}, nil

	case NoticeExpired:
		return s.withoutNotice(ev.ID), nil, nil

	case ProbeFinished:
		st := statusConnected
		if ev.Err != nil {
			st = statusDisconnected
		}
		s.Status = st
		return s, []Command{StatusChanged{st}}, nil
	}

	return s, nil, fmt.Errorf("unhandled event %T", ev)
}

func isNavigation(ev Event) bool {
	switch ev.(type) {
	case StartNewChat, RequestContinueExisting, ConfirmContinue, BackToInitial, Quit:
		return true
	}
	return false
}

func (n *Navigator) startNewChat(s State) (State, []Command) {
	s.SessionID = n.ids.Next()
	s.Messages = nil
	s = n.system(s, WelcomeText)
	return s, []Command{n.show(&s, ScreenChat)}
}

func (n *Navigator) confirmContinue(s State, raw string) (State, []Command, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		s, notice := s.withNotice(EmptyIdentifierText)
		return s, []Command{Schedule{Delay: NoticeTTL, Event: NoticeExpired{ID: notice.ID}}}, ErrEmptyIdentifier
	}

	s.SessionID = id
	s.Messages = nil
	s = n.system(s, fmt.Sprintf(ContinueTextFmt, id))
	return s, []Command{n.show(&s, ScreenChat)}, nil
}

func (n *Navigator) submit(s State, raw string) (State, []Command) {
	text := strings.TrimSpace(raw)
	if text == "" || s.Sending {
		return s, nil
	}

	s = s.withMessage(session.Message{Role: session.RoleUser, Text: text, Timestamp: n.opts.Now()})
	cmds := []Command{ClearInput{ScreenChat}}

	if strings.ToLower(text) == quitCommand {
		s, quitCmds := n.quit(s)
		return s, append(cmds, quitCmds...)
	}

	s.Sending = true
	s.Status = statusSending
	cmds = append(cmds,
		StatusChanged{statusSending},
		SendChat{Request: backend.ChatRequest{
			SessionID:     s.SessionID,
			UserMessage:   text,
			LeagueID:      n.opts.LeagueID,
			VectorStoreID: n.opts.VectorStoreID,
		}},
	)
	return s, cmds
}

func (n *Navigator) quit(s State) (State, []Command) {
	s = n.system(s, SessionEndedText)
	s.Status = statusEnded
	return s, []Command{
		StatusChanged{statusEnded},
		Schedule{Delay: QuitDelay, Event: QuitDelayElapsed{}},
	}
}

func (n *Navigator) finishSend(s State, outcome Status) (State, []Command) {
	s.Sending = false
	s.Status = statusReady
	return s, []Command{StatusChanged{outcome}, StatusChanged{statusReady}}
}

func (n *Navigator) system(s State, text string) State {
	return s.withMessage(session.Message{Role: session.RoleSystem, Text: text, Timestamp: n.opts.Now()})
}

func (n *Navigator) show(s *State, screen Screen) Command {
	s.Screen = screen
	var delay time.Duration
	if screen == ScreenChat || screen == ScreenSessionEntry {
		delay = FocusDelay
	}
	return ShowScreen{Screen: screen, FocusDelay: delay}
}
