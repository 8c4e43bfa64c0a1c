// Package navigator holds the chat widget's screen and session state and the
// transitions between them. Transitions are pure: Navigator.Step takes a State
// and an Event and returns the next State plus the side effects, as Commands,
// that the caller has to carry out.
package navigator

import (
	"fmt"

	"FantasyChat/internal/session"
)

// Screen is one of the three mutually exclusive views.
type Screen int

const (
	ScreenInitial Screen = iota
	ScreenSessionEntry
	ScreenChat
)

func (s Screen) String() string {
	switch s {
	case ScreenInitial:
		return "initial"
	case ScreenSessionEntry:
		return "session_entry"
	case ScreenChat:
		return "chat"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// StatusKind mirrors the connection indicator's states.
type StatusKind int

const (
	StatusReady StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusReady:
		return "ready"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// Status is the indicator shown next to the conversation.
type Status struct {
	Kind StatusKind
	Text string
}

// Notice is a transient message that is removed by a NoticeExpired event.
type Notice struct {
	ID   int
	Text string
}

// State is everything the widget shows. Treat it as a value: Step never
// modifies the slices of the State it was given.
type State struct {
	Screen    Screen
	SessionID string
	Sending   bool
	Status    Status
	Messages  []session.Message
	Notices   []Notice

	noticeSeq int
}

func (s State) withMessage(m session.Message) State {
	msgs := make([]session.Message, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	s.Messages = append(msgs, m)
	return s
}

func (s State) withNotice(text string) (State, Notice) {
	s.noticeSeq++
	n := Notice{ID: s.noticeSeq, Text: text}
	notices := make([]Notice, len(s.Notices), len(s.Notices)+1)
	copy(notices, s.Notices)
	s.Notices = append(notices, n)
	return s, n
}

func (s State) withoutNotice(id int) State {
	notices := make([]Notice, 0, len(s.Notices))
	for _, n := range s.Notices {
		if n.ID != id {
			notices = append(notices, n)
		}
	}
	s.Notices = notices
	return s
}
