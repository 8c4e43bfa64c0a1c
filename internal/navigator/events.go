package navigator

import (
	"time"

	"FantasyChat/internal/backend"
)

// Event is something the user or the outside world did.
type Event interface {
	event()
}

type (
	// StartNewChat begins a fresh session.
	StartNewChat struct{}
	// RequestContinueExisting opens the session entry screen.
	RequestContinueExisting struct{}
	// ConfirmContinue resumes the session named by ID.
	ConfirmContinue struct{ ID string }
	// BackToInitial leaves the session entry screen.
	BackToInitial struct{}
	// Submit sends Text, or ends the session if Text is "quit".
	Submit struct{ Text string }
	// Quit ends the session without typing.
	Quit struct{}
	// ReplyReceived carries the body of a successful chat response.
	ReplyReceived struct{ Body string }
	// ReplyFailed reports a failed chat request.
	ReplyFailed struct{ Err error }
	// QuitDelayElapsed fires once the post-quit delay has passed.
	QuitDelayElapsed struct{}
	// NoticeExpired removes the notice with the given ID.
	NoticeExpired struct{ ID int }
	// ProbeFinished reports the outcome of the startup connection check.
	ProbeFinished struct{ Err error }
)

func (StartNewChat) event()            {}
func (RequestContinueExisting) event() {}
func (ConfirmContinue) event()         {}
func (BackToInitial) event()           {}
func (Submit) event()                  {}
func (Quit) event()                    {}
func (ReplyReceived) event()           {}
func (ReplyFailed) event()             {}
func (QuitDelayElapsed) event()        {}
func (NoticeExpired) event()           {}
func (ProbeFinished) event()           {}

// Command is a side effect the caller must perform.
type Command interface {
	command()
}

type (
	// ShowScreen makes Screen the only visible screen. A non-zero FocusDelay
	// asks for the screen's text field to be focused after that delay.
	ShowScreen struct {
		Screen     Screen
		FocusDelay time.Duration
	}
	// ClearInput empties the text field of Screen.
	ClearInput struct{ Screen Screen }
	// SendChat issues exactly one chat request. Its outcome must come back
	// as ReplyReceived or ReplyFailed.
	SendChat struct{ Request backend.ChatRequest }
	// Schedule delivers Event after Delay.
	Schedule struct {
		Delay time.Duration
		Event Event
	}
	// StatusChanged reports every indicator update, including ones that are
	// immediately superseded within the same step.
	StatusChanged struct{ Status Status }
	// ProbeConnection runs the connection check; its outcome comes back as ProbeFinished.
	ProbeConnection struct{}
)

func (ShowScreen) command()      {}
func (ClearInput) command()      {}
func (SendChat) command()        {}
func (Schedule) command()        {}
func (StatusChanged) command()   {}
func (ProbeConnection) command() {}
