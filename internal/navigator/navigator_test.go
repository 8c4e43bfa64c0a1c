package navigator

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FantasyChat/internal/backend"
	"FantasyChat/internal/config"
	"FantasyChat/internal/session"
)

type seqIDs struct{ n int }

func (s *seqIDs) Next() string {
	s.n++
	return fmt.Sprintf("session_test_%d", s.n)
}

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newNav(opts Options) *Navigator {
	opts.Now = func() time.Time { return fixedNow }
	return New(opts, &seqIDs{})
}

func step(t *testing.T, n *Navigator, s State, ev Event) (State, []Command) {
	t.Helper()
	next, cmds, err := n.Step(s, ev)
	require.NoError(t, err)
	return next, cmds
}

func chatState(t *testing.T, n *Navigator) State {
	t.Helper()
	s, _ := n.Init()
	s, _ = step(t, n, s, StartNewChat{})
	return s
}

func sendCommands(cmds []Command) []SendChat {
	var out []SendChat
	for _, c := range cmds {
		if sc, ok := c.(SendChat); ok {
			out = append(out, sc)
		}
	}
	return out
}

func texts(msgs []session.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Role) + ": " + m.Text
	}
	return out
}

func TestInitShowsInitialScreen(t *testing.T) {
	n := newNav(Options{})
	s, cmds := n.Init()

	assert.Equal(t, ScreenInitial, s.Screen)
	assert.Empty(t, s.SessionID)
	assert.Equal(t, StatusReady, s.Status.Kind)
	assert.Equal(t, []Command{ShowScreen{Screen: ScreenInitial}}, cmds)
}

func TestInitStartInChatWithProbe(t *testing.T) {
	n := newNav(Options{StartInChat: true, Probe: true})
	s, cmds := n.Init()

	assert.Equal(t, ScreenChat, s.Screen)
	assert.Equal(t, "session_test_1", s.SessionID)
	assert.Equal(t, StatusLoading, s.Status.Kind)
	assert.Contains(t, cmds, Command(ProbeConnection{}))
}

func TestProbeFinished(t *testing.T) {
	n := newNav(Options{Probe: true})
	s, _ := n.Init()

	ok, _ := step(t, n, s, ProbeFinished{})
	assert.Equal(t, Status{StatusSuccess, "Connected to API"}, ok.Status)

	bad, _ := step(t, n, s, ProbeFinished{Err: errors.New("refused")})
	assert.Equal(t, Status{StatusError, "Cannot connect to API"}, bad.Status)
}

func TestStartNewChat(t *testing.T) {
	n := newNav(Options{})
	s, _ := n.Init()

	s, cmds := step(t, n, s, StartNewChat{})
	assert.Equal(t, ScreenChat, s.Screen)
	assert.Equal(t, "session_test_1", s.SessionID)
	assert.Equal(t, []string{"system: " + WelcomeText}, texts(s.Messages))
	assert.Equal(t, []Command{ShowScreen{Screen: ScreenChat, FocusDelay: FocusDelay}}, cmds)

	// a second new chat replaces the id and clears the transcript
	s, _ = step(t, n, s, Submit{Text: "hello"})
	s, _ = step(t, n, s, ReplyReceived{Body: "hi"})
	s, _ = step(t, n, s, StartNewChat{})
	assert.Equal(t, "session_test_2", s.SessionID)
	assert.Len(t, s.Messages, 1)
}

func TestRequestContinueExisting(t *testing.T) {
	n := newNav(Options{})
	s, _ := n.Init()

	s, cmds := step(t, n, s, RequestContinueExisting{})
	assert.Equal(t, ScreenSessionEntry, s.Screen)
	assert.Equal(t, []Command{
		ClearInput{Screen: ScreenSessionEntry},
		ShowScreen{Screen: ScreenSessionEntry, FocusDelay: FocusDelay},
	}, cmds)

	s, cmds = step(t, n, s, BackToInitial{})
	assert.Equal(t, ScreenInitial, s.Screen)
	assert.Equal(t, []Command{ShowScreen{Screen: ScreenInitial}}, cmds)
}

func TestConfirmContinueBlank(t *testing.T) {
	for _, id := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", id), func(t *testing.T) {
			n := newNav(Options{})
			s, _ := n.Init()
			s, _ = step(t, n, s, RequestContinueExisting{})

			next, cmds, err := n.Step(s, ConfirmContinue{ID: id})
			require.ErrorIs(t, err, ErrEmptyIdentifier)
			assert.Equal(t, ScreenSessionEntry, next.Screen)
			assert.Empty(t, next.SessionID)
			assert.Empty(t, sendCommands(cmds))
			require.Len(t, next.Notices, 1)
			assert.Equal(t, EmptyIdentifierText, next.Notices[0].Text)
			assert.Equal(t, []Command{
				Schedule{Delay: NoticeTTL, Event: NoticeExpired{ID: next.Notices[0].ID}},
			}, cmds)

			next, _ = step(t, n, next, NoticeExpired{ID: next.Notices[0].ID})
			assert.Empty(t, next.Notices)
		})
	}
}

func TestNoticesExpireIndividually(t *testing.T) {
	n := newNav(Options{})
	s, _ := n.Init()

	s, _, _ = n.Step(s, ConfirmContinue{})
	s, _, _ = n.Step(s, ConfirmContinue{ID: " "})
	require.Len(t, s.Notices, 2)
	first, second := s.Notices[0].ID, s.Notices[1].ID
	assert.NotEqual(t, first, second)

	s, _ = step(t, n, s, NoticeExpired{ID: first})
	require.Len(t, s.Notices, 1)
	assert.Equal(t, second, s.Notices[0].ID)
}

func TestConfirmContinueAdoptsID(t *testing.T) {
	n := newNav(Options{})
	s, _ := n.Init()
	s, _ = step(t, n, s, RequestContinueExisting{})

	s, cmds := step(t, n, s, ConfirmContinue{ID: "  abc123 "})
	assert.Equal(t, "abc123", s.SessionID)
	assert.Equal(t, ScreenChat, s.Screen)
	assert.Equal(t, []string{"system: Continuing session: abc123. Type 'quit' to end the conversation."}, texts(s.Messages))
	assert.Equal(t, []Command{ShowScreen{Screen: ScreenChat, FocusDelay: FocusDelay}}, cmds)
}

func TestSubmitSendsRequest(t *testing.T) {
	n := newNav(Options{LeagueID: "418.l.1", VectorStoreID: "vs_9"})
	s := chatState(t, n)

	s, cmds := step(t, n, s, Submit{Text: "  Who should I drop?  "})
	assert.True(t, s.Sending)
	assert.Equal(t, StatusLoading, s.Status.Kind)
	assert.Equal(t, "user: Who should I drop?", texts(s.Messages)[1])
	assert.Equal(t, ClearInput{Screen: ScreenChat}, cmds[0])
	assert.Equal(t, []SendChat{{Request: backend.ChatRequest{
		SessionID:     "session_test_1",
		UserMessage:   "Who should I drop?",
		LeagueID:      "418.l.1",
		VectorStoreID: "vs_9",
	}}}, sendCommands(cmds))
}

func TestSubmitIgnoresBlank(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)

	next, cmds := step(t, n, s, Submit{Text: "   "})
	assert.Equal(t, s, next)
	assert.Empty(t, cmds)
}

func TestSubmitWhileSendingIsNoop(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)

	s, cmds := step(t, n, s, Submit{Text: "first"})
	require.Len(t, sendCommands(cmds), 1)

	next, cmds := step(t, n, s, Submit{Text: "second"})
	assert.Empty(t, cmds)
	assert.Equal(t, s, next)

	// quit typed while sending is also swallowed
	next, cmds = step(t, n, s, Submit{Text: "quit"})
	assert.Empty(t, cmds)
	assert.Equal(t, s, next)
}

func TestReplyReceived(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)
	s, _ = step(t, n, s, Submit{Text: "q"})

	s, cmds := step(t, n, s, ReplyReceived{Body: "**Start** him"})
	assert.False(t, s.Sending)
	assert.Equal(t, Status{StatusReady, "Ready"}, s.Status)
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, session.RoleAssistant, last.Role)
	assert.Equal(t, "**Start** him", last.Text)
	assert.Equal(t, "<strong>Start</strong> him", last.Markup)
	assert.Equal(t, []Command{
		StatusChanged{Status{StatusSuccess, "Message sent successfully"}},
		StatusChanged{Status{StatusReady, "Ready"}},
	}, cmds)

	// the guard is released
	_, cmds = step(t, n, s, Submit{Text: "again"})
	assert.Len(t, sendCommands(cmds), 1)
}

func TestReplyFailed(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)
	s, _ = step(t, n, s, Submit{Text: "q"})

	s, cmds := step(t, n, s, ReplyFailed{Err: &backend.TransportError{StatusCode: 500, Status: "500 Internal Server Error"}})
	assert.False(t, s.Sending)
	assert.Equal(t, "system: "+SendErrorText, texts(s.Messages)[len(s.Messages)-1])
	assert.Equal(t, []Command{
		StatusChanged{Status{StatusError, "Error sending message"}},
		StatusChanged{Status{StatusReady, "Ready"}},
	}, cmds)
}

func TestSubmitQuitIsLocal(t *testing.T) {
	for _, text := range []string{"quit", "QUIT", " Quit "} {
		t.Run(text, func(t *testing.T) {
			n := newNav(Options{})
			s := chatState(t, n)

			s, cmds := step(t, n, s, Submit{Text: text})
			assert.Empty(t, sendCommands(cmds))
			assert.False(t, s.Sending)
			assert.Equal(t, Status{StatusSuccess, "Session ended"}, s.Status)
			assert.Equal(t, []string{
				"system: " + WelcomeText,
				"user: " + strings.TrimSpace(text),
				"system: " + SessionEndedText,
			}, texts(s.Messages))
			assert.Contains(t, cmds, Command(Schedule{Delay: QuitDelay, Event: QuitDelayElapsed{}}))
			assert.Equal(t, ScreenChat, s.Screen)
		})
	}
}

func TestSubmitQuittingIsSent(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)

	_, cmds := step(t, n, s, Submit{Text: "quitting"})
	assert.Len(t, sendCommands(cmds), 1)
}

func TestQuitPolicies(t *testing.T) {
	t.Run("return to chooser", func(t *testing.T) {
		n := newNav(Options{OnQuit: ReturnToChooser})
		s := chatState(t, n)
		s, _ = step(t, n, s, Quit{})
		s, cmds := step(t, n, s, QuitDelayElapsed{})
		assert.Equal(t, ScreenInitial, s.Screen)
		assert.Equal(t, []Command{ShowScreen{Screen: ScreenInitial}}, cmds)
	})

	t.Run("new session", func(t *testing.T) {
		n := newNav(Options{OnQuit: NewSession})
		s := chatState(t, n)
		s, _ = step(t, n, s, Quit{})
		s, cmds := step(t, n, s, QuitDelayElapsed{})
		assert.Equal(t, ScreenChat, s.Screen)
		assert.Equal(t, "session_test_2", s.SessionID)
		assert.Equal(t, []string{"system: " + WelcomeText}, texts(s.Messages))
		assert.Equal(t, []Command{ShowScreen{Screen: ScreenChat, FocusDelay: FocusDelay}}, cmds)
	})
}

func TestLaxNavigationWhileSending(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)
	s, _ = step(t, n, s, Submit{Text: "slow question"})

	s, _ = step(t, n, s, StartNewChat{})
	assert.Equal(t, "session_test_2", s.SessionID)
	assert.True(t, s.Sending)

	// the late reply lands in the conversation now showing
	s, _ = step(t, n, s, ReplyReceived{Body: "late"})
	assert.Equal(t, []string{"system: " + WelcomeText, "assistant: late"}, texts(s.Messages))
	assert.False(t, s.Sending)
}

func TestStrictNavigationWhileSending(t *testing.T) {
	n := newNav(Options{Strict: true})
	s := chatState(t, n)
	s, _ = step(t, n, s, Submit{Text: "slow question"})

	for _, ev := range []Event{StartNewChat{}, RequestContinueExisting{}, ConfirmContinue{ID: "x"}, BackToInitial{}, Quit{}} {
		next, cmds := step(t, n, s, ev)
		assert.Equal(t, s, next, "%T", ev)
		assert.Empty(t, cmds, "%T", ev)
	}

	s, _ = step(t, n, s, ReplyReceived{Body: "done"})
	s, _ = step(t, n, s, StartNewChat{})
	assert.Equal(t, "session_test_2", s.SessionID)
}

func TestStepDoesNotAliasMessages(t *testing.T) {
	n := newNav(Options{})
	s := chatState(t, n)
	before := append([]session.Message(nil), s.Messages...)

	_, _ = step(t, n, s, Submit{Text: "one"})
	_, _ = step(t, n, s, Submit{Text: "two"})
	assert.Equal(t, before, s.Messages)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OnQuit = config.QuitNewSession
	cfg.StartScreen = config.StartChat
	cfg.StrictNavigation = true
	cfg.LeagueID = "l"

	opts, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, NewSession, opts.OnQuit)
	assert.True(t, opts.StartInChat)
	assert.True(t, opts.Strict)
	assert.True(t, opts.Probe)
	assert.Equal(t, "l", opts.LeagueID)

	cfg.OnQuit = "explode"
	_, err = FromConfig(cfg)
	assert.Error(t, err)
}

func TestUnknownEvent(t *testing.T) {
	type bogus struct{ Event }
	n := newNav(Options{})
	s, _ := n.Init()
	_, _, err := n.Step(s, bogus{})
	assert.Error(t, err)
}
