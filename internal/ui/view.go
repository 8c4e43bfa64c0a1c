package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"FantasyChat/internal/formatter"
	"FantasyChat/internal/navigator"
	"FantasyChat/internal/session"
)

const appTitle = "Fantasy Basketball Helper"

// View implements tea.Model.
func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	switch m.state.Screen {
	case navigator.ScreenInitial:
		sections = append(sections, m.renderInitial())
	case navigator.ScreenSessionEntry:
		sections = append(sections, m.renderSessionEntry())
	case navigator.ScreenChat:
		sections = append(sections, m.renderChat())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render(appTitle)
	if m.state.SessionID != "" {
		title += "  " + m.styles.SessionID.Render(m.state.SessionID)
	}

	indicator := m.styles.status(m.state.Status.Kind).Render(m.state.Status.Text)
	if m.state.Sending {
		indicator = m.spinner.View() + " " + indicator
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(indicator)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + indicator
}

func (m Model) renderInitial() string {
	item := func(key, label string) string {
		return m.styles.Menu.Render(m.styles.MenuKey.Render("["+key+"]") + " " + label)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		item("n", "Start new chat"),
		item("c", "Continue existing chat"),
		item("q", "Exit"),
	)
}

func (m Model) renderSessionEntry() string {
	lines := []string{""}
	lines = append(lines, m.renderNotices()...)
	lines = append(lines,
		m.styles.Label.Render("Enter your session ID:"),
		m.entry.View(),
		"",
		m.styles.Help.Render("enter continue • esc back"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderChat() string {
	divider := m.styles.Divider.Render(strings.Repeat("─", max(m.width, 1)))
	help := "enter send • ctrl+n new session • ctrl+q quit • ctrl+y copy id • pgup/pgdown scroll"
	if m.flash != "" {
		help = m.styles.Flash.Render(m.flash) + "  " + help
	}

	lines := m.renderNotices()
	lines = append(lines,
		m.viewport.View(),
		divider,
		m.input.View(),
		m.styles.Help.Render(help),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderNotices() []string {
	out := make([]string, 0, len(m.state.Notices))
	for _, n := range m.state.Notices {
		out = append(out, m.styles.Notice.Render(n.Text))
	}
	return out
}

// renderMessages draws the transcript shown in the viewport.
func (m Model) renderMessages() string {
	width := max(m.width-2, 10)
	parts := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		switch msg.Role {
		case session.RoleUser:
			parts = append(parts, m.styles.UserMessage.Width(width).Render("You: "+msg.Text))
		case session.RoleAssistant:
			markup := msg.Markup
			if markup == "" {
				markup = formatter.Format(msg.Text)
			}
			parts = append(parts, m.styles.AssistantMessage.Width(width).Render(renderBlocks(m.styles, formatter.Parse(markup))))
		default:
			parts = append(parts, m.styles.SystemMessage.Width(width).Render(msg.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}

// blockWriter lays formatted blocks out as terminal lines. Line containers
// always start on their own line and a break right after one is absorbed, so
// lists stay compact while a blank line still separates paragraphs.
type blockWriter struct {
	styles     Styles
	sb         strings.Builder
	lineStart  bool
	afterBlock bool
}

func renderBlocks(styles Styles, blocks []formatter.Block) string {
	w := &blockWriter{styles: styles, lineStart: true}
	for _, b := range blocks {
		w.block(b)
	}
	return strings.TrimRight(w.sb.String(), "\n")
}

func (w *blockWriter) block(b formatter.Block) {
	switch {
	case b.Kind.IsLine():
		if !w.lineStart {
			w.newline()
		}
		w.sb.WriteString(w.line(b))
		w.newline()
		w.afterBlock = true

	case b.Kind == formatter.KindBreak:
		if w.afterBlock {
			w.afterBlock = false
			return
		}
		w.newline()

	default:
		w.sb.WriteString(w.inline(b))
		w.lineStart = false
		w.afterBlock = false
	}
}

func (w *blockWriter) newline() {
	w.sb.WriteByte('\n')
	w.lineStart = true
}

func (w *blockWriter) line(b formatter.Block) string {
	body := w.inlineAll(b.Children)
	switch b.Kind {
	case formatter.KindBullet:
		return "  " + w.styles.Bullet.Render("•") + " " + body
	case formatter.KindNumbered:
		return "  " + w.styles.Number.Render(b.Number+".") + " " + body
	case formatter.KindHeader:
		return w.styles.Header.Render(body)
	}
	return body
}

func (w *blockWriter) inlineAll(blocks []formatter.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(w.inline(b))
	}
	return sb.String()
}

func (w *blockWriter) inline(b formatter.Block) string {
	switch b.Kind {
	case formatter.KindText:
		return b.Text
	case formatter.KindBreak:
		return "\n"
	case formatter.KindCode:
		return w.styles.Code.Render(w.inlineAll(b.Children))
	case formatter.KindBold:
		return w.styles.Bold.Render(w.inlineAll(b.Children))
	case formatter.KindItalic:
		return w.styles.Italic.Render(w.inlineAll(b.Children))
	}
	// Line containers nested inside spans are flattened.
	return w.line(b)
}
