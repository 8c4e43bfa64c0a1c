package ui

import (
	"github.com/charmbracelet/lipgloss"

	"FantasyChat/internal/navigator"
)

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorUser    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorCodeBg  = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#374151"}
)

// Styles holds every lipgloss style the UI renders with.
type Styles struct {
	Title     lipgloss.Style
	SessionID lipgloss.Style
	Help      lipgloss.Style
	Menu      lipgloss.Style
	MenuKey   lipgloss.Style
	Label     lipgloss.Style
	Notice    lipgloss.Style
	Flash     lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style

	Header  lipgloss.Style
	Bullet  lipgloss.Style
	Number  lipgloss.Style
	Code    lipgloss.Style
	Bold    lipgloss.Style
	Italic  lipgloss.Style
	Divider lipgloss.Style

	StatusReady   lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
}

// DefaultStyles returns the built-in theme.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		SessionID: lipgloss.NewStyle().Foreground(colorMuted),
		Help:      lipgloss.NewStyle().Foreground(colorMuted),
		Menu:      lipgloss.NewStyle().PaddingLeft(2),
		MenuKey:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Label:     lipgloss.NewStyle().Bold(true),
		Notice: lipgloss.NewStyle().
			Foreground(colorError).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1),
		Flash: lipgloss.NewStyle().Italic(true).Foreground(colorMuted),

		UserMessage:      lipgloss.NewStyle().Foreground(colorUser),
		AssistantMessage: lipgloss.NewStyle().PaddingLeft(2),
		SystemMessage:    lipgloss.NewStyle().Italic(true).Foreground(colorMuted),

		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
		Bullet:  lipgloss.NewStyle().Foreground(colorAccent),
		Number:  lipgloss.NewStyle().Foreground(colorAccent),
		Code:    lipgloss.NewStyle().Background(colorCodeBg),
		Bold:    lipgloss.NewStyle().Bold(true),
		Italic:  lipgloss.NewStyle().Italic(true),
		Divider: lipgloss.NewStyle().Foreground(colorMuted),

		StatusReady:   lipgloss.NewStyle().Foreground(colorMuted),
		StatusLoading: lipgloss.NewStyle().Foreground(colorAccent),
		StatusSuccess: lipgloss.NewStyle().Foreground(colorSuccess),
		StatusError:   lipgloss.NewStyle().Foreground(colorError),
	}
}

func (s Styles) status(kind navigator.StatusKind) lipgloss.Style {
	switch kind {
	case navigator.StatusLoading:
		return s.StatusLoading
	case navigator.StatusSuccess:
		return s.StatusSuccess
	case navigator.StatusError:
		return s.StatusError
	}
	return s.StatusReady
}
