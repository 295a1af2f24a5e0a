package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/drafts"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#764ba2")
	successColor = lipgloss.Color("#10B981")
	infoColor    = lipgloss.Color("#3B82F6")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(errorColor)
	okStyle    = lipgloss.NewStyle().Foreground(successColor)
)

// theme holds the styles that follow the accent colour of the saved
// background preference.
type theme struct {
	accent  lipgloss.Color
	title   lipgloss.Style
	section lipgloss.Style
	panel   lipgloss.Style
	focused lipgloss.Style
}

func newTheme(accent string) theme {
	c := primaryColor
	if accent != "" {
		c = lipgloss.Color(accent)
	}
	return theme{
		accent:  c,
		title:   lipgloss.NewStyle().Bold(true).Foreground(c).Padding(0, 1),
		section: lipgloss.NewStyle().Bold(true).Foreground(c),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1),
		focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 1),
	}
}

type snapshotLoadedMsg struct {
	snapshot *client.Snapshot
}

type daemonStatusMsg struct {
	online bool
}

type draftEventMsg struct {
	event drafts.Event
}

type themeChangedMsg struct {
	accent string
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
