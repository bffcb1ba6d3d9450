package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Queue pane styles
	queueStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	queueItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	queueItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	// Status glyph styles
	statusTodoStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	statusInProgressStyle = lipgloss.NewStyle().
				Foreground(colorOrange)

	statusDoneStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	// Document pane styles
	docViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	docHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	dirtyMarkStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	matchStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Reverse(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Italic(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorBgLight)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	// Input bar (search, filter)
	inputBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 1)

	// Modal for note entry and discard confirmation
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	// Help bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

func statusStyleFor(status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return statusInProgressStyle
	case "done":
		return statusDoneStyle
	default:
		return statusTodoStyle
	}
}

func statusGlyph(status string) string {
	switch status {
	case "in_progress":
		return "◐"
	case "done":
		return "●"
	default:
		return "○"
	}
}
