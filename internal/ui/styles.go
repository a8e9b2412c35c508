package ui

import "github.com/charmbracelet/lipgloss"

// 图标
const (
	CrewIcon     = "🧑‍🚀"
	ImpostorIcon = "🔪"
	GhostIcon    = "👻"
	AlarmIcon    = "🚨"
)

var (
	DocStyle      = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	PromptStyle   = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	AlarmStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#CD0000")).Bold(true)
	DimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ImpostorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CD0000")).Bold(true)
	CrewStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)
