package tui

import "github.com/charmbracelet/lipgloss"

const logo = `┏┳┓┏━┓┏┓╻┏━╸┏━┓┏━┓┏━╸┏━┓╺┳┓┏━╸┏━┓
┃┃┃┣━┫┃┗┫┃╺┓┣━┫┣┳┛┣╸ ┣━┫ ┃┃┣╸ ┣┳┛
╹ ╹╹ ╹╹ ╹┗━┛╹ ╹╹┗╸┗━╸╹ ╹╺┻┛┗━╸╹┗╸`

const helpText = "enter open • esc back • H home • C catalog • R rankings • S search • V favorites • N inbox • * favorite • M mark read • q quit"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7")).
			MarginBottom(1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a"))

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bb9af7")).
			MarginBottom(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")).
			Italic(true).
			MarginTop(1)
)
