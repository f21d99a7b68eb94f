package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared with web/static/app.css.
var (
	colorBorder = lipgloss.Color("#374151")
	colorText   = lipgloss.Color("#E5E7EB")
	colorMuted  = lipgloss.Color("#9CA3AF")
	colorAccent = lipgloss.Color("#34d399")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorError  = lipgloss.Color("#F87171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(24)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

type card struct {
	label string
	value string
	note  string
}

func renderCard(c card) string {
	lines := []string{labelStyle.Render(c.label), valueStyle.Render(c.value)}
	if c.note != "" {
		lines = append(lines, mutedStyle.Render(c.note))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderGrid lays cards out in rows of perRow.
func renderGrid(cards []card, perRow int) string {
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rendered := make([]string, 0, end-i)
		for _, c := range cards[i:end] {
			rendered = append(rendered, renderCard(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
