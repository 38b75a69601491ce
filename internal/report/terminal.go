package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"skyreport/internal/benchmark"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(8)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ColorEnabled reports whether the environment supports colored output.
func ColorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// RenderTerminal renders a Markdown report for a terminal of the given width.
func RenderTerminal(markdown []byte, width int, noColor bool) (string, error) {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(string(markdown))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

// FormatBaseline renders one persisted baseline as a short styled block.
func FormatBaseline(slot benchmark.Slot, b benchmark.Baseline) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s)", slot, b.Commit)))
	sb.WriteByte('\n')
	for _, row := range []struct {
		name string
		v    float64
	}{{"GET", b.Report.Get}, {"SET", b.Report.Set}, {"UPDATE", b.Report.Update}} {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(row.name))
		sb.WriteString(valueStyle.Render(FormatStat(row.v)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatDelta colors a delta by direction: green for faster, red for slower.
func FormatDelta(d benchmark.Delta) string {
	switch {
	case !d.Valid:
		return mutedStyle.Render(d.String())
	case d.Value > 0:
		return upStyle.Render(d.String())
	case d.Value < 0:
		return downStyle.Render(d.String())
	default:
		return valueStyle.Render(d.String())
	}
}
