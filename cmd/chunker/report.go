package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/lakegraph/kgqa/rag/splitter"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	chunkStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(72)
	verbatimStyle = chunkStyle.BorderForeground(lipgloss.Color("214"))
)

const previewRunes = 120

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "…"
}

// renderReport summarizes a split for the terminal.
func renderReport(docID string, result *splitter.Result, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Document " + docID))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d coarse windows, %d chunks, %d failed windows, %s",
		result.CoarseCount, len(result.Chunks), len(result.Failed), elapsed.Round(time.Millisecond))))
	b.WriteString("\n")

	for i, c := range result.Chunks {
		header := fmt.Sprintf("#%d  window %d  %d runes", i+1, c.CoarseIndex+1, utf8.RuneCountInString(c.Content))
		style := chunkStyle
		if c.Verbatim {
			header += "  verbatim"
			style = verbatimStyle
		}
		b.WriteString(style.Render(mutedStyle.Render(header) + "\n" + preview(c.Content)))
		b.WriteString("\n")
	}

	for _, w := range result.Warnings {
		b.WriteString(warnStyle.Render("warning: " + w))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
