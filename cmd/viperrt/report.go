package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount[T ~int | ~int64 | ~uint64](n T) string {
	return numbers.Sprintf("%d", n)
}

// reportRow is one line of a two-column report.
type reportRow struct {
	name   string
	ok     bool
	detail string
}

// reporter renders pass/fail tables, optionally in color.
type reporter struct {
	out   io.Writer
	color bool
}

func newReporter(out io.Writer, colored bool) *reporter {
	return &reporter{out: out, color: colored}
}

func (r *reporter) title(text string) {
	if !r.color {
		fmt.Fprintln(r.out, text)
		return
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	fmt.Fprintln(r.out, style.Render(text))
}

func (r *reporter) marker(ok bool) string {
	text, attr := "PASS", color.FgGreen
	if !ok {
		text, attr = "FAIL", color.FgRed
	}
	if !r.color {
		return text
	}
	c := color.New(attr, color.Bold)
	return c.Sprint(text)
}

// table prints rows with names padded to the widest display width.
func (r *reporter) table(rows []reportRow) {
	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row.name))
	}
	for _, row := range rows {
		line := fmt.Sprintf("  %s  %s", r.marker(row.ok), padRight(row.name, width))
		if row.detail != "" {
			line += "  " + row.detail
		}
		fmt.Fprintln(r.out, strings.TrimRight(line, " "))
	}
}

// box frames a block of summary lines.
func (r *reporter) box(lines []string) {
	body := strings.Join(lines, "\n")
	if !r.color {
		fmt.Fprintln(r.out, body)
		return
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Padding(0, 1)
	fmt.Fprintln(r.out, style.Render(body))
}

// keyValues aligns "key: value" lines on the widest key.
func keyValues(pairs [][2]string) []string {
	width := 0
	for _, p := range pairs {
		width = max(width, runewidth.StringWidth(p[0]))
	}
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = padRight(p[0]+":", width+1) + " " + p[1]
	}
	return lines
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
