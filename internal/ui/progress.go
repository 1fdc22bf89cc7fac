// Package ui renders live progress for long-running host commands.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"viper/internal/stress"
)

type progressModel struct {
	title   string
	events  <-chan stress.Event
	spinner spinner.Model
	prog    progress.Model
	rows    []workloadRow
	index   map[stress.Workload]int
	width   int
	done    bool
}

type workloadRow struct {
	name    stress.Workload
	status  stress.Status
	done    int
	total   int
	elapsed time.Duration
	err     error
}

type eventMsg stress.Event
type doneMsg struct{}

// NewStressModel returns a Bubble Tea model that renders stress progress.
// The model quits once events is closed.
func NewStressModel(title string, workloads []stress.Workload, events <-chan stress.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	rows := make([]workloadRow, 0, len(workloads))
	index := make(map[stress.Workload]int, len(workloads))
	for i, w := range workloads {
		rows = append(rows, workloadRow{name: w, status: stress.StatusQueued})
		index[w] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    rows,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(stress.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	detailWidth := m.width - 12 - 14 - 6
	if detailWidth < 20 {
		detailWidth = 20
	}
	for _, row := range m.rows {
		status := styleStatus(row.status).Render(fmt.Sprintf("%8s", row.status))
		line := fmt.Sprintf("  %s %-12s %s", status, row.name, truncate(row.detail(), detailWidth))
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (r workloadRow) detail() string {
	switch r.status {
	case stress.StatusError:
		if r.err != nil {
			return r.err.Error()
		}
		return "failed"
	case stress.StatusDone:
		return fmt.Sprintf("%d/%d workers in %s", r.done, r.total, r.elapsed.Round(time.Millisecond))
	case stress.StatusWorking:
		return fmt.Sprintf("%d/%d workers", r.done, r.total)
	default:
		return ""
	}
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev stress.Event) tea.Cmd {
	idx, ok := m.index[ev.Workload]
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	row.status = ev.Status
	row.done = ev.Done
	if ev.Total > 0 {
		row.total = ev.Total
	}
	if ev.Elapsed > 0 {
		row.elapsed = ev.Elapsed
	}
	if ev.Err != nil {
		row.err = ev.Err
	}
	return m.prog.SetPercent(m.percent())
}

// percent averages per-workload completion; finished rows count fully.
func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range m.rows {
		switch {
		case row.status == stress.StatusDone || row.status == stress.StatusError:
			total += 1.0
		case row.total > 0:
			total += float64(row.done) / float64(row.total)
		}
	}
	return total / float64(len(m.rows))
}

func styleStatus(status stress.Status) lipgloss.Style {
	switch status {
	case stress.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case stress.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case stress.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
