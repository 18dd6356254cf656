// Package ui renders a live terminal view of a check run. The runner
// pushes state snapshots into the program; the model only draws them.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"proxysweep/pkg/models"
	"proxysweep/pkg/runner"
)

const maxVisibleRows = 12

var (
	accentColor = lipgloss.Color("86")
	okColor     = lipgloss.Color("42")
	failColor   = lipgloss.Color("196")
	mutedColor  = lipgloss.Color("243")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	statStyle  = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(okColor)
	failStyle  = lipgloss.NewStyle().Foreground(failColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errStyle   = lipgloss.NewStyle().Foreground(failColor).Bold(true)
)

// SnapshotMsg delivers fresh runner state to the program. The caller
// wires the runner's update hook to program.Send with this type.
type SnapshotMsg runner.Snapshot

// startFailedMsg reports that the run could not be started.
type startFailedMsg struct{ err error }

// Model is the bubbletea model for one check run. The start function
// is issued as a command from Init so the run begins only once the
// program's event loop is receiving; starting it any earlier would
// block the runner's first update on an unread Send.
type Model struct {
	runner  *runner.Runner
	session string
	start   func() error

	spinner  spinner.Model
	progress progress.Model

	snap     runner.Snapshot
	width    int
	stopping bool
	err      error
}

func NewModel(r *runner.Runner, sessionName string, start func() error) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	pb := progress.New(progress.WithDefaultGradient())
	pb.Width = 40

	return Model{
		runner:   r,
		session:  sessionName,
		start:    start,
		spinner:  sp,
		progress: pb,
		snap:     r.Snapshot(),
	}
}

// Err returns the start failure that ended the program, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if start := m.start; start != nil {
		cmds = append(cmds, func() tea.Msg {
			if err := start(); err != nil {
				return startFailedMsg{err}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.snap.State == models.StateRunning {
				m.stopping = true
				m.runner.Stop()
				return m, nil
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 {
			m.progress.Width = w
		}

	case SnapshotMsg:
		m.snap = runner.Snapshot(msg)
		if m.snap.State == models.StateDone {
			return m, tea.Quit
		}

	case startFailedMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := "proxysweep"
	if m.session != "" {
		title += " · " + m.session
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	switch m.snap.State {
	case models.StateIdle:
		if m.err != nil {
			b.WriteString(errStyle.Render("could not start: "+m.err.Error()) + "\n")
			break
		}
		b.WriteString(m.spinner.View() + " starting...\n")
	case models.StateRunning:
		verb := "checking"
		if m.stopping {
			verb = "stopping"
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n", m.spinner.View(), verb, mutedStyle.Render(elapsed(m.snap))))
		b.WriteString(m.progressLine())
		b.WriteString(m.statsLine())
		b.WriteString(m.resultRows())
		b.WriteString(mutedStyle.Render("\nq stop run"))
	case models.StateDone:
		if m.snap.Err != nil {
			b.WriteString(errStyle.Render("run failed: "+m.snap.Err.Error()) + "\n")
		}
		b.WriteString(m.statsLine())
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) progressLine() string {
	p := m.snap.Progress
	if p.Total == 0 {
		return ""
	}
	pct := float64(p.Completed) / float64(p.Total)
	return fmt.Sprintf("%s %d/%d\n", m.progress.ViewAs(pct), p.Completed, p.Total)
}

func (m Model) statsLine() string {
	stats := m.snap.Stats
	line := fmt.Sprintf("%s  %s  %s",
		statStyle.Render(fmt.Sprintf("checked %d", stats.Total)),
		okStyle.Render(fmt.Sprintf("alive %d", stats.Alive)),
		failStyle.Render(fmt.Sprintf("dead %d", stats.Dead)))
	if stats.AvgLatency != nil {
		line += "  " + mutedStyle.Render(fmt.Sprintf("avg %dms", *stats.AvgLatency))
	}
	return line + "\n"
}

func (m Model) resultRows() string {
	results := m.snap.Results
	if len(results) == 0 {
		return ""
	}
	start := 0
	if len(results) > maxVisibleRows {
		start = len(results) - maxVisibleRows
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, r := range results[start:] {
		b.WriteString(resultRow(r) + "\n")
	}
	return b.String()
}

func resultRow(r models.ProxyResult) string {
	addr := r.ProxyIP + ":" + r.ProxyPort
	if r.Status == models.StatusOK {
		latency := ""
		if r.ResponseTimeMs != nil {
			latency = fmt.Sprintf(" %dms", *r.ResponseTimeMs)
		}
		where := ""
		if r.Country != "" {
			where = "  " + mutedStyle.Render(r.Country)
		}
		return fmt.Sprintf("  %s %-21s%s%s", okStyle.Render("✓"), addr, mutedStyle.Render(latency), where)
	}
	reason := r.Error
	if reason == "" {
		reason = "failed"
	}
	return fmt.Sprintf("  %s %-21s %s", failStyle.Render("✗"), addr, mutedStyle.Render(reason))
}

func elapsed(s runner.Snapshot) string {
	secs := int(s.Elapsed.Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
