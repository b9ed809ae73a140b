// Package tui is the dashboard: a project table with live statuses, an
// output pane for the selected server, and a confirmation prompt for
// port conflicts. All correctness lives in the engine packages; this is
// view glue.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/lifecycle"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/project"
	"github.com/servup/servup/internal/reconcile"
)

// Deps is the engine surface the dashboard drives.
type Deps struct {
	Store       *project.Store
	Controller  *lifecycle.Controller
	Loop        *reconcile.Loop
	Bus         *notify.Bus
	OutputLines int
}

// flashDuration is how long a notification stays on the status line.
const flashDuration = 5 * time.Second

type tickMsg time.Time

type busMsg struct{ event notify.Event }

type actionDoneMsg struct {
	err error
}

// conflictPrompt is the pending port-conflict decision.
type conflictPrompt struct {
	projectID string
	requested string
	input     textinput.Model
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	deps Deps

	projects []project.Project
	cursor   int

	conflict *conflictPrompt

	flash      string
	flashUntil time.Time

	width  int
	height int
}

// NewModel creates the dashboard model.
func NewModel(deps Deps) Model {
	if deps.OutputLines <= 0 {
		deps.OutputLines = 12
	}
	return Model{deps: deps, projects: deps.Store.List()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.projects = m.deps.Store.List()
		if m.cursor >= len(m.projects) && m.cursor > 0 {
			m.cursor = len(m.projects) - 1
		}
		return m, tick()

	case busMsg:
		m.flash = msg.event.Title() + ": " + msg.event.Message()
		m.flashUntil = time.Now().Add(flashDuration)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			var conflict *errors.ConflictError
			if errors.As(msg.err, &conflict) {
				return m.openConflictPrompt(conflict), nil
			}
			m.flash = msg.err.Error()
			m.flashUntil = time.Now().Add(flashDuration)
		}
		m.projects = m.deps.Store.List()
		return m, nil

	case tea.KeyMsg:
		if m.conflict != nil {
			return m.updateConflict(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
		}

	case "s":
		if p, ok := m.selected(); ok {
			return m, startCmd(m.deps, p.ID)
		}
	case "x":
		if p, ok := m.selected(); ok {
			return m, stopCmd(m.deps, p.ID)
		}
	case "r":
		if p, ok := m.selected(); ok {
			return m, restartCmd(m.deps, p.ID)
		}
	case "g":
		m.deps.Loop.Trigger()
	}
	return m, nil
}

func (m Model) selected() (project.Project, bool) {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return project.Project{}, false
	}
	return m.projects[m.cursor], true
}

func (m Model) openConflictPrompt(conflict *errors.ConflictError) Model {
	input := textinput.New()
	input.CharLimit = 5
	input.Width = 8
	input.SetValue(conflict.SuggestedPort)
	input.Focus()
	m.conflict = &conflictPrompt{
		projectID: conflict.ProjectID,
		requested: conflict.RequestedPort,
		input:     input,
	}
	return m
}

func (m Model) updateConflict(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.conflict = nil
		return m, nil
	case "enter":
		port := strings.TrimSpace(m.conflict.input.Value())
		id := m.conflict.projectID
		m.conflict = nil
		if port == "" {
			return m, nil
		}
		return m, startOnPortCmd(m.deps, id, port)
	}

	var cmd tea.Cmd
	m.conflict.input, cmd = m.conflict.input.Update(msg)
	return m, cmd
}

func startCmd(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: deps.Controller.Start(context.Background(), id)}
	}
}

func startOnPortCmd(deps Deps, id, port string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: deps.Controller.StartOnPort(context.Background(), id, port)}
	}
}

func stopCmd(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: deps.Controller.Stop(context.Background(), id)}
	}
}

func restartCmd(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: deps.Controller.Restart(context.Background(), id)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("servup"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		b.WriteString(stoppedStyle.Render("no projects registered (servup add <path>)"))
		b.WriteString("\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-20s %-12s %-7s %-8s", "PROJECT", "STATUS", "PORT", "PID")))
		b.WriteString("\n")
		for i, p := range m.projects {
			pid := p.PID
			if pid == "" {
				pid = "-"
			}
			row := fmt.Sprintf("  %-20s %-12s %-7s %-8s", truncate(p.Name, 20), p.Status.String(), p.Settings.Port, pid)
			if i == m.cursor {
				row = selectedStyle.Render("▸" + row[1:])
			} else {
				// Re-render the status cell with its glyph color.
				row = fmt.Sprintf("  %-20s %s %-7s %-8s",
					truncate(p.Name, 20),
					padANSI(statusGlyph(p.Status.String()), 12),
					p.Settings.Port, pid)
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	if pane := m.outputPane(); pane != "" {
		b.WriteString("\n")
		b.WriteString(pane)
		b.WriteString("\n")
	}

	if m.conflict != nil {
		prompt := fmt.Sprintf("port %s is in use. start on: %s  (enter to confirm, esc to cancel)",
			m.conflict.requested, m.conflict.input.View())
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(prompt))
		b.WriteString("\n")
	}

	if m.flash != "" && time.Now().Before(m.flashUntil) {
		b.WriteString("\n")
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("s start · x stop · r restart · g reconcile · j/k move · q quit"))
	b.WriteString("\n")
	return b.String()
}

// outputPane renders the tail of the selected project's server output.
func (m Model) outputPane() string {
	p, ok := m.selected()
	if !ok {
		return ""
	}
	buf := m.deps.Controller.Output(p.ID)
	if buf == nil || buf.Len() == 0 {
		return ""
	}

	width := m.width - 4
	if width < 20 {
		width = 78
	}
	lines := buf.Tail(m.deps.OutputLines)
	for i, line := range lines {
		lines[i] = truncate(line, width)
	}
	return outputStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

// padANSI pads a styled string to the given visible width.
func padANSI(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
