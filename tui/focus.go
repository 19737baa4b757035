// Package tui is the interactive focus timer behind `flowhabit focus`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Shrikantlala24/flow-habit-alchemy/focus"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Engine is the part of the progression service the timer credits.
type Engine interface {
	AddFocusTime(ctx context.Context, minutes int) (progression.FocusResult, error)
	CompleteTask(ctx context.Context, id string) (progression.CompleteResult, error)
}

// Outcome is what the timer saved before exiting.
type Outcome struct {
	Minutes   int
	Saved     bool
	Focus     *progression.FocusResult
	Completed *progression.CompleteResult
	Err       error
}

type tickMsg struct{ id int }

type savedMsg struct{ outcome Outcome }

type Options struct {
	TaskID    string
	TaskTitle string
	// CompleteTask marks TaskID completed when the session is saved.
	CompleteTask bool
}

type Model struct {
	ctx      context.Context
	engine   Engine
	session  *focus.Session
	opts     Options
	bar      progress.Model
	tickID   int
	status   string
	isError  bool
	confirm  bool
	saving   bool
	quitting bool
	outcome  Outcome
}

func NewModel(ctx context.Context, engine Engine, session *focus.Session, opts Options) Model {
	return Model{
		ctx:     ctx,
		engine:  engine,
		session: session,
		opts:    opts,
		bar:     progress.New(progress.WithDefaultGradient()),
		status:  "press space to start",
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Outcome() Outcome { return m.outcome }

func (m Model) Session() *focus.Session { return m.session }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		return m.onTick(msg)
	case savedMsg:
		m.saving = false
		m.outcome = msg.outcome
		if msg.outcome.Err != nil {
			m.setError(fmt.Sprintf("save failed: %v", msg.outcome.Err))
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if w := msg.Width - 4; w > 10 {
			m.bar.Width = w
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	key := msg.String()
	if key != "q" && key != "ctrl+c" && key != "esc" {
		m.confirm = false
	}
	switch key {
	case " ":
		switch m.session.State() {
		case focus.Ready:
			_ = m.session.Start()
			m.setStatus("focus running")
			return m, m.startTicking()
		case focus.Running:
			_ = m.session.Pause()
			m.setStatus("focus paused")
			return m, nil
		case focus.Paused:
			_ = m.session.Resume()
			m.setStatus("focus running")
			return m, m.startTicking()
		}
	case "b":
		if err := m.session.SkipToBreak(); err != nil {
			m.setError("nothing to skip")
			return m, nil
		}
		m.setStatus("break started")
		return m, m.startTicking()
	case "s":
		if err := m.session.SkipBreak(); err != nil {
			m.setError("not on a break")
			return m, nil
		}
		m.tickID++
		m.setStatus(completeStatus)
		return m, nil
	case "n":
		if m.session.State() != focus.Completed {
			return m, nil
		}
		m.session.NewSession()
		m.setStatus("new block ready; press space to start")
		return m, nil
	case "c":
		if m.opts.TaskID == "" {
			return m, nil
		}
		m.opts.CompleteTask = !m.opts.CompleteTask
		if m.opts.CompleteTask {
			m.setStatus("task will be completed on save")
		} else {
			m.setStatus("task will be left open")
		}
		return m, nil
	case "enter":
		minutes, err := m.session.Finish()
		if err != nil {
			m.setError("finish the break first (s skips it)")
			return m, nil
		}
		m.saving = true
		m.setStatus("saving...")
		return m, m.save(minutes)
	case "q", "ctrl+c", "esc":
		if m.session.ElapsedSeconds() > 0 && !m.confirm {
			m.confirm = true
			if m.session.State() == focus.Completed {
				m.setError("press q again to exit without saving (enter saves)")
			} else {
				m.setError("session not finished; press q again to discard it")
			}
			return m, nil
		}
		m.session.Abandon()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

const completeStatus = "session complete: enter saves and exits, n starts another block"

func (m Model) onTick(msg tickMsg) (Model, tea.Cmd) {
	if msg.id != m.tickID {
		return m, nil
	}
	before := m.session.State()
	if before != focus.Running && before != focus.Break {
		return m, nil
	}
	m.session.Tick()
	switch after := m.session.State(); {
	case before == focus.Running && after == focus.Break:
		m.setStatus("focus block done; break started")
	case after == focus.Completed:
		m.setStatus(completeStatus)
		return m, nil
	}
	return m, m.tick()
}

// startTicking begins a new tick chain; ticks from older chains are ignored.
func (m *Model) startTicking() tea.Cmd {
	m.tickID++
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	id := m.tickID
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{id: id} })
}

func (m Model) save(minutes int) tea.Cmd {
	ctx, engine, opts := m.ctx, m.engine, m.opts
	return func() tea.Msg {
		out := Outcome{Minutes: minutes}
		if minutes > 0 {
			res, err := engine.AddFocusTime(ctx, minutes)
			if err != nil {
				out.Err = err
				return savedMsg{outcome: out}
			}
			out.Focus = &res
		}
		if opts.CompleteTask && opts.TaskID != "" {
			res, err := engine.CompleteTask(ctx, opts.TaskID)
			if err != nil {
				out.Err = err
				return savedMsg{outcome: out}
			}
			out.Completed = &res
		}
		out.Saved = true
		return savedMsg{outcome: out}
	}
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.isError = false
}

func (m *Model) setError(text string) {
	m.status = text
	m.isError = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.session
	title := "Focus"
	if m.opts.TaskTitle != "" {
		title += " · " + m.opts.TaskTitle
	}

	remaining := s.FocusRemaining()
	phase := "Focus"
	switch s.State() {
	case focus.Break:
		remaining, phase = s.BreakRemaining(), "Break"
	case focus.Completed:
		remaining, phase = 0, "Done"
	}

	body := []string{
		fmt.Sprintf("%s %s", clockStyle.Render(focus.FormatClock(remaining)), phase+" ("+s.State().String()+")"),
		m.bar.ViewAs(s.Progress() / 100),
		fmt.Sprintf("Elapsed focus: %s (%d min credited on save)", focus.FormatClock(s.ElapsedSeconds()), s.CreditedMinutes()),
	}
	if m.opts.TaskID != "" {
		mark := "[ ]"
		if m.opts.CompleteTask {
			mark = "[x]"
		}
		body = append(body, mark+" complete task on save")
	}

	status := statusStyle.Render(m.status)
	if m.isError {
		status = errorStyle.Render(m.status)
	}
	lines := []string{
		headerStyle.Render(title),
		panelStyle.Render(strings.Join(body, "\n")),
		status,
		footerStyle.Render("space start/pause · b break · s skip break · n new block · c toggle task · enter save · q quit"),
	}
	return strings.Join(lines, "\n")
}

// Run drives the timer until the user exits and returns what was saved.
func Run(ctx context.Context, engine Engine, session *focus.Session, opts Options) (Outcome, error) {
	program := tea.NewProgram(NewModel(ctx, engine, session, opts), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return Outcome{}, err
	}
	m, ok := final.(Model)
	if !ok {
		return Outcome{}, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.Outcome(), nil
}
