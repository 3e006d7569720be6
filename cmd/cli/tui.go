package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/repodigest/internal/core"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// summarizeFunc runs the pipeline; it is a function value so the bubbletea model never
// needs to know about the orchestrator or config packages directly.
type summarizeFunc func(ctx context.Context) (*core.SummaryResult, error)

type resultMsg struct {
	result *core.SummaryResult
	err    error
}

// spinnerModel drives a small Bubble Tea program that shows a spinner and a status label
// while the pipeline runs off-thread, grounded on the teacher's cmd/terminal chat TUI,
// repurposed here from a conversation loop into a single progress-then-quit run.
type spinnerModel struct {
	spinner  spinner.Model
	label    string
	run      summarizeFunc
	result   *core.SummaryResult
	err      error
	finished bool
}

func newSpinnerModel(repo string, run summarizeFunc) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinnerModel{
		spinner: s,
		label:   "extracting, processing, and summarizing " + repo,
		run:     run,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runPipeline)
}

func (m spinnerModel) runPipeline() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	result, err := m.run(ctx)
	return resultMsg{result: result, err: err}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case resultMsg:
		m.result, m.err = msg.result, msg.err
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m spinnerModel) View() string {
	if m.finished {
		if m.err != nil {
			return errorStyle.Render("summarize failed: "+m.err.Error()) + "\n"
		}
		return ""
	}
	return m.spinner.View() + " " + labelStyle.Render(m.label) + "\n"
}
