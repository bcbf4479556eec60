// Package tui is an interactive terminal tuner for PID gains.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/sweep"
)

// stepFactor is the relative change per key press.
const stepFactor = 0.1

// zeroStep is the value a zero gain moves to when increased.
const zeroStep = 0.1

type Model struct {
	runner  *sweep.Runner
	initial controllers.Gains
	gains   controllers.Gains
	cursor  int

	outcome sweep.Outcome
	summary *analysis.Summary

	width  int
	height int
}

// NewModel evaluates the initial gains and returns a ready model.
func NewModel(runner *sweep.Runner, gains controllers.Gains) Model {
	m := Model{
		runner:  runner,
		initial: gains,
		gains:   gains,
		width:   80,
		height:  24,
	}
	m.evaluate()
	return m
}

// Run starts the tuner on the terminal and blocks until it exits.
func Run(runner *sweep.Runner, gains controllers.Gains) (controllers.Gains, error) {
	final, err := tea.NewProgram(NewModel(runner, gains), tea.WithAltScreen()).Run()
	if err != nil {
		return gains, err
	}
	return final.(Model).Gains(), nil
}

func (m Model) Gains() controllers.Gains { return m.gains }

func (m Model) Outcome() sweep.Outcome { return m.outcome }

func (m Model) Selected() string { return controllers.Params[m.cursor] }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.cursor = (m.cursor + 1) % len(controllers.Params)
	case "shift+tab", "left", "h":
		m.cursor = (m.cursor + len(controllers.Params) - 1) % len(controllers.Params)
	case "up", "k", "+":
		m.adjust(1 + stepFactor)
	case "down", "j", "-":
		m.adjust(1 - stepFactor)
	case "r":
		m.gains = m.initial
		m.evaluate()
	}
	return m, nil
}

func (m *Model) adjust(factor float64) {
	param := m.Selected()
	v, _ := m.gains.Get(param)
	switch {
	case v == 0 && factor > 1:
		v = zeroStep
	default:
		v *= factor
	}
	m.gains, _ = m.gains.With(param, v)
	m.evaluate()
}

func (m *Model) evaluate() {
	m.outcome = m.runner.EvaluateCase(context.Background(), sweep.Case{Label: m.gains.String(), Gains: m.gains})
	m.summary = nil
	if m.outcome.OK() {
		if s, err := analysis.Summarize(m.outcome.Loop); err == nil {
			m.summary = &s
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(title.Render("pidlab tuner"))
	b.WriteString(subtle.Render("  plant " + m.runner.Plant.String()))
	b.WriteString("\n\n")
	b.WriteString(m.gainsView())
	b.WriteString("\n")
	b.WriteString(separator(min(m.width, 72)))
	b.WriteString("\n")

	if !m.outcome.OK() {
		b.WriteString(statusBad.Render("error: " + m.outcome.Err.Error()))
		b.WriteString("\n")
	} else {
		plotWidth := max(min(m.width-12, 70), 20)
		plotHeight := max(min(m.height-14, 14), 5)
		res := m.outcome.Result
		b.WriteString(chart.ASCII([]chart.Series{{Label: m.gains.String(), X: res.Times, Y: res.Output}},
			"step response", plotHeight, plotWidth))
		b.WriteString("\n\n")
		b.WriteString(panel.Render(m.metricsView()))
		b.WriteString("\n")
	}

	b.WriteString(keyHint.Render("tab: select gain  ↑/↓: ±10%  r: reset  q: quit"))
	return b.String()
}

func (m Model) gainsView() string {
	parts := make([]string, len(controllers.Params))
	for i, p := range controllers.Params {
		v, _ := m.gains.Get(p)
		label := fmt.Sprintf(" %s = %.4g ", p, v)
		if i == m.cursor {
			parts[i] = selected.Render(label)
		} else {
			parts[i] = metricLabel.Render(label)
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) metricsView() string {
	r := m.outcome.Report
	rows := []struct {
		label string
		value string
	}{
		{"overshoot", fmt.Sprintf("%.2f%%", r.OvershootPercent)},
		{"settling", fmt.Sprintf("%.2fs", r.SettlingTime)},
		{"rise", formatSeconds(r.RiseTime)},
		{"final", fmt.Sprintf("%.4f", m.outcome.Result.Final())},
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(metricLabel.Render(row.label + " "))
		b.WriteString(metricValue.Render(row.value))
	}
	if m.summary != nil {
		b.WriteString("\n")
		b.WriteString(metricLabel.Render("poles "))
		b.WriteString(analysis.FormatRoots(m.summary.Poles))
		b.WriteString("  ")
		b.WriteString(stabilityStyle(m.summary.Stability).Render(m.summary.Stability.String()))
	}
	return b.String()
}

func formatSeconds(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fs", v)
}

func stabilityStyle(s analysis.Stability) lipgloss.Style {
	switch s {
	case analysis.Stable:
		return statusGood
	case analysis.Marginal:
		return statusWarn
	}
	return statusBad
}
