// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/sketch/internal/sketch"
)

const frameInterval = 33 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Relax a sketch file interactively",
		Long:  "Step the solver in a terminal UI, showing the total error as it falls. Press space to pause, s to save and q to quit.",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().Int("steps-per-frame", 20, "relaxation steps between redraws")
	addSolverFlags(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindSolverFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSketchFile(cmd, args[0], cfg.Solver)
	if err != nil {
		return err
	}
	steps, _ := cmd.Flags().GetInt("steps-per-frame")

	m := newWatchModel(s, args[0], watchOptions{
		MaxIterations: cfg.Solver.MaxIterations,
		Tolerance:     cfg.Solver.Tolerance,
		StepsPerFrame: steps,
	})
	p := tea.NewProgram(m,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(watchModel); ok && fm.errFinal != nil {
		return fm.errFinal
	}
	return nil
}

// --- bubbletea messages ---

// frameMsg carries the generation of the frame loop that scheduled it, so a
// loop left over from before a pause stops on its next frame.
type frameMsg struct{ gen int }

// --- lipgloss styles ---

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

type watchOptions struct {
	MaxIterations int
	Tolerance     float64
	StepsPerFrame int
}

// watchModel is the bubbletea model for the live relaxation monitor.
type watchModel struct {
	sketch   *sketch.Sketch
	path     string
	opts     watchOptions
	spinner  spinner.Model
	progress progress.Model

	solving    bool
	gen        int
	iterations int
	initialErr float64
	err        float64
	violated   int
	status     string
	errFinal   error
}

func newWatchModel(s *sketch.Sketch, path string, opts watchOptions) watchModel {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 20000
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := watchModel{
		sketch:   s,
		path:     path,
		opts:     opts,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		solving:  true,
	}
	m.refresh()
	m.initialErr = m.err
	return m
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, frame(m.gen))
}

func frame(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{gen: gen} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.advance()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "p":
		m.solving = !m.solving && !m.done()
		if m.solving {
			m.gen++
			return m, frame(m.gen)
		}
	case "s":
		// Saved inline: frames step the same sketch.
		if err := writeSketchFile(m.path, m.sketch); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.status = "saved " + m.path
		}
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	return m, nil
}

// advance runs one frame of relaxation and schedules the next while solving.
func (m watchModel) advance() (tea.Model, tea.Cmd) {
	if !m.solving || m.done() {
		m.solving = false
		return m, nil
	}
	for range m.opts.StepsPerFrame {
		if m.iterations >= m.opts.MaxIterations {
			break
		}
		if err := m.sketch.Step(); err != nil {
			m.errFinal = err
			return m, tea.Quit
		}
		m.iterations++
		if m.sketch.Error() <= m.opts.Tolerance {
			break
		}
	}
	m.refresh()
	if m.done() {
		m.solving = false
		return m, nil
	}
	return m, frame(m.gen)
}

func (m *watchModel) refresh() {
	m.err = m.sketch.Error()
	m.violated = 0
	for _, e := range m.sketch.ConstraintErrors() {
		if e > m.opts.Tolerance {
			m.violated++
		}
	}
}

func (m watchModel) converged() bool {
	return m.err <= m.opts.Tolerance
}

func (m watchModel) done() bool {
	return m.converged() || m.iterations >= m.opts.MaxIterations
}

// percent maps the error onto a log scale between its starting value and the
// tolerance.
func (m watchModel) percent() float64 {
	if m.converged() {
		return 1
	}
	floor := math.Max(m.opts.Tolerance, 1e-12)
	span := math.Log(m.initialErr / floor)
	if span <= 0 || m.err <= 0 {
		return 1
	}
	p := math.Log(m.initialErr/m.err) / span
	return math.Min(math.Max(p, 0), 1)
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(watchTitleStyle.Render("  sketch watch  ") + dimStyle.Render(m.path) + "\n\n")

	switch {
	case m.errFinal != nil:
		b.WriteString(errorStyle.Render("Solver failed: "+m.errFinal.Error()) + "\n")
	case m.converged():
		b.WriteString(successStyle.Render("Converged") + "\n")
	case m.done():
		b.WriteString(errorStyle.Render("Iteration limit reached") + "\n")
	case m.solving:
		b.WriteString(m.spinner.View() + " Relaxing…\n")
	default:
		b.WriteString(dimStyle.Render("Paused") + "\n")
	}

	b.WriteString(m.progress.ViewAs(m.percent()) + "\n\n")
	fmt.Fprintf(&b, "error       %s\n", valueStyle.Render(fmt.Sprintf("%.6g", m.err)))
	fmt.Fprintf(&b, "iterations  %s\n", valueStyle.Render(fmt.Sprintf("%d / %d", m.iterations, m.opts.MaxIterations)))
	fmt.Fprintf(&b, "violated    %s\n", valueStyle.Render(fmt.Sprintf("%d / %d", m.violated, len(m.sketch.Constraints()))))

	if m.status != "" {
		style := successStyle
		if strings.HasPrefix(m.status, "save failed") {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("space to pause  s to save  q to quit"))

	return boxStyle.Render(b.String())
}
