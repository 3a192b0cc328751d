package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
)

// maxProgressRows bounds how many recent nodes the progress view shows.
const maxProgressRows = 8

var (
	progressFilled = lipgloss.NewStyle().Foreground(colorCyan)
	progressEmpty  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

// nodeDoneMsg reports one top-level node visit.
type nodeDoneMsg engine.NodeTiming

// evalDoneMsg ends the program with the pipeline outcome.
type evalDoneMsg struct {
	result *pipeline.Result
	err    error
}

// progressHooks forwards engine node callbacks to p. The engine calls them
// on the worker goroutine; p.Send is safe for concurrent use.
func progressHooks(p *tea.Program) *engine.Hooks {
	return &engine.Hooks{
		OnNode: func(nt engine.NodeTiming) { p.Send(nodeDoneMsg(nt)) },
	}
}

func newEvalProgram(m evalModel, w io.Writer) *tea.Program {
	return tea.NewProgram(m, tea.WithOutput(w))
}

// =============================================================================
// evalModel - Evaluation progress
// =============================================================================

// evalModel is the bubbletea model for eval --progress.
type evalModel struct {
	title  string
	total  int // node count of the document; an upper bound on visits
	nodes  []engine.NodeTiming
	failed int
	start  time.Time
	cancel context.CancelFunc

	done   bool
	result *pipeline.Result
	err    error
}

func newEvalModel(title string, total int, cancel context.CancelFunc) evalModel {
	return evalModel{title: title, total: total, start: time.Now(), cancel: cancel}
}

func (m evalModel) Init() tea.Cmd {
	return nil
}

func (m evalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	case nodeDoneMsg:
		m.nodes = append(m.nodes, engine.NodeTiming(msg))
		if msg.Err != nil {
			m.failed++
		}
	case evalDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m evalModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Evaluating " + m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.bar(30))
	fmt.Fprintf(&b, " %d/%d nodes", len(m.nodes), m.total)
	if m.failed > 0 {
		b.WriteString(" " + styleIconError.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n")

	start := max(0, len(m.nodes)-maxProgressRows)
	for _, nt := range m.nodes[start:] {
		b.WriteString(nodeRow(nt))
		b.WriteString("\n")
	}

	if m.done && m.result != nil && m.result.CacheHit {
		b.WriteString(styleCached.Render("  result served from cache"))
		b.WriteString("\n")
	}
	return b.String()
}

// bar renders a fixed-width progress bar.
func (m evalModel) bar(width int) string {
	filled := width
	if m.total > 0 && len(m.nodes) < m.total {
		filled = width * len(m.nodes) / m.total
	}
	return progressFilled.Render(strings.Repeat("█", filled)) +
		progressEmpty.Render(strings.Repeat("░", width-filled))
}

// nodeRow renders one visited node with its status icon and duration.
func nodeRow(nt engine.NodeTiming) string {
	icon := styleIconSuccess.Render(iconSuccess)
	status := styleComputed.Render(nt.Duration.Round(time.Microsecond).String())
	switch {
	case nt.Err != nil:
		icon = styleIconError.Render(iconError)
		status = styleIconError.Render("failed")
	case nt.Skipped:
		icon = StyleDim.Render(iconSkipped)
		status = StyleDim.Render("skipped")
	case nt.CacheHit:
		status = styleCached.Render(iconCached)
	}
	return fmt.Sprintf("  %s %s %s %s", icon, StyleValue.Render(string(nt.NodeID)), StyleDim.Render(nt.NodeType), status)
}
