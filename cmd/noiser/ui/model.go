package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/engine"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/estimator"
)

// Engine is the part of *engine.Engine the screen drives.
type Engine interface {
	Snapshot() engine.Snapshot
	Refresh() error
	ToggleMechanism() error
	IncreaseAccuracy() error
	DecreaseAccuracy() error
	SwitchField(field string) error
	MaxAccuracyIndex() int
}

// transitionDoneMsg reports the end of an engine transition.
type transitionDoneMsg struct {
	action string
	field  string
	err    error
}

// Model is the bubbletea model of the noiser screen.
type Model struct {
	eng    Engine
	fields []string
	keys   keyMap
	help   help.Model
	styles Styles

	width int
	busy  string
	snap  engine.Snapshot
	// actionErr is the last transition error not already carried by snap.
	actionErr error
	// rejected is the last field the engine refused to switch to; the
	// cycle continues after it.
	rejected string
}

// New builds a screen over eng. fields is the cycle used by the switch key.
func New(eng Engine, fields []string) Model {
	return Model{
		eng:    eng,
		fields: append([]string(nil), fields...),
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: DefaultStyles(),
		snap:   eng.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case transitionDoneMsg:
		m.busy = ""
		m.snap = m.eng.Snapshot()
		m.actionErr = nil
		if msg.err != nil && msg.err != m.snap.Err {
			m.actionErr = msg.err
		}
		m.rejected = ""
		if msg.action == "switch" && errors.Is(msg.err, engine.ErrUnknownField) {
			m.rejected = msg.field
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		// one transition at a time; keys pressed meanwhile are dropped
		if m.busy != "" {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Toggle):
			return m.run("toggle", m.eng.ToggleMechanism)
		case key.Matches(msg, m.keys.Increase):
			return m.run("increase", m.eng.IncreaseAccuracy)
		case key.Matches(msg, m.keys.Decrease):
			return m.run("decrease", m.eng.DecreaseAccuracy)
		case key.Matches(msg, m.keys.Refresh):
			return m.run("refresh", m.eng.Refresh)
		case key.Matches(msg, m.keys.Switch):
			next := m.nextField()
			if next == "" {
				return m, nil
			}
			m.busy = "switch"
			return m, func() tea.Msg {
				return transitionDoneMsg{action: "switch", field: next, err: m.eng.SwitchField(next)}
			}
		}
	}
	return m, nil
}

func (m Model) run(action string, fn func() error) (tea.Model, tea.Cmd) {
	m.busy = action
	return m, func() tea.Msg {
		return transitionDoneMsg{action: action, err: fn()}
	}
}

// nextField returns the field after the active one in the switch cycle, or
// after the last rejected one so a bad entry cannot stall the cycle.
func (m Model) nextField() string {
	if len(m.fields) == 0 {
		return ""
	}
	from := m.snap.Field
	if m.rejected != "" {
		from = m.rejected
	}
	for i, f := range m.fields {
		if f == from {
			return m.fields[(i+1)%len(m.fields)]
		}
	}
	return m.fields[0]
}

func (m Model) View() string {
	s := m.snap
	st := m.styles

	var sb strings.Builder
	sb.WriteString(st.Title.Render("noiser"))
	sb.WriteString("\n\n")
	sb.WriteString(m.params())
	sb.WriteString("\n")

	if m.busy != "" {
		sb.WriteString(st.Busy.Render(m.busy + "..."))
		sb.WriteString("\n")
	}
	if m.actionErr != nil {
		sb.WriteString(st.Error.Render("error: " + m.actionErr.Error()))
		sb.WriteString("\n")
	}
	if s.Err != nil {
		sb.WriteString(st.Error.Render("error: " + s.Err.Error()))
		sb.WriteString("\n")
		if s.Release != nil {
			sb.WriteString(st.Muted.Render("showing the last good release"))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	if rel := s.Release; rel != nil {
		counts := make([]int64, len(rel.Counts))
		for i, c := range rel.Counts {
			counts[i] = int64(c)
		}
		top := chartScale(counts, rel.Noised)
		w := m.barWidth(rel.Buckets)
		left := barChart("true counts", rel.Buckets, counts, top, w, st.TrueBar, st.ChartHead)
		right := barChart("noised counts", rel.Buckets, rel.Noised, top, w, st.NoisedBar, st.ChartHead)
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, st.Panel.Render(left), " ", st.Panel.Render(right)))
		sb.WriteString("\n")
	} else {
		sb.WriteString(st.Muted.Render("no release yet"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) params() string {
	s := m.snap
	st := m.styles
	row := func(label, value string) string {
		return st.Label.Render(fmt.Sprintf("%-10s", label)) + " " + st.Value.Render(value) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(row("field", s.Field))
	sb.WriteString(row("mechanism", s.Mechanism.String()))
	sb.WriteString(row("accuracy", fmt.Sprintf("%g (index %d/%d)", s.Accuracy, s.AccuracyIndex, m.eng.MaxAccuracyIndex())))
	sb.WriteString(row("alpha", fmt.Sprintf("%g", s.Alpha)))
	if rel := s.Release; rel != nil {
		sb.WriteString(row("scale", fmt.Sprintf("%.4f", rel.Scale)))
		obs := estimator.ObservedError(rel.Counts, rel.Noised, rel.Accuracy)
		sb.WriteString(row("error", fmt.Sprintf("max %d, mean %.2f, %d/%d within ±%g",
			obs.MaxAbs, obs.MeanAbs, obs.Covered, len(rel.Counts), rel.Accuracy)))
	}
	return sb.String()
}

// barWidth fits both panels into the terminal width.
func (m Model) barWidth(labels []string) int {
	if m.width == 0 {
		return defaultBarWidth
	}
	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, len(l))
	}
	// panel border and padding, label, value column, gap
	perPanel := m.width/2 - 4 - labelW - 10
	return max(minBarWidth, min(defaultBarWidth, perPanel))
}
