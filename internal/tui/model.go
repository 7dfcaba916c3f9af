// Package tui is the interactive terminal page: a query input, preset
// shortcuts, request status and the scrollable dashboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/render"
	"github.com/seenimoa/stockpulse/internal/session"
	"github.com/seenimoa/stockpulse/internal/view"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

var (
	headerBarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	footerBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")).Padding(0, 1)
	presetKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	presetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	introStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// headerLines is the height of everything drawn above the viewport.
const headerLines = 3

// eventMsg carries one controller event into the update loop.
type eventMsg session.Event

// eventsClosedMsg reports that the subscription ended.
type eventsClosedMsg struct{}

// Controller is the part of session.Controller the page drives.
type Controller interface {
	SetQuery(q string)
	Submit(override string) (session.Submission, bool)
	State() session.State
}

// Model is the bubbletea model of the terminal page.
type Model struct {
	ctrl    Controller
	events  <-chan session.Event
	presets []config.Preset

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	state       session.State
	resultsLine int
}

// New creates the page model. events should come from the same
// controller's Subscribe.
func New(ctrl Controller, events <-chan session.Event, presets []config.Preset) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter ticker or company (e.g. RELIANCE.NS)"
	ti.Prompt = "› "
	ti.CharLimit = 64
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:    ctrl,
		events:  events,
		presets: presets,
		input:   ti,
		spinner: sp,
		state:   ctrl.State(),
	}
}

func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.input.Focused() {
				return m, tea.Quit
			}
		case "enter":
			m.ctrl.SetQuery(m.input.Value())
			m.ctrl.Submit("")
			return m, nil
		case "esc":
			m.input.Blur()
			return m, nil
		case "/":
			if !m.input.Focused() {
				return m, m.focusInput()
			}
		case "tab":
			if m.input.Focused() {
				m.input.Blur()
				return m, nil
			}
			return m, m.focusInput()
		default:
			if i, ok := presetIndex(key); ok && i < len(m.presets) {
				p := m.presets[i]
				m.input.SetValue(p.Ticker)
				m.ctrl.SetQuery(p.Ticker)
				m.ctrl.Submit(p.Ticker)
				return m, nil
			}
		}

		if m.input.Focused() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.ctrl.SetQuery(m.input.Value())
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-6, 10)
		vpHeight := max(msg.Height-headerLines-1, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refresh()
		return m, nil

	case eventMsg:
		ev := session.Event(msg)
		switch ev.Kind {
		case session.EventStateChanged:
			m.state = ev.State
			m.refresh()
			if ev.State.Status == session.Pending {
				m.viewport.GotoTop()
			}
		case session.EventScrollToResults:
			m.viewport.SetYOffset(m.resultsLine)
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Status == session.Pending {
			m.refresh()
		}
		return m, cmd
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) focusInput() tea.Cmd {
	return m.input.Focus()
}

// presetIndex maps F1..F9 to preset indexes.
func presetIndex(key string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(key, "f%d", &n); err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return n - 1, true
}

// refresh rebuilds the viewport content from the current state and
// remembers where the results region starts.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	content, resultsLine := m.content()
	m.resultsLine = resultsLine
	m.viewport.SetContent(content)
}

func (m Model) content() (string, int) {
	width := max(m.width, render.MinWidth)

	var b strings.Builder
	b.WriteString(introStyle.Render("Case studies"))
	b.WriteString("\n")
	for i, p := range m.presets {
		b.WriteString(presetKeyStyle.Render(fmt.Sprintf("F%d", i+1)))
		b.WriteString(" ")
		b.WriteString(p.Name)
		b.WriteString(presetStyle.Render(" " + p.Ticker + "  " + p.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	intro := b.String()
	resultsLine := strings.Count(intro, "\n")

	switch m.state.Status {
	case session.Pending, session.Failed:
		return intro + render.Status(m.state, m.spinner.View(), width), resultsLine
	case session.Succeeded:
		if m.state.Result != nil {
			return intro + render.Dashboard(view.Project(*m.state.Result), width), resultsLine
		}
	}
	return intro + introStyle.Render("Type a ticker and press enter."), resultsLine
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := headerBarStyle.Width(m.width).Render(fmt.Sprintf("StockPulse  %s  %s", utils.MarketStatus(), utils.FormatClockIST(utils.NowIST())))
	footer := footerBarStyle.Width(m.width).Render(fmt.Sprintf(
		"enter analyze · F1-F%d presets · tab focus · / query · ↑/↓ scroll · %3.0f%% · ctrl+c quit",
		max(len(m.presets), 1), m.viewport.ScrollPercent()*100))

	return header + "\n" + m.input.View() + "\n\n" + m.viewport.View() + "\n" + footer
}
