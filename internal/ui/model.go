// ABOUTME: Bubbletea model for the conversion status TUI
// ABOUTME: Shows stream format, codec progress and connected stream clients
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lasertools/ildawav/pkg/codec"
)

// Model represents the TUI state
type Model struct {
	title string

	// Stream
	input   string
	output  string
	format  string
	mapping string

	// Progress
	stats   codec.Stats
	clients []string
	done    bool
	err     string

	startTime time.Time
	quitting  bool
	quitChan  chan struct{}

	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields leave the current value alone.
type StatusMsg struct {
	Input   string
	Output  string
	Format  string
	Mapping string
	Stats   *codec.Stats
	Clients []string
	Done    bool
	Err     error
}

type tickMsg time.Time

// NewModel creates a new TUI model
func NewModel(title string, quitChan chan struct{}) Model {
	return Model{
		title:     title,
		startTime: time.Now(),
		quitChan:  quitChan,
	}
}

// Init starts the clock
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tickEvery()
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	clientHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	errorStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle         = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	field := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Input", m.input)
	field("Output", m.output)
	field("Format", m.format)
	field("Channels", m.mapping)
	b.WriteString("\n")

	field("Frames", fmt.Sprintf("%d", m.stats.Frames))
	field("Points", fmt.Sprintf("%d", m.stats.Points))
	field("Samples", fmt.Sprintf("%d", m.stats.Samples))
	field("Signal", m.stats.Elapsed.Round(time.Millisecond).String())
	field("Speed", m.speed())

	if m.clients != nil {
		b.WriteString("\n")
		b.WriteString(clientHeaderStyle.Render(fmt.Sprintf("Stream Clients (%d)", len(m.clients))))
		b.WriteString("\n")
		if len(m.clients) == 0 {
			b.WriteString(valueStyle.Render("  No clients connected"))
			b.WriteString("\n")
		}
		for _, name := range m.clients {
			b.WriteString(fmt.Sprintf("  • %s\n", name))
		}
	}

	b.WriteString("\n")
	switch {
	case m.err != "":
		b.WriteString(errorStyle.Render("Error: " + m.err))
		b.WriteString("\n")
	case m.done:
		b.WriteString(headerStyle.Render("Done"))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// speed is signal time produced per wall clock time
func (m Model) speed() string {
	wall := time.Since(m.startTime)
	if wall <= 0 || m.stats.Elapsed == 0 {
		return ""
	}
	return fmt.Sprintf("%.2fx", m.stats.Elapsed.Seconds()/wall.Seconds())
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.quitChan != nil {
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Input != "" {
		m.input = msg.Input
	}
	if msg.Output != "" {
		m.output = msg.Output
	}
	if msg.Format != "" {
		m.format = msg.Format
	}
	if msg.Mapping != "" {
		m.mapping = msg.Mapping
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
	}
	if msg.Clients != nil {
		m.clients = msg.Clients
	}
	if msg.Done {
		m.done = true
	}
	if msg.Err != nil {
		m.err = msg.Err.Error()
	}
}
