// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and feeds it status updates
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TUI runs the status display
type TUI struct {
	program  *tea.Program
	updates  chan StatusMsg
	quitChan chan struct{}
}

// New creates a TUI with the given title
func New(title string) *TUI {
	t := &TUI{
		updates:  make(chan StatusMsg, 10),
		quitChan: make(chan struct{}, 1),
	}
	t.program = tea.NewProgram(NewModel(title, t.quitChan), tea.WithAltScreen())
	return t
}

// Start runs the TUI until Stop or the user quits
func (t *TUI) Start() error {
	go func() {
		for status := range t.updates {
			t.program.Send(status)
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update without blocking
func (t *TUI) Update(status StatusMsg) {
	select {
	case t.updates <- status:
	default:
		// drop when the display lags
	}
}

// Stop ends the TUI
func (t *TUI) Stop() {
	t.program.Quit()
	close(t.updates)
}

// QuitChan signals when the user asks to quit
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
