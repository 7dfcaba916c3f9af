package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/session"
)

// Run shows the terminal page until the user quits. The controller's
// subscription is released on return.
func Run(ctrl *session.Controller, presets []config.Preset) error {
	events, cancel := ctrl.Subscribe(16)
	defer cancel()

	p := tea.NewProgram(New(ctrl, events, presets), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal page: %w", err)
	}
	return nil
}
