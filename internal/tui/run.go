package tui

import (
	"context"

	"github.com/Veraticus/pennywise/internal/sync"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard and blocks until the user quits or ctx
// ends.
func Run(ctx context.Context, tracker *sync.Tracker) error {
	p := tea.NewProgram(NewModel(tracker), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
