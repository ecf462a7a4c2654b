package teaui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea/v2"
	"go.uber.org/zap"
)

// Run launches the Bubble Tea UI and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)

	sessions := make(chan bool, 4)
	if deps.Gate != nil {
		cancel := deps.Gate.Subscribe(func(ok bool) {
			select {
			case sessions <- ok:
			default:
			}
		})
		defer cancel()
		if err := deps.Gate.Watch(ctx); err != nil {
			m.log.Debug("session watch unavailable", zap.Error(err))
		}
	}
	m.sessions = sessions

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
