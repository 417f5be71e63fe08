package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/corkboard/internal/listedit"
)

// Run shows the editor full-screen until the user quits or ctx is cancelled.
func Run[R any](ctx context.Context, editor *listedit.Editor[R], view View[R]) error {
	p := tea.NewProgram(New(ctx, editor, view), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
