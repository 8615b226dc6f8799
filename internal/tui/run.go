package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clinicops/etransfer-sync/internal/engine"
)

// Run drives the review screen over the batch and reports whether the
// operator chose to commit it. Cancellation, by key or by context, is
// not an error.
func Run(ctx context.Context, batch *engine.Batch) (bool, error) {
	// Restore the terminal on any exit path, including panics inside
	// the program loop.
	cleanupTerminal := func() {
		_, _ = os.Stdout.Write([]byte("\033[?1049l")) // Exit alternate screen
		_, _ = os.Stdout.Write([]byte("\033[?25h"))   // Show cursor
		_, _ = os.Stdout.Write([]byte("\033[m"))      // Reset colors
	}
	defer cleanupTerminal()

	program := tea.NewProgram(
		NewModel(batch),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to run review screen: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return false, fmt.Errorf("unexpected final model type %T", final)
	}
	return m.Committed(), nil
}
