package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-freshcache/internal/config"
	"github.com/goliatone/go-freshcache/internal/tui"
)

// runReader opens the catalog and runs the terminal reader until it quits.
func runReader(ctx context.Context, c config.Config) error {
	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	model := tui.New(ctx, app.container)
	defer model.Close()

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run reader: %w", err)
	}
	return nil
}
