package main

import (
	"context"
	"fmt"

	"constituencies/cmd/constituencies/ui"
	"constituencies/internal/panel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Start the interactive province/constituency browser",
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ctrl := panel.New(newClient())
	styles := ui.NewStyles(ui.DetectTheme(cfg.UI.Theme))
	model := ui.New(ctx, ctrl, styles)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser exited: %w", err)
	}
	return nil
}
