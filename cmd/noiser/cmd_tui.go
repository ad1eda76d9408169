package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/cmd/noiser/ui"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/logging"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive screen (default)",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the terminal belongs to the screen; logs go to a file or nowhere
	logger, err = logging.ForTerminal(cfg.Logging, verbose)
	if err != nil {
		return err
	}

	eng, err := newEngine(cmd.Context(), cfg, noise.Laplace, 0, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.New(eng, cfg.SwitchCycle()), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
