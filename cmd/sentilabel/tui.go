package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/sentilabel/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiLogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal UI",
	Long: `Runs the labeling UI in the terminal. Logs are written to --log-file
since the UI owns the screen.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "sentilabel.log", "file to append logs to")
}

func runTUI(cmd *cobra.Command, args []string) error {
	logFile, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	a, err := setup(cmd.Context(), logFile, true)
	if err != nil {
		return err
	}
	defer a.close()

	machine, initErr := a.machine()
	model := tui.NewModel(machine)
	if initErr != nil {
		a.logger.Warn("saved progress could not be read", "error", initErr)
		model = model.WithError(initErr)
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
