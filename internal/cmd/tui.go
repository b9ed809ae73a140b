package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/servup/servup/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard",
	Long: `Open the dashboard: live project statuses, server output for the
selected project, and start/stop/restart keys. Reconciliation runs in
the background while the dashboard is open.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the dashboard needs an interactive terminal; use 'servup status' instead")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	dashboard := tui.New(tui.Deps{
		Store:       app.store,
		Controller:  app.controller,
		Loop:        app.loop,
		Bus:         app.bus,
		OutputLines: app.cfg.TUI.OutputPaneLines,
	})
	return dashboard.Run(cmd.Context())
}
