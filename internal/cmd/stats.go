package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the launcher's runtime statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.launcher.Available(); err != nil {
			return err
		}
		out, err := app.launcher.Stats(cmd.Context())
		if out != "" {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
