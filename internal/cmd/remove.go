package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servup/servup/internal/errors"
)

var removeCmd = &cobra.Command{
	Use:   "remove <project>",
	Short: "Unregister a project",
	Long:  `Unregister a project by name or path. A running server is stopped first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	p, ok := app.findProject(args[0])
	if !ok {
		return fmt.Errorf("no project matches %q", args[0])
	}

	ctx := cmd.Context()
	app.reconciler.Pass(ctx)
	if err := app.controller.Stop(ctx, p.ID); err != nil {
		// An unverified stop does not block removal; the server is no
		// longer ours to track either way.
		var unverified *errors.StopUnverifiedError
		if !errors.As(err, &unverified) {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %v\n", err)
	}
	app.loop.UnwatchProject(p.Path)
	if err := app.store.Remove(p.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", p.Name)
	return nil
}
