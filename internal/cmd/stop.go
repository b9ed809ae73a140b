package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopAll bool

var stopCmd = &cobra.Command{
	Use:   "stop [project]",
	Short: "Stop a project's dev server",
	Long: `Stop the dev server for a project, escalating from a graceful
terminate to a force kill until the stop is verified. With --all, every
phpup instance on the machine is stopped via the launcher.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().BoolVar(&stopAll, "all", false, "stop every phpup instance on the machine")
}

func runStop(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if stopAll {
		output, err := app.launcher.StopAll(ctx)
		if output != "" {
			fmt.Fprint(out, output)
		}
		if err != nil {
			return err
		}
		app.reconciler.Pass(ctx)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("name a project or pass --all")
	}
	p, ok := app.findProject(args[0])
	if !ok {
		return fmt.Errorf("no project matches %q", args[0])
	}

	// Pick up pids for servers this invocation did not spawn.
	app.reconciler.Pass(ctx)

	if err := app.controller.Stop(ctx, p.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "stopped %s\n", p.Name)
	return nil
}
