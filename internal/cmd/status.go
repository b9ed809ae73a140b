package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reconciled project statuses",
	Long: `Reconcile the registered projects against the servers actually
running and print the result.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.reconciler.Pass(cmd.Context())

	projects := app.store.List()
	if len(projects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no projects registered (servup add <path>)")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tSTATUS\tPORT\tPID\tPATH")
	for _, p := range projects {
		pid := p.PID
		if pid == "" {
			pid = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Status, p.Settings.Port, pid, p.Path)
	}
	return w.Flush()
}
