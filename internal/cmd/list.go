package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List running phpup instances",
	Long:  `List every phpup instance the launcher reports, registered or not.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	instances := app.launcher.List(cmd.Context())
	if len(instances) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no running instances")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tPORT\tPATH")
	for _, inst := range instances {
		port := inst.Port
		if port == "" {
			port = "-"
		}
		path := inst.PathFragment
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", inst.PID, port, path)
	}
	return w.Flush()
}
