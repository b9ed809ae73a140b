package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/servup/servup/internal/docroot"
)

var (
	initDomain  string
	initDocroot string
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Generate a phpup config for a project folder",
	Long: `Run the launcher's config scaffolding for a project folder. The
document root is auto-detected unless given explicitly; with a domain
set, the generated config is saved into the folder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDomain, "domain", "", "local domain for the generated config")
	initCmd.Flags().StringVar(&initDocroot, "docroot", "", "document root (default: auto-detected)")
}

func runInit(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.launcher.Available(); err != nil {
		return err
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	root := initDocroot
	if root == "" {
		if detected := docroot.Detect(path); detected != "" && detected != "." {
			root = detected
		}
	}

	out, err := app.launcher.Init(cmd.Context(), path, initDomain, root)
	if out != "" {
		fmt.Fprint(cmd.OutOrStdout(), out)
	}
	return err
}
