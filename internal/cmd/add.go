package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/servup/servup/internal/config"
	"github.com/servup/servup/internal/docroot"
	"github.com/servup/servup/internal/project"
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a project folder",
	Long: `Register a project folder so its dev server can be supervised.
The folder's phpup config (.phpup/config), when present, seeds the
server settings, and the document root is auto-detected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}

	p := project.New(filepath.Base(path), path)
	p.Settings, _ = config.LoadProjectFile(path, p.Settings)
	if p.Settings.Docroot == "" {
		if root := docroot.Detect(path); root != "" && root != "." {
			p.Settings.Docroot = root
		}
	}

	if err := app.store.Add(p); err != nil {
		return err
	}
	app.loop.WatchProject(path)

	fmt.Fprintf(cmd.OutOrStdout(), "registered %s (port %s", p.Name, p.Settings.Port)
	if p.Settings.Docroot != "" {
		fmt.Fprintf(cmd.OutOrStdout(), ", docroot %s", p.Settings.Docroot)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ")")
	return nil
}
