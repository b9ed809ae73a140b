package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/launcher"
	"github.com/servup/servup/internal/project"
)

var (
	upDryRun    bool
	upPort      string
	upExtraArgs string
	upWatch     []string
)

var upCmd = &cobra.Command{
	Use:   "up [path] [-- launcher-args...]",
	Short: "Start a project's dev server",
	Long: `Start the dev server for a registered project, by name, path, or the
current directory. Arguments after -- are saved to the project and
passed through to the launcher. With --dry-run the launcher invocation
is printed instead of executed.`,
	Args: cobra.ArbitraryArgs,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().BoolVar(&upDryRun, "dry-run", false, "print the launcher command line without starting")
	upCmd.Flags().StringVar(&upPort, "port", "", "start on this port, overriding the configured one")
	upCmd.Flags().StringVar(&upExtraArgs, "extra-args", "", "extra launcher arguments as one shell-quoted string")
	upCmd.Flags().StringSliceVar(&upWatch, "watch-pattern", nil, "additional watch patterns (repeatable)")
}

func runUp(cmd *cobra.Command, args []string) error {
	// Everything after -- belongs to the launcher, not to us.
	var passthrough []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		passthrough = args[dash:]
		args = args[:dash]
	}
	if len(args) > 1 {
		return fmt.Errorf("at most one project argument, got %d", len(args))
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	key := "."
	if len(args) == 1 {
		key = args[0]
	}
	if abs, err := filepath.Abs(key); err == nil {
		if p, ok := app.findProject(abs); ok {
			return startProject(cmd, app, p, passthrough)
		}
	}
	p, ok := app.findProject(key)
	if !ok {
		return fmt.Errorf("no project matches %q (register it with: servup add)", key)
	}
	return startProject(cmd, app, p, passthrough)
}

// applyStartFlags folds the start flags into the project's saved
// settings. Extra launcher arguments and watch patterns persist, the
// same way a confirmed conflict port does.
func applyStartFlags(app *app, p *project.Project, passthrough []string) error {
	extras := append(launcher.SplitArgs(upExtraArgs), passthrough...)
	if len(extras) == 0 && len(upWatch) == 0 {
		return nil
	}

	s := p.Settings
	s.ExtraArgs = append(append([]string(nil), s.ExtraArgs...), extras...)
	s.WatchExtra = append(append([]string(nil), s.WatchExtra...), upWatch...)
	if err := app.store.UpdateSettings(p.ID, s); err != nil {
		return err
	}
	p.Settings = s
	return nil
}

func startProject(cmd *cobra.Command, app *app, p project.Project, passthrough []string) error {
	out := cmd.OutOrStdout()

	if err := applyStartFlags(app, &p, passthrough); err != nil {
		return err
	}

	if upDryRun {
		settings := p.Settings
		if upPort != "" {
			settings.Port = upPort
		}
		fmt.Fprintln(out, app.launcher.CommandLine(p.Path, settings, true))
		return nil
	}

	if err := app.launcher.Available(); err != nil {
		return err
	}

	ctx := cmd.Context()
	// Current reality first, so a server started elsewhere is adopted
	// instead of double-started.
	app.reconciler.Pass(ctx)

	var err error
	if upPort != "" {
		err = app.controller.StartOnPort(ctx, p.ID, upPort)
	} else {
		err = app.controller.Start(ctx, p.ID)
	}

	if errors.Is(err, errors.ErrNoFreePort) {
		return fmt.Errorf("port %s is in use and no free port was found nearby", p.Settings.Port)
	}
	var conflict *errors.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("port %s is in use; retry with: servup up %s --port %s",
			conflict.RequestedPort, p.Name, conflict.SuggestedPort)
	}
	if errors.Is(err, errors.ErrAlreadyRunning) {
		fmt.Fprintf(out, "%s is already running\n", p.Name)
		return nil
	}
	if err != nil {
		return err
	}

	// Wait out the starting phase so the outcome is reportable.
	deadline := time.Now().Add(time.Duration(app.cfg.Lifecycle.GraceTimeoutSeconds)*time.Second + 2*time.Second)
	for time.Now().Before(deadline) {
		cur, _ := app.store.Get(p.ID)
		switch cur.Status {
		case project.StatusRunning:
			fmt.Fprintf(out, "%s running on port %s (pid %s)\n", cur.Name, cur.Settings.Port, cur.PID)
			return nil
		case project.StatusCrashed:
			tail := ""
			if buf := app.controller.Output(p.ID); buf != nil {
				for _, line := range buf.Tail(5) {
					tail += "  " + line + "\n"
				}
			}
			if crash := app.controller.LastCrash(p.ID); crash != nil {
				return fmt.Errorf("%w\n%s", crash, tail)
			}
			return fmt.Errorf("%s crashed during startup\n%s", cur.Name, tail)
		}
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Fprintf(out, "%s starting on port %s\n", p.Name, p.Settings.Port)
	return nil
}
