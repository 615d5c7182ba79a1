package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/app"
)

// cli holds state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string
	quiet      bool

	stdout io.Writer
	stderr io.Writer

	app   *app.Application
	style *styles
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "rewind",
		Short: "Replay edit scripts against an undoable document",
		Long: `rewind drives a document with a multi-level undo history.

Edits come from Lua scripts (run) or YAML playbooks with expectations (play).
selftest replays the reference undo/redo scenario and checks every count.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return c.init() },
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "configuration file (default rewind.toml if present)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&c.quiet, "quiet", "q", false, "disable log output")

	root.AddCommand(c.runCmd(), c.playCmd(), c.selftestCmd(), versionCmd())
	return root
}

func (c *cli) init() error {
	application, err := app.New(app.Options{
		ConfigPath: c.configPath,
		LogLevel:   c.logLevel,
		Quiet:      c.quiet,
		Stdout:     c.stdout,
		Stderr:     c.stderr,
	})
	if err != nil {
		return err
	}
	c.app = application
	c.style = newStyles(c.stdout, application.Config().Output.Color)
	return nil
}
