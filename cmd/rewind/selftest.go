package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/app"
)

func (c *cli) selftestCmd() *cobra.Command {
	var cycles int

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Replay the reference undo/redo scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			_, err := c.app.SelfTest(cmd.Context(), cycles, func(cp app.Checkpoint) {
				fmt.Fprintf(c.stdout, "%s %-22s undo %-5d redo %-5d visible %-7d %s\n",
					c.style.mark(cp.OK()), cp.Phase, cp.Undo, cp.Redo, cp.Visible,
					c.style.muted.Render(cp.Elapsed.Round(time.Microsecond).String()))
			})
			if err != nil {
				return err
			}
			s := c.app.Metrics().Snapshot()
			fmt.Fprintf(c.stdout, "%s in %s  (%d undos, %d redos, %d disposed)\n",
				c.style.title.Render("passed"), time.Since(start).Round(time.Millisecond),
				s.Undos, s.Redos, s.Disposed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&cycles, "cycles", "n", app.DefaultSelfTestCycles, "number of cycles in the first phase (at least 30)")
	return cmd
}
