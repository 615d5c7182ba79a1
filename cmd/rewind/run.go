package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/app"
	"github.com/dshills/rewind/internal/config"
)

func (c *cli) runCmd() *cobra.Command {
	var watch, dump bool

	cmd := &cobra.Command{
		Use:   "run SCRIPT.lua",
		Short: "Run a Lua edit script against a new document",
		Long: `Run executes a Lua script with a global doc table bound to a fresh document:

  doc.begin(label)  doc.commit()  doc.cancel()  doc.transaction(label, fn)
  doc.insert(kind, attrs) -> id      doc.update(id, path, value) -> id
  doc.delete(id)  doc.get(id, path)  doc.visible()
  doc.undo() -> bool  doc.redo() -> bool  doc.counts() -> undo, redo
  doc.dump()  doc.json()`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if watch {
				return c.app.WatchScript(cmd.Context(), path, func(r *app.Report, err error) {
					if err != nil {
						fmt.Fprintf(c.stderr, "%s %v\n", c.style.mark(false), err)
					}
					if r != nil {
						if perr := c.printReport(r, dump); perr != nil {
							fmt.Fprintf(c.stderr, "%s %v\n", c.style.mark(false), perr)
						}
					}
				})
			}

			r, err := c.app.RunScript(cmd.Context(), path)
			if r != nil {
				if perr := c.printReport(r, dump); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rerun the script whenever it changes")
	cmd.Flags().BoolVar(&dump, "dump", false, "print the undo history and visible entities after the run")
	return cmd
}

func (c *cli) printReport(r *app.Report, dump bool) error {
	if c.app.Config().Output.Format == config.FormatJSON {
		js, err := r.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(c.stdout, js)
		return err
	}

	fmt.Fprintf(c.stdout, "%s  undo %d  redo %d  visible %d of %d  %s\n",
		c.style.title.Render(r.Document), r.Undo, r.Redo, r.Visible, r.Total,
		c.style.muted.Render(r.Elapsed.Round(time.Microsecond).String()))
	if dump {
		fmt.Fprintln(c.stdout, strings.TrimRight(r.Dump, "\n"))
		fmt.Fprintln(c.stdout, strings.TrimRight(r.Entities, "\n"))
	}
	return nil
}
