package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/app"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/playbook"
)

func (c *cli) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play PLAYBOOK.yaml",
		Short: "Run a YAML playbook and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, r, err := c.app.RunPlaybook(cmd.Context(), args[0])
			if res == nil || r == nil {
				return err
			}
			if perr := c.printPlaybook(res, r); perr != nil {
				return perr
			}
			return err
		},
	}
}

func (c *cli) printPlaybook(res *playbook.Result, r *app.Report) error {
	if c.app.Config().Output.Format == config.FormatJSON {
		js, err := r.JSON()
		if err != nil {
			return err
		}
		js, err = sjson.Set(js, "playbook.steps", res.Steps)
		if err == nil {
			js, err = sjson.Set(js, "playbook.checks", res.Checks)
		}
		for i, f := range res.Failures {
			if err == nil {
				js, err = sjson.Set(js, fmt.Sprintf("playbook.failures.%d", i), f.String())
			}
		}
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(pretty.Pretty([]byte(js)))
		return err
	}

	for _, f := range res.Failures {
		fmt.Fprintf(c.stdout, "%s %s\n", c.style.mark(false), f)
	}
	fmt.Fprintf(c.stdout, "%s %s  %d steps  %d checks  %d failed\n",
		c.style.mark(res.OK()), c.style.title.Render(res.Name), res.Steps, res.Checks, len(res.Failures))
	return nil
}
