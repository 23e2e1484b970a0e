package main

import (
	"fmt"
	"path/filepath"

	"dng-desqueeze/desqueeze"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the lens of each DNG and what a run would do with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			b := &desqueeze.Batch{Config: cfg}
			plans, err := b.Inspect(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var stretched int
			for _, p := range plans {
				name := filepath.Base(p.Input)
				switch {
				case p.Err != nil:
					red.Fprintf(out, "%s: could not read lens info: %v\n", name, p.Err)
				case p.Policy != nil:
					stretched++
					green.Fprintf(out, "%s: %s -> desqueeze %s -> %s\n", name, p.Lens, p.Policy.Scale, filepath.Base(p.Output))
				case p.Lens != "":
					fmt.Fprintf(out, "%s: %s -> copy -> %s\n", name, p.Lens, filepath.Base(p.Output))
				default:
					fmt.Fprintf(out, "%s: no lens info -> copy -> %s\n", name, filepath.Base(p.Output))
				}
			}
			fmt.Fprintf(out, "%d file(s), %d to desqueeze\n", len(plans), stretched)
			return nil
		},
	}
}
