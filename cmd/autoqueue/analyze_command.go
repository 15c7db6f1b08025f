package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var withNeighbours bool
	var exclude []string

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze tracks into the acoustic fingerprint cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, filename := range args {
				if err := client.AnalyzeTrack(cmd.Context(), filename, withNeighbours, exclude); err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", filename, err)
					continue
				}
				fmt.Fprintf(out, "%s: analyzed\n", filename)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tracks failed analysis", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withNeighbours, "neighbours", true, "Also compute nearest-neighbour edges")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Filenames that must not become neighbours")
	return cmd
}
