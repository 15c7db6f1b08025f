package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newNeighboursCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "neighbours <file>",
		Short: "List a track's acoustic neighbours, closest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			neighbours, err := client.OrderedAcousticTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, neighbours)
			}
			if len(neighbours) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No neighbours recorded; run `autoqueue analyze` first")
				return nil
			}

			rows := make([][]string, 0, len(neighbours))
			for _, neighbour := range neighbours {
				rows = append(rows, []string{strconv.Itoa(neighbour.Distance), neighbour.Filename})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Distance", "Filename"},
				rows,
				[]columnAlignment{alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit neighbours as JSON")
	return cmd
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	similarCmd := &cobra.Command{
		Use:   "similar",
		Short: "Query cached provider similarity",
	}

	similarCmd.AddCommand(newSimilarTracksCommand(ctx))
	similarCmd.AddCommand(newSimilarArtistsCommand(ctx))
	return similarCmd
}

func newSimilarTracksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tracks <artist> <title>",
		Short: "List tracks similar to an artist and title, best match first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			matches, err := client.OrderedSimilarTracks(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No similar tracks cached")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, match := range matches {
				rows = append(rows, []string{strconv.Itoa(match.Score), match.Artist, match.Title})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Score", "Artist", "Title"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit matches as JSON")
	return cmd
}

func newSimilarArtistsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "artists <name>...",
		Short: "List artists similar to any of the given names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			matches, err := client.OrderedSimilarArtists(cmd.Context(), args)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No similar artists cached")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, match := range matches {
				rows = append(rows, []string{strconv.Itoa(match.Score), match.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Score", "Artist"},
				rows,
				[]columnAlignment{alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit matches as JSON")
	return cmd
}

func newBestRequestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "best-request <file> <request>...",
		Short: "Pick the request acoustically closest to a reference track",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			best, err := client.BestRequest(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), best)
			return nil
		},
	}
	return cmd
}
