package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var filename string
	var artist string
	var title string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Invalidate cached similarity records",
		Long: "Invalidate cached similarity records. --file forgets a track's\n" +
			"acoustic fingerprint and edges, --artist with --title forgets a\n" +
			"provider track record, --artist alone forgets an artist and all\n" +
			"of its tracks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case filename != "":
				if err := client.RemoveTrackByFilename(cmd.Context(), filename); err != nil {
					return err
				}
				fmt.Fprintf(out, "Forgot acoustic data for %s\n", filename)
			case artist != "" && title != "":
				if err := client.RemoveTrack(cmd.Context(), artist, title); err != nil {
					return err
				}
				fmt.Fprintf(out, "Forgot track %s - %s\n", artist, title)
			case artist != "":
				if err := client.RemoveArtist(cmd.Context(), artist); err != nil {
					return err
				}
				fmt.Fprintf(out, "Forgot artist %s\n", artist)
			default:
				return errors.New("one of --file or --artist is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Track filename to forget")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name to forget")
	cmd.Flags().StringVar(&title, "title", "", "Track title (with --artist)")
	return cmd
}
