package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			status, err := client.Status(cmd.Context())
			if err != nil {
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"running": false, "error": err.Error()})
				}
				fmt.Fprintln(out, statusLine("daemon", "not reachable", false, shouldColorize(out)))
				return fmt.Errorf("query daemon: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, status)
			}

			colorize := shouldColorize(out)
			fmt.Fprintln(out, statusLine("daemon", "running", true, colorize))
			fmt.Fprintf(out, "  %-10s %s\n", "api:", status.APIBind)
			fmt.Fprintf(out, "  %-10s %s\n", "database:", status.DatabasePath)
			fmt.Fprintf(out, "  %-10s %s\n", "lock:", status.LockFilePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func statusLine(label, message string, ok, colorize bool) string {
	line := fmt.Sprintf("%s: %s", label, message)
	if !colorize {
		return line
	}
	color := ansiRed
	if ok {
		color = ansiGreen
	}
	return color + line + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
