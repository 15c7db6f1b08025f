package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	ctx := newCommandContext(&addrFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "autoqueue",
		Short:         "Autoqueue similarity cache CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newNeighboursCommand(ctx))
	rootCmd.AddCommand(newSimilarCommand(ctx))
	rootCmd.AddCommand(newBestRequestCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
