package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "flowkey",
		Short:        "Wallet signature login service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")

	root.AddCommand(
		newServeCmd(&configFile),
		newKeygenCmd(),
		newSignCmd(),
		newLoginCmd(),
	)

	return root
}
