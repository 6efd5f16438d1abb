package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Operator tool for the sample payment gateway",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(eligibilityCmd())
	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(refundCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
