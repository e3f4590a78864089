package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leogia-swap",
	Short: "A CLI for the LEO/GIA constant-product swap pool",
	Long: `leogia-swap quotes and executes swaps between the two tokens of a
constant-product pool. Quotes are computed locally from the pool reserves;
every transaction is confirmed before it is signed.

Examples:
  leogia-swap quote 1 LEO to GIA
  leogia-swap approve LEO
  leogia-swap swap 1 LEO to GIA --slippage 1.5
  leogia-swap history
  leogia-swap status`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $HOME/.leogia-swap.yaml or ./.leogia-swap.yaml)")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
}
