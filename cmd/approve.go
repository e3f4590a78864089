package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"leogia-swap/pkg/parser"
	"leogia-swap/pkg/swap"
	"leogia-swap/pkg/types"
)

var approveYes bool

var approveCmd = &cobra.Command{
	Use:   "approve [token]",
	Short: "Allow the router to spend a token",
	Long: `Grant the swap router an unlimited allowance on one token of the pair.
This is needed once per token before the first swap that sells it.

Examples:
  leogia-swap approve LEO
  leogia-swap approve GIA --yes`,
	Args: cobra.MaximumNArgs(1),
	Run:  runApprove,
}

func init() {
	rootCmd.AddCommand(approveCmd)

	approveCmd.Flags().BoolVarP(&approveYes, "yes", "y", false, "Skip confirmation prompt")
}

func runApprove(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp(ctx, cmd, confirmerFor(approveYes), false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	dir := types.AToB
	if len(args) == 1 {
		// "approve GIA" reads as selling GIA
		req, err := parser.ParseSwapCommand("0 "+args[0], a.pair)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		dir = req.Direction
	}
	if err := a.orch.SetDirection(ctx, dir); err != nil {
		a.log.Debug().Err(err).Msg("allowance unavailable")
	}

	token := a.pair.In(dir)
	if !a.json {
		fmt.Printf("\nToken:   %s (%s)\n", color.YellowString(token.Symbol), token.Address.Hex())
		fmt.Printf("Spender: %s\n", a.chain.Spender().Hex())
	}

	a.followTransitions()
	st, err := a.orch.Authorize(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.json {
		printJSON(statusJSON(st, a.orch.View().LastTx))
	} else {
		printStatus(st)
		if st.Cause != nil && a.verbose {
			fmt.Printf("  %v\n", st.Cause)
		}
	}
	if st.Kind != swap.StatusSuccess {
		os.Exit(1)
	}
}
