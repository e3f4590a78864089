package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"leogia-swap/pkg/swap"
)

var (
	slippage     float64
	noConfirm    bool
	approveFirst bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap one token of the pair for the other",
	Long: `Swap tokens through the pool router. The transaction carries a minimum
output of quote * (1 - (slippage + 0.5) / 100); the pool reverts instead of
settling below it.

IMPORTANT:
  - The router must be allowed to spend the source token (see: leogia-swap approve)
  - Use --approve to grant the allowance first when it is missing

Examples:
  leogia-swap swap 1 LEO to GIA
  leogia-swap swap 2.5 GIA to LEO --slippage 1
  leogia-swap swap 1 LEO to GIA --approve --yes`,
	Args: cobra.MinimumNArgs(2),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Float64Var(&slippage, "slippage", -1, "Slippage tolerance in percent (default from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
	swapCmd.Flags().BoolVar(&approveFirst, "approve", false, "Approve the source token first if needed")
}

func runSwap(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	a, req := openWithRequest(ctx, cmd, args, confirmerFor(noConfirm), false)
	defer a.Close()

	if slippage >= 0 {
		if err := a.orch.SetSlippage(decimal.NewFromFloat(slippage)); err != nil {
			printError(err)
			os.Exit(1)
		}
	}
	if err := a.orch.SetDirection(ctx, req.Direction); err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := a.orch.SetAmount(ctx, req.Amount); err != nil {
		printError(err)
		os.Exit(1)
	}

	v := a.orch.View()
	if !a.json {
		displayQuote(a.pair, v)
	}

	a.followTransitions()

	if v.NeedsAuthorization && approveFirst {
		st, err := a.orch.Authorize(ctx)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if st.Kind != swap.StatusSuccess {
			finishStatus(a, st)
		}
		if !a.json {
			printStatus(st)
		}
	}

	st, err := a.orch.Swap(ctx)
	switch {
	case errors.Is(err, swap.ErrAuthorizationRequired):
		printError(fmt.Errorf("%w. Run: leogia-swap approve %s (or pass --approve)", err, a.pair.In(req.Direction).Symbol))
		os.Exit(1)
	case errors.Is(err, swap.ErrNoQuote):
		printError(fmt.Errorf("%w. Check the RPC endpoint with: leogia-swap status", err))
		os.Exit(1)
	case err != nil:
		printError(err)
		os.Exit(1)
	}
	finishStatus(a, st)
}

// finishStatus prints the final status of an action and exits non-zero
// unless it succeeded
func finishStatus(a *app, st swap.Status) {
	v := a.orch.View()
	if a.json {
		out := statusJSON(st, v.LastTx)
		if st.Kind == swap.StatusSuccess {
			out["balances"] = balancesJSON(a.pair, v.Balances)
		}
		if v.RefreshErr != nil {
			out["refresh_error"] = v.RefreshErr.Error()
		}
		printJSON(out)
	} else {
		printStatus(st)
		if st.Cause != nil && a.verbose {
			fmt.Printf("  %v\n", st.Cause)
		}
		if st.Kind == swap.StatusSuccess {
			fmt.Printf("  Transaction: %s\n", color.CyanString(v.LastTx.Hex()))
			displayBalances(a.pair, v.Balances)
		}
		if v.RefreshErr != nil {
			color.Yellow("  Some values could not be refreshed: %v", v.RefreshErr)
		}
		fmt.Println()
	}

	if st.Kind != swap.StatusSuccess {
		os.Exit(1)
	}
}
