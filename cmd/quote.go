package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"leogia-swap/pkg/parser"
	"leogia-swap/pkg/quote"
	"leogia-swap/pkg/swap"
	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
	"leogia-swap/pkg/wallet"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> [to <dest-token>]",
	Short: "Show the expected output of a swap without sending anything",
	Long: `Compute the expected output from the current pool reserves. The quote
includes the 0.3% pool fee; the minimum received applies your slippage
tolerance plus a fixed 0.5% safety margin.

Examples:
  leogia-swap quote 1 LEO to GIA
  leogia-swap quote 250 GIA --json`,
	Args: cobra.MinimumNArgs(2),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	a, req := openWithRequest(ctx, cmd, args, nil, true)
	defer a.Close()

	if err := a.orch.SetDirection(ctx, req.Direction); err != nil {
		a.log.Debug().Err(err).Msg("allowance unavailable")
	}
	if err := a.orch.SetAmount(ctx, req.Amount); err != nil {
		a.log.Debug().Err(err).Msg("allowance unavailable")
	}
	v := a.orch.View()

	if a.json {
		printJSON(quoteJSON(a.pair, v))
		return
	}
	displayQuote(a.pair, v)
}

// openWithRequest parses "<amount> <token> to <token>", connects and loads
// the pool state. It exits on failure.
func openWithRequest(ctx context.Context, cmd *cobra.Command, args []string, confirm wallet.Confirmer, readOnly bool) (*app, *parser.Request) {
	a, err := openApp(ctx, cmd, confirm, readOnly)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	req, err := parser.ParseSwapCommand(strings.Join(args, " "), a.pair)
	if err != nil {
		a.Close()
		printError(err)
		os.Exit(1)
	}

	a.load(ctx)
	return a, req
}

func quoteJSON(pair types.Pair, v swap.View) map[string]interface{} {
	in, out := pair.In(v.Direction), pair.Out(v.Direction)
	return map[string]interface{}{
		"direction":           v.Direction.String(),
		"source_amount":       v.Amount,
		"source_token":        in.Symbol,
		"dest_amount":         v.Quote.StringFixed(quote.DisplayPlaces),
		"dest_token":          out.Symbol,
		"min_dest_amount":     v.MinOut.String(),
		"slippage_pct":        v.Slippage.String(),
		"needs_authorization": v.NeedsAuthorization,
		"reserves_block":      v.Reserves.Block,
	}
}

func displayQuote(pair types.Pair, v swap.View) {
	in, out := pair.In(v.Direction), pair.Out(v.Direction)

	fmt.Println("\n" + rule())
	color.Green("                     SWAP QUOTE")
	fmt.Println(rule())

	fmt.Printf("\n  From:              %s %s\n", v.Amount, color.YellowString(in.Symbol))
	fmt.Printf("  To:                ~%s %s\n", v.Quote.StringFixed(quote.DisplayPlaces), color.YellowString(out.Symbol))
	fmt.Printf("  Minimum Received:  %s %s\n", v.MinOut.String(), out.Symbol)
	fmt.Printf("  Slippage:          %s%% (+%s%% margin)\n", v.Slippage.String(), quote.SafetyMarginPct.String())
	fmt.Printf("  Pool Reserves:     %s %s / %s %s (block %d)\n",
		units.Format(v.Reserves.A, pair.A.Decimals), pair.A.Symbol,
		units.Format(v.Reserves.B, pair.B.Decimals), pair.B.Symbol,
		v.Reserves.Block)
	if v.NeedsAuthorization {
		fmt.Printf("  Authorization:     %s\n", color.YellowString("required (run: leogia-swap approve %s)", in.Symbol))
	}

	fmt.Println("\n" + rule() + "\n")
}
