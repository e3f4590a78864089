package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"leogia-swap/pkg/allowance"
	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account balances, pool reserves and allowances",
	Long: `Show the connected account, its balances of both tokens, the current
pool reserves and the allowance granted to the router for each token.

Examples:
  leogia-swap status
  leogia-swap status --watch
  leogia-swap status --watch --interval 10`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch reserves and balances continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

// allowances at or above 2^255 are shown as unlimited
var unlimitedThreshold = new(big.Int).Lsh(big.NewInt(1), 255)

func runStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp(ctx, cmd, nil, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	if watchStatus {
		watchPoolStatus(ctx, a)
		return
	}
	a.load(ctx)
	checkPoolStatus(ctx, a)
}

func checkPoolStatus(ctx context.Context, a *app) {
	allowA, errA := a.chain.Allowance(ctx, a.session.Account, a.pair.A.Address, a.chain.Spender())
	allowB, errB := a.chain.Allowance(ctx, a.session.Account, a.pair.B.Address, a.chain.Spender())
	v := a.orch.View()

	if a.json {
		out := map[string]interface{}{
			"account":  a.session.Account.Hex(),
			"session":  a.session.ID.String(),
			"chain_id": a.session.ChainID.String(),
			"balances": balancesJSON(a.pair, v.Balances),
			"reserves": map[string]interface{}{
				a.pair.A.Symbol: units.Format(v.Reserves.A, a.pair.A.Decimals),
				a.pair.B.Symbol: units.Format(v.Reserves.B, a.pair.B.Decimals),
				"block":         v.Reserves.Block,
			},
			"allowances": map[string]interface{}{
				a.pair.A.Symbol: allowanceText(allowA, errA, a.pair.A),
				a.pair.B.Symbol: allowanceText(allowB, errB, a.pair.B),
			},
		}
		if v.RefreshErr != nil {
			out["refresh_error"] = v.RefreshErr.Error()
		}
		printJSON(out)
		return
	}

	fmt.Println("\n" + rule())
	color.Green("                     POOL STATUS")
	fmt.Println(rule())

	fmt.Printf("\n  Account:           %s\n", color.CyanString(types.ShortAddress(a.session.Account)))
	fmt.Printf("  Chain ID:          %s\n", a.session.ChainID)
	displayBalances(a.pair, v.Balances)
	fmt.Printf("  Pool Reserves:     %s %s / %s %s\n",
		units.Format(v.Reserves.A, a.pair.A.Decimals), color.YellowString(a.pair.A.Symbol),
		units.Format(v.Reserves.B, a.pair.B.Decimals), color.YellowString(a.pair.B.Symbol))
	fmt.Printf("  Reserves Block:    %d\n", v.Reserves.Block)
	fmt.Printf("  Allowance %-8s %s\n", a.pair.A.Symbol+":", allowanceText(allowA, errA, a.pair.A))
	fmt.Printf("  Allowance %-8s %s\n", a.pair.B.Symbol+":", allowanceText(allowB, errB, a.pair.B))
	if v.RefreshErr != nil {
		color.Yellow("\n  Some values could not be loaded: %v", v.RefreshErr)
	}

	fmt.Println("\n" + rule() + "\n")
}

func watchPoolStatus(ctx context.Context, a *app) {
	if a.json {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching pool status (Account: %s)\n", color.CyanString(types.ShortAddress(a.session.Account)))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(ctx, a)

	// Then check periodically
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkAndDisplayStatus(ctx, a)
		}
	}
}

func checkAndDisplayStatus(ctx context.Context, a *app) {
	if err := a.orch.Refresh(ctx); err != nil {
		color.Red("Error: %v", err)
		return
	}
	v := a.orch.View()
	fmt.Printf("[%s] block %d  reserves %s %s / %s %s\n",
		time.Now().Format("15:04:05"), v.Reserves.Block,
		units.Format(v.Reserves.A, a.pair.A.Decimals), a.pair.A.Symbol,
		units.Format(v.Reserves.B, a.pair.B.Decimals), a.pair.B.Symbol)
}

func allowanceText(v *big.Int, err error, tok types.Token) string {
	if err != nil {
		return "unavailable (" + err.Error() + ")"
	}
	if !allowance.NeedsAuthorization(unlimitedThreshold, v) {
		return "unlimited"
	}
	return units.Format(v, tok.Decimals) + " " + tok.Symbol
}

func balancesJSON(pair types.Pair, b types.Balances) map[string]string {
	return map[string]string{
		pair.A.Symbol: units.Format(b.A, pair.A.Decimals),
		pair.B.Symbol: units.Format(b.B, pair.B.Decimals),
	}
}

func displayBalances(pair types.Pair, b types.Balances) {
	fmt.Printf("  Balance %-10s %s\n", pair.A.Symbol+":", units.Format(b.A, pair.A.Decimals))
	fmt.Printf("  Balance %-10s %s\n", pair.B.Symbol+":", units.Format(b.B, pair.B.Decimals))
}
