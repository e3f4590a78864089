package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"leogia-swap/pkg/history"
)

var (
	historyWindow uint64
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent swaps in the pool",
	Long: `List recent swaps of both directions, newest first, read from the pool's
swap events over the last --window blocks.

Examples:
  leogia-swap history
  leogia-swap history --window 50000 --limit 20 --json`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Uint64Var(&historyWindow, "window", 0, "Number of recent blocks to scan (default from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of swaps to list (default from config)")
}

func runHistory(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp(ctx, cmd, nil, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	window, limit := a.cfg.HistoryWindow, a.cfg.HistoryLimit
	if historyWindow > 0 {
		window = historyWindow
	}
	if historyLimit > 0 {
		limit = historyLimit
	}
	agg := history.New(a.chain, a.pair, window, limit)

	s := newSpinner(" Fetching swap events...", a.json)
	s.Start()
	records, err := agg.Refresh(ctx)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.json {
		printJSON(records)
		return
	}

	fmt.Println("\n" + rule())
	color.Green("                    RECENT SWAPS")
	fmt.Println(rule() + "\n")
	if len(records) == 0 {
		color.Yellow("  No swaps in the last %d blocks", window)
	}
	for _, r := range records {
		fmt.Printf("  %s  %s\n", color.CyanString("#%-10d", r.Block()), r.Text())
		if a.verbose {
			fmt.Printf("              tx %s\n", r.TxHash())
		}
	}
	fmt.Println("\n" + rule() + "\n")
}
