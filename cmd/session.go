package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"leogia-swap/config"
	"leogia-swap/pkg/chain"
	"leogia-swap/pkg/logger"
	"leogia-swap/pkg/swap"
	"leogia-swap/pkg/types"
	"leogia-swap/pkg/wallet"
)

// app is everything one command invocation works with
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	session *wallet.Session
	chain   *chain.Client
	orch    *swap.Orchestrator
	pair    types.Pair
	json    bool
	verbose bool
}

func outputFlags(cmd *cobra.Command) (verbose, jsonOutput bool) {
	verbose, _ = cmd.Flags().GetBool("verbose")
	jsonOutput, _ = cmd.Flags().GetBool("json")
	return verbose, jsonOutput
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func pairFromConfig(cfg *config.Config) types.Pair {
	return types.Pair{
		A: types.Token{Symbol: cfg.TokenA.Symbol, Address: common.HexToAddress(cfg.TokenA.Address), Decimals: cfg.TokenA.Decimals},
		B: types.Token{Symbol: cfg.TokenB.Symbol, Address: common.HexToAddress(cfg.TokenB.Address), Decimals: cfg.TokenB.Decimals},
	}
}

// openApp loads config, connects the wallet and builds the orchestrator.
// Read-only commands may run without a key or account.
func openApp(ctx context.Context, cmd *cobra.Command, confirm wallet.Confirmer, readOnly bool) (*app, error) {
	verbose, jsonOutput := outputFlags(cmd)
	file, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New("cli", level)

	account := cfg.Account
	if readOnly && cfg.PrivateKey == "" && account == "" {
		account = common.Address{}.Hex()
	}

	s := newSpinner(" Connecting...", jsonOutput)
	s.Start()
	session, err := wallet.Connect(ctx, wallet.Options{
		RPCURL:     cfg.RPCURL,
		PrivateKey: cfg.PrivateKey,
		Account:    account,
		ChainID:    cfg.ChainID,
		Confirmer:  confirm,
		Logger:     log,
	})
	s.Stop()
	if err != nil {
		return nil, err
	}
	if !readOnly && !session.CanSign() {
		session.Close()
		return nil, fmt.Errorf("%w. Set LEOGIA_SWAP_PRIVATE_KEY or private_key in the config file", wallet.ErrNoSigner)
	}

	pair := pairFromConfig(cfg)
	client, err := chain.New(session, pair, chain.Addresses{
		Pool:   common.HexToAddress(cfg.PoolAddress),
		Router: common.HexToAddress(cfg.RouterAddress),
	})
	if err != nil {
		session.Close()
		return nil, err
	}

	orch := swap.New(client, session.Account, pair, swap.Settings{
		Slippage:      cfg.SlippageDecimal(),
		GasLimit:      cfg.GasLimit,
		TxTimeout:     cfg.TxTimeout,
		HistoryWindow: cfg.HistoryWindow,
		HistoryLimit:  cfg.HistoryLimit,
	}, session.Logger())

	return &app{
		cfg:     cfg,
		log:     log,
		session: session,
		chain:   client,
		orch:    orch,
		pair:    pair,
		json:    jsonOutput,
		verbose: verbose,
	}, nil
}

func (a *app) Close() {
	a.session.Close()
}

// load runs the connect-time read behind a spinner. A partial failure is
// reported but not fatal; the command continues with what was read.
func (a *app) load(ctx context.Context) {
	s := newSpinner(" Loading pool state...", a.json)
	s.Start()
	err := a.orch.Load(ctx)
	s.Stop()
	if err != nil {
		a.log.Warn().Err(err).Msg("load incomplete")
		if !a.json {
			color.Yellow("Warning: %v", err)
		}
	}
}

// followTransitions drives the spinner from orchestrator state changes. The
// spinner is paused while the wallet waits for confirmation.
func (a *app) followTransitions() *spinner.Spinner {
	s := newSpinner("", a.json)
	a.orch.OnTransition(func(from, to swap.State, st swap.Status) {
		switch to {
		case swap.StateAwaitingAuthorizationConfirm, swap.StateAwaitingSwapConfirm:
			s.Stop()
			if !a.json {
				fmt.Println(color.CyanString(st.Message))
			}
		case swap.StateSubmitted:
			s.Suffix = " " + st.Message
			s.Start()
		default:
			s.Stop()
		}
	})
	return s
}

func newSpinner(suffix string, quiet bool) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	if quiet {
		s.Disable()
	}
	return s
}

// printStatus colors a status: failures red, cancellations yellow,
// successes green
func printStatus(st swap.Status) {
	switch {
	case st.IsFailure():
		color.Red("\n%s", st.Message)
	case st.Kind == swap.StatusCancelled:
		color.Yellow("\n%s", st.Message)
	case st.Kind == swap.StatusSuccess:
		color.Green("\n%s", st.Message)
	default:
		fmt.Printf("\n%s\n", st.Message)
	}
}

func printJSON(v interface{}) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

func statusJSON(st swap.Status, tx common.Hash) map[string]interface{} {
	out := map[string]interface{}{
		"status":  st.Kind,
		"message": st.Message,
	}
	if st.Cause != nil {
		out["error"] = st.Cause.Error()
	}
	if tx != (common.Hash{}) {
		out["tx_hash"] = tx.Hex()
	}
	return out
}

func rule() string {
	return strings.Repeat("=", 60)
}
