// Package swap drives the authorize and swap actions of one session. It owns
// the status and the busy flag; quotes and the authorization verdict are
// recomputed explicitly whenever an input changes.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"leogia-swap/pkg/allowance"
	"leogia-swap/pkg/history"
	"leogia-swap/pkg/quote"
	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
)

const DefaultTxTimeout = 3 * time.Minute

var (
	ErrBusy                  = errors.New("another action is in progress")
	ErrNoAmount              = errors.New("enter a positive amount first")
	ErrAuthorizationRequired = errors.New("authorization required before swapping")
	ErrInvalidSlippage       = errors.New("slippage must be between 0 and 50 percent")
	ErrNoQuote               = errors.New("no quote available, pool reserves not loaded")
)

var maxSlippage = decimal.NewFromInt(50)

type BalanceReader interface {
	Balances(ctx context.Context, account common.Address) (types.Balances, error)
}

type ReserveReader interface {
	Reserves(ctx context.Context) (types.Reserves, error)
}

type Approver interface {
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (types.TxHandle, error)
}

type Swapper interface {
	Swap(ctx context.Context, dir types.Direction, amountIn, minOut *big.Int, gasLimit uint64) (types.TxHandle, error)
}

// Chain is everything the orchestrator needs from the outside world
type Chain interface {
	BalanceReader
	ReserveReader
	allowance.Reader
	Approver
	Swapper
	history.Source
	Spender() common.Address
}

// Settings tune one orchestrator
type Settings struct {
	Slippage      decimal.Decimal
	GasLimit      uint64
	TxTimeout     time.Duration
	HistoryWindow uint64
	HistoryLimit  int
}

// View is a snapshot of the session view model
type View struct {
	State              State
	Status             Status
	Busy               bool
	Amount             string
	Direction          types.Direction
	Slippage           decimal.Decimal
	Quote              decimal.Decimal
	MinOut             decimal.Decimal
	NeedsAuthorization bool
	Allowance          *big.Int
	Balances           types.Balances
	Reserves           types.Reserves
	History            []history.Record
	LastTx             common.Hash
	// RefreshErr is the last failed post-action refresh; displayed values
	// stay at their previous snapshot
	RefreshErr error
}

// TransitionFunc observes every state change
type TransitionFunc func(from, to State, status Status)

// Orchestrator is the swap state machine of one session
type Orchestrator struct {
	chain    Chain
	account  common.Address
	pair     types.Pair
	settings Settings
	tracker  *allowance.Tracker
	history  *history.Aggregator
	log      zerolog.Logger

	busy atomic.Bool

	mu         sync.RWMutex
	state      State
	status     Status
	amount     string
	dir        types.Direction
	quote      decimal.Decimal
	minOut     decimal.Decimal
	balances   types.Balances
	reserves   types.Reserves
	records    []history.Record
	lastTx     common.Hash
	refreshErr error
	observer   TransitionFunc
}

// New creates an idle orchestrator for account
func New(chain Chain, account common.Address, pair types.Pair, settings Settings, log zerolog.Logger) *Orchestrator {
	if settings.TxTimeout <= 0 {
		settings.TxTimeout = DefaultTxTimeout
	}
	return &Orchestrator{
		chain:    chain,
		account:  account,
		pair:     pair,
		settings: settings,
		tracker:  allowance.NewTracker(),
		history:  history.New(chain, pair, settings.HistoryWindow, settings.HistoryLimit),
		log:      log.With().Str("component", "swap").Logger(),
		state:    StateIdle,
		status:   Status{Kind: StatusIdle},
	}
}

// OnTransition registers fn to be called after every state change
func (o *Orchestrator) OnTransition(fn TransitionFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = fn
}

// Busy reports whether an action is in flight
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// View returns a copy of the current view model
func (o *Orchestrator) View() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return View{
		State:              o.state,
		Status:             o.status,
		Busy:               o.busy.Load(),
		Amount:             o.amount,
		Direction:          o.dir,
		Slippage:           o.settings.Slippage,
		Quote:              o.quote,
		MinOut:             o.minOut,
		NeedsAuthorization: o.tracker.Needed(),
		Allowance:          o.tracker.Allowance(),
		Balances:           o.balances,
		Reserves:           o.reserves,
		History:            append([]history.Record(nil), o.records...),
		LastTx:             o.lastTx,
		RefreshErr:         o.refreshErr,
	}
}

// SetAmount changes the input amount and recomputes the quote, then the
// authorization verdict
func (o *Orchestrator) SetAmount(ctx context.Context, amount string) error {
	if o.busy.Load() {
		return ErrBusy
	}
	o.mu.Lock()
	o.amount = amount
	o.mu.Unlock()
	return o.recompute(ctx)
}

// SetDirection changes the sold token and recomputes
func (o *Orchestrator) SetDirection(ctx context.Context, dir types.Direction) error {
	if o.busy.Load() {
		return ErrBusy
	}
	o.mu.Lock()
	o.dir = dir
	o.mu.Unlock()
	return o.recompute(ctx)
}

// SetSlippage changes the tolerance, in percent, used for the minimum output
func (o *Orchestrator) SetSlippage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(maxSlippage) {
		return fmt.Errorf("%w: %s", ErrInvalidSlippage, pct)
	}
	if o.busy.Load() {
		return ErrBusy
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settings.Slippage = pct
	o.requoteLocked()
	return nil
}

// recompute runs the quote engine and then the authorization tracker. A
// failed allowance read falls back to the last allowance known for the same
// token and is returned.
func (o *Orchestrator) recompute(ctx context.Context) error {
	o.mu.Lock()
	o.requoteLocked()
	amount, in := o.amount, o.pair.In(o.dir)
	o.mu.Unlock()

	if err := o.tracker.Recompute(ctx, o.chain, o.account, in.Address, o.chain.Spender(), amount, in.Decimals); err != nil {
		o.log.Warn().Err(err).Str("token", in.Symbol).Msg("allowance check failed, using last known allowance")
		return err
	}
	return nil
}

func (o *Orchestrator) requoteLocked() {
	o.quote = quote.Quote(o.amount, o.dir, o.reserves, o.pair)
	o.minOut = quote.MinAmountOut(o.quote, o.settings.Slippage)
}

// Load performs the connect-time read of balances, reserves, history and
// the allowance for the current amount
func (o *Orchestrator) Load(ctx context.Context) error {
	if err := o.Refresh(ctx); err != nil {
		return err
	}
	return o.recompute(ctx)
}

// Refresh reads balances, reserves and history concurrently. Each read
// writes its own field; a failed read leaves its field at the previous
// value. The first error is returned after all reads finish.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		b, err := o.chain.Balances(ctx, o.account)
		if err != nil {
			return fmt.Errorf("refresh balances: %w", err)
		}
		o.mu.Lock()
		o.balances = b
		o.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		r, err := o.chain.Reserves(ctx)
		if err != nil {
			return fmt.Errorf("refresh reserves: %w", err)
		}
		o.mu.Lock()
		o.reserves = r
		o.requoteLocked()
		o.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		recs, err := o.history.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh history: %w", err)
		}
		o.mu.Lock()
		o.records = recs
		o.mu.Unlock()
		return nil
	})
	err := g.Wait()

	o.mu.Lock()
	o.refreshErr = err
	o.mu.Unlock()
	if err != nil {
		o.log.Warn().Err(err).Msg("refresh incomplete, showing stale values")
	}
	return err
}

// Authorize grants the router an unlimited allowance on the current input
// token. Rejection and failure leave the verdict untouched.
func (o *Orchestrator) Authorize(ctx context.Context) (Status, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.View().Status, ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.RLock()
	in := o.pair.In(o.dir)
	o.mu.RUnlock()

	return o.run(ctx, authorizeAction, func(tctx context.Context) (types.TxHandle, error) {
		return o.chain.Approve(tctx, in.Address, o.chain.Spender(), new(big.Int).Set(math.MaxBig256))
	}, func(context.Context) {
		o.tracker.MarkAuthorized(in.Address, math.MaxBig256)
	}), nil
}

// Swap submits the current amount with a minimum output floor of
// quote * (1 - (slippage + 0.5) / 100). On settlement the view is refreshed
// and the amount and quote are cleared.
func (o *Orchestrator) Swap(ctx context.Context) (Status, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.View().Status, ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.RLock()
	var (
		dir      = o.dir
		amount   = o.amount
		reserves = o.reserves
		status   = o.status
		slippage = o.settings.Slippage
	)
	o.mu.RUnlock()
	in, out := o.pair.In(dir), o.pair.Out(dir)

	amountIn, err := units.Parse(amount, in.Decimals)
	if err != nil || amountIn.Sign() <= 0 {
		return status, ErrNoAmount
	}
	if o.tracker.NeededFor(in.Address, amountIn) {
		return status, ErrAuthorizationRequired
	}

	// without a reserve snapshot there is no floor to protect the output
	expected := quote.Quote(amount, dir, reserves, o.pair)
	if reserves.A == nil || reserves.B == nil || !expected.IsPositive() {
		return status, ErrNoQuote
	}
	minOut := units.FromDecimal(quote.MinAmountOut(expected, slippage), out.Decimals)
	o.log.Debug().
		Str("amount_in", amount).
		Str("quote", expected.String()).
		Str("quote_units", quote.AmountOutUnits(amountIn, reserves.In(dir), reserves.Out(dir)).String()).
		Str("min_out_units", minOut.String()).
		Uint64("reserves_block", reserves.Block).
		Msg("submitting swap")

	return o.run(ctx, swapAction, func(tctx context.Context) (types.TxHandle, error) {
		return o.chain.Swap(tctx, dir, amountIn, minOut, o.settings.GasLimit)
	}, func(ctx context.Context) {
		// the new snapshot is shown even if part of it failed to load
		_ = o.Refresh(ctx)
		o.mu.Lock()
		o.amount = ""
		o.quote = decimal.Zero
		o.minOut = decimal.Zero
		o.mu.Unlock()
	}), nil
}

// run walks one action through confirm, optional submitted, and a terminal
// state, then back to idle. Every collaborator error ends up in the
// returned status.
func (o *Orchestrator) run(ctx context.Context, a action, send func(context.Context) (types.TxHandle, error), settled func(context.Context)) Status {
	tctx, cancel := context.WithTimeout(ctx, o.settings.TxTimeout)
	defer cancel()

	o.transition(a.confirm, Status{Kind: StatusPending, Message: a.msgConfirm})

	tx, err := send(tctx)
	if err != nil {
		return o.finish(o.failure(ctx, tctx, a, err))
	}
	o.mu.Lock()
	o.lastTx = tx.Hash()
	o.mu.Unlock()

	if a.submitted != "" {
		o.transition(a.submitted, Status{Kind: StatusPending, Message: a.msgSubmitted})
	}
	if err := tx.Wait(tctx); err != nil {
		return o.finish(o.failure(ctx, tctx, a, err))
	}

	settled(ctx)
	o.log.Info().Str("action", a.name).Str("tx", tx.Hash().Hex()).Msg("confirmed")
	return o.finish(outcome{a.ok, Status{Kind: StatusSuccess, Message: a.msgOK}})
}

type outcome struct {
	state  State
	status Status
}

// failure maps a collaborator error onto cancelled or failed
func (o *Orchestrator) failure(ctx, tctx context.Context, a action, err error) outcome {
	ev := o.log.Warn().Err(err).Str("action", a.name)
	switch {
	case types.KindOf(err) == types.KindRejected:
		ev.Msg("rejected by user")
		return outcome{a.cancelled, Status{Kind: StatusCancelled, Message: a.msgCancelled, Cause: err}}
	case errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		ev.Dur("timeout", o.settings.TxTimeout).Msg("timed out")
		return outcome{a.failed, Status{Kind: StatusFailed, Message: a.msgTimeout, Cause: err}}
	default:
		ev.Msg("failed")
		return outcome{a.failed, Status{Kind: StatusFailed, Message: a.msgFailed, Cause: err}}
	}
}

func (o *Orchestrator) finish(out outcome) Status {
	o.transition(out.state, out.status)
	o.transition(StateIdle, out.status)
	return out.status
}

func (o *Orchestrator) transition(to State, status Status) {
	o.mu.Lock()
	from := o.state
	if !from.CanTransition(to) {
		o.log.Error().Str("from", string(from)).Str("to", string(to)).Msg("illegal transition")
	}
	o.state = to
	o.status = status
	observer := o.observer
	o.mu.Unlock()

	o.log.Debug().Str("from", string(from)).Str("to", string(to)).Str("status", status.String()).Msg("transition")
	if observer != nil {
		observer(from, to, status)
	}
}
