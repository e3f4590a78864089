// Package history builds the recent-swaps list from pool swap events.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
)

const (
	DefaultWindow = 10_000
	DefaultLimit  = 6
)

// Source reads the chain head and swap events of one kind in an inclusive
// block range
type Source interface {
	HeadBlock(ctx context.Context) (uint64, error)
	QueryEvents(ctx context.Context, kind types.Direction, from, to uint64) ([]types.SwapEvent, error)
}

// Record is one rendered history line. It cannot be changed once built.
type Record struct {
	text     string
	block    uint64
	logIndex uint
	txHash   string
}

// NewRecord renders an event for display, e.g. "LEO → GIA · 1.5 → 2.97"
func NewRecord(ev types.SwapEvent, pair types.Pair) Record {
	in, out := pair.In(ev.Kind), pair.Out(ev.Kind)
	return Record{
		text: fmt.Sprintf("%s · %s → %s",
			pair.Label(ev.Kind),
			units.Format(ev.AmountIn, in.Decimals),
			units.Format(ev.AmountOut, out.Decimals)),
		block:    ev.Block,
		logIndex: ev.LogIndex,
		txHash:   ev.TxHash.Hex(),
	}
}

func (r Record) Text() string   { return r.text }
func (r Record) Block() uint64  { return r.block }
func (r Record) LogIndex() uint { return r.logIndex }
func (r Record) TxHash() string { return r.txHash }
func (r Record) String() string { return r.text }

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text   string `json:"text"`
		Block  uint64 `json:"block"`
		TxHash string `json:"tx_hash"`
	}{r.text, r.block, r.txHash})
}

// Aggregator merges both swap directions into one newest-first list
type Aggregator struct {
	src    Source
	pair   types.Pair
	window uint64
	limit  int
}

// New creates an aggregator. Zero window or limit fall back to the defaults.
func New(src Source, pair types.Pair, window uint64, limit int) *Aggregator {
	if window == 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Aggregator{src: src, pair: pair, window: window, limit: limit}
}

// Refresh reads the configured window up to the current head
func (a *Aggregator) Refresh(ctx context.Context) ([]Record, error) {
	return a.RefreshWindow(ctx, a.window)
}

// RefreshWindow reads the last window blocks up to the current head. It
// only reads, so repeated calls at the same head return the same list.
func (a *Aggregator) RefreshWindow(ctx context.Context, window uint64) ([]Record, error) {
	head, err := a.src.HeadBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("head block: %w", err)
	}
	var from uint64
	if head > window {
		from = head - window
	}

	var forward, backward []types.SwapEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := a.src.QueryEvents(gctx, types.AToB, from, head)
		if err != nil {
			return fmt.Errorf("query %s events: %w", a.pair.Label(types.AToB), err)
		}
		forward = evs
		return nil
	})
	g.Go(func() error {
		evs, err := a.src.QueryEvents(gctx, types.BToA, from, head)
		if err != nil {
			return fmt.Errorf("query %s events: %w", a.pair.Label(types.BToA), err)
		}
		backward = evs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(a.pair, a.limit, forward, backward), nil
}

// Merge orders events by block, newest first, breaking ties by log index,
// and keeps at most limit of them
func Merge(pair types.Pair, limit int, groups ...[]types.SwapEvent) []Record {
	var all []types.SwapEvent
	for _, g := range groups {
		all = append(all, g...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Block != all[j].Block {
			return all[i].Block > all[j].Block
		}
		return all[i].LogIndex > all[j].LogIndex
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]Record, 0, len(all))
	for _, ev := range all {
		out = append(out, NewRecord(ev, pair))
	}
	return out
}
