package history

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"leogia-swap/pkg/types"
)

var pair = types.Pair{
	A: types.Token{Symbol: "LEO", Decimals: 18},
	B: types.Token{Symbol: "GIA", Decimals: 18},
}

type queryCall struct {
	kind     types.Direction
	from, to uint64
}

type fakeSource struct {
	head   uint64
	events map[types.Direction][]types.SwapEvent
	err    error

	mu    sync.Mutex
	calls []queryCall
}

func (f *fakeSource) HeadBlock(context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeSource) QueryEvents(_ context.Context, kind types.Direction, from, to uint64) ([]types.SwapEvent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, queryCall{kind, from, to})
	f.mu.Unlock()
	if f.err != nil && kind == types.BToA {
		return nil, f.err
	}
	var out []types.SwapEvent
	for _, ev := range f.events[kind] {
		if ev.Block >= from && ev.Block <= to {
			out = append(out, ev)
		}
	}
	return out, nil
}

func milli(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000))
}

func event(kind types.Direction, block uint64) types.SwapEvent {
	return types.SwapEvent{
		Kind:      kind,
		AmountIn:  milli(1500),
		AmountOut: milli(2970),
		Block:     block,
		TxHash:    common.BigToHash(new(big.Int).SetUint64(block)),
	}
}

func TestRefresh_KeepsSixNewest(t *testing.T) {
	src := &fakeSource{
		head: 20_000,
		events: map[types.Direction][]types.SwapEvent{
			types.AToB: {event(types.AToB, 19_100), event(types.AToB, 19_900), event(types.AToB, 19_400), event(types.AToB, 19_200)},
			types.BToA: {event(types.BToA, 19_800), event(types.BToA, 19_300), event(types.BToA, 19_700), event(types.BToA, 19_500)},
		},
	}
	agg := New(src, pair, 0, 0)

	recs, err := agg.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 6)

	var blocks []uint64
	for _, r := range recs {
		blocks = append(blocks, r.Block())
	}
	require.Equal(t, []uint64{19_900, 19_800, 19_700, 19_500, 19_400, 19_300}, blocks)

	require.Equal(t, "LEO → GIA · 1.5 → 2.97", recs[0].Text())
	require.Equal(t, "GIA → LEO · 1.5 → 2.97", recs[1].Text())
}

func TestRefresh_WindowBounds(t *testing.T) {
	src := &fakeSource{head: 25_000}
	_, err := New(src, pair, 10_000, 6).Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, src.calls, 2)
	for _, c := range src.calls {
		require.Equal(t, uint64(15_000), c.from)
		require.Equal(t, uint64(25_000), c.to)
	}
}

func TestRefresh_WindowClampsAtGenesis(t *testing.T) {
	src := &fakeSource{head: 500, events: map[types.Direction][]types.SwapEvent{
		types.AToB: {event(types.AToB, 0), event(types.AToB, 499)},
	}}
	recs, err := New(src, pair, 10_000, 6).Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, c := range src.calls {
		require.Zero(t, c.from)
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	src := &fakeSource{head: 100, events: map[types.Direction][]types.SwapEvent{
		types.AToB: {event(types.AToB, 10), event(types.AToB, 20)},
		types.BToA: {event(types.BToA, 20), event(types.BToA, 30)},
	}}
	agg := New(src, pair, 0, 0)
	first, err := agg.Refresh(context.Background())
	require.NoError(t, err)
	second, err := agg.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRefresh_QueryError(t *testing.T) {
	boom := errors.New("filter logs failed")
	src := &fakeSource{head: 100, err: boom}
	_, err := New(src, pair, 0, 0).Refresh(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestMerge_TieBreaksOnLogIndex(t *testing.T) {
	a := event(types.AToB, 50)
	a.LogIndex = 1
	b := event(types.BToA, 50)
	b.LogIndex = 4
	recs := Merge(pair, 6, []types.SwapEvent{a}, []types.SwapEvent{b})
	require.Len(t, recs, 2)
	require.Equal(t, uint(4), recs[0].LogIndex())
	require.Equal(t, uint(1), recs[1].LogIndex())
}

func TestRecord_JSON(t *testing.T) {
	rec := NewRecord(event(types.AToB, 7), pair)
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"LEO → GIA · 1.5 → 2.97","block":7,"tx_hash":"`+rec.TxHash()+`"}`, string(raw))
}
