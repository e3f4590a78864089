package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"leogia-swap/pkg/logger"
	"leogia-swap/pkg/types"
	"leogia-swap/pkg/wallet"
)

var (
	leoAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	giaAddr    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	poolAddr   = common.HexToAddress("0x0000000000000000000000000000000000000abc")
	routerAddr = common.HexToAddress("0x0000000000000000000000000000000000000def")
	userAddr   = common.HexToAddress("0x0000000000000000000000000000000000001234")

	testPair = types.Pair{
		A: types.Token{Symbol: "LEO", Address: leoAddr, Decimals: 18},
		B: types.Token{Symbol: "GIA", Address: giaAddr, Decimals: 18},
	}
)

type callArgs struct {
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArgs) calldata() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

type filterArgs struct {
	FromBlock *hexutil.Big     `json:"fromBlock"`
	ToBlock   *hexutil.Big     `json:"toBlock"`
	Addresses []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
}

type fakeEth struct {
	blockNumber uint64
	reserveA    *big.Int
	reserveB    *big.Int
	balances    map[common.Address]*big.Int // per token, for userAddr
	allowances  map[common.Address]*big.Int // per token, userAddr -> routerAddr
	logs        []*gethtypes.Log

	callBlocks []string
	filters    []filterArgs
}

func (f *fakeEth) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.blockNumber), nil
}

func (f *fakeEth) Call(ctx context.Context, args callArgs, block gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	f.callBlocks = append(f.callBlocks, block.String())

	data := args.calldata()
	if args.To == nil || len(data) < 4 {
		return nil, errors.New("bad call")
	}

	var contract abi.ABI
	switch *args.To {
	case poolAddr:
		contract = poolABI
	default:
		contract = erc20ABI
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	params, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	var out *big.Int
	switch method.Name {
	case methodReserveA:
		out = f.reserveA
	case methodReserveB:
		out = f.reserveB
	case methodBalanceOf:
		if params[0].(common.Address) != userAddr {
			out = new(big.Int)
			break
		}
		out = f.balances[*args.To]
	case methodAllowance:
		if params[0].(common.Address) != userAddr || params[1].(common.Address) != routerAddr {
			out = new(big.Int)
			break
		}
		out = f.allowances[*args.To]
	default:
		return nil, fmt.Errorf("unexpected method %s", method.Name)
	}
	packed, err := method.Outputs.Pack(out)
	if err != nil {
		return nil, err
	}
	return packed, nil
}

func (f *fakeEth) GetLogs(ctx context.Context, q filterArgs) ([]*gethtypes.Log, error) {
	f.filters = append(f.filters, q)

	var out []*gethtypes.Log
	for _, lg := range f.logs {
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && lg.Topics[0] != q.Topics[0][0] {
			continue
		}
		if lg.BlockNumber < q.FromBlock.ToInt().Uint64() || lg.BlockNumber > q.ToBlock.ToInt().Uint64() {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func newInprocEthClient(t *testing.T, fe *fakeEth) *ethclient.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", fe))
	t.Cleanup(srv.Stop)
	return ethclient.NewClient(gethrpc.DialInProc(srv))
}

func newTestClient(t *testing.T, fe *fakeEth) *Client {
	t.Helper()
	s := wallet.NewSession(newInprocEthClient(t, fe), nil, userAddr, big.NewInt(31337), nil, logger.Nop())
	t.Cleanup(s.Close)
	c, err := New(s, testPair, Addresses{Pool: poolAddr, Router: routerAddr})
	require.NoError(t, err)
	return c
}

func swapLog(t *testing.T, name string, block uint64, index uint, in, out int64) *gethtypes.Log {
	t.Helper()
	ev := poolABI.Events[name]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(in), big.NewInt(out))
	require.NoError(t, err)
	return &gethtypes.Log{
		Address:     poolAddr,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(userAddr.Bytes())},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(big.NewInt(int64(block*100) + int64(index))),
	}
}

func TestReservesPinnedToHead(t *testing.T) {
	fe := &fakeEth{
		blockNumber: 42,
		reserveA:    big.NewInt(1_000),
		reserveB:    big.NewInt(2_000),
	}
	c := newTestClient(t, fe)

	r, err := c.Reserves(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(42), r.Block)
	require.Equal(t, "1000", r.A.String())
	require.Equal(t, "2000", r.B.String())

	require.Len(t, fe.callBlocks, 2)
	require.Equal(t, fe.callBlocks[0], fe.callBlocks[1])
	require.NotEqual(t, "latest", fe.callBlocks[0])
}

func TestBalancesAndAllowance(t *testing.T) {
	fe := &fakeEth{
		blockNumber: 1,
		balances: map[common.Address]*big.Int{
			leoAddr: big.NewInt(5),
			giaAddr: big.NewInt(7),
		},
		allowances: map[common.Address]*big.Int{
			leoAddr: big.NewInt(9),
		},
	}
	c := newTestClient(t, fe)
	ctx := context.Background()

	b, err := c.Balances(ctx, userAddr)
	require.NoError(t, err)
	require.Equal(t, "5", b.A.String())
	require.Equal(t, "7", b.B.String())

	a, err := c.Allowance(ctx, userAddr, leoAddr, c.Spender())
	require.NoError(t, err)
	require.Equal(t, "9", a.String())

	a, err = c.Allowance(ctx, userAddr, leoAddr, common.HexToAddress("0x99"))
	require.NoError(t, err)
	require.Zero(t, a.Sign())
}

func TestQueryEvents(t *testing.T) {
	removed := swapLog(t, eventSwapAToB, 95, 3, 1, 1)
	removed.Removed = true
	fe := &fakeEth{
		blockNumber: 100,
		logs: []*gethtypes.Log{
			swapLog(t, eventSwapAToB, 90, 0, 150, 297),
			swapLog(t, eventSwapBToA, 91, 1, 200, 99),
			removed,
			swapLog(t, eventSwapAToB, 10, 0, 1, 1),
		},
	}
	c := newTestClient(t, fe)

	evs, err := c.QueryEvents(context.Background(), types.AToB, 50, 100)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, types.AToB, evs[0].Kind)
	require.Equal(t, "150", evs[0].AmountIn.String())
	require.Equal(t, "297", evs[0].AmountOut.String())
	require.Equal(t, uint64(90), evs[0].Block)

	require.Len(t, fe.filters, 1)
	require.Equal(t, []common.Address{poolAddr}, fe.filters[0].Addresses)
	require.Equal(t, poolABI.Events[eventSwapAToB].ID, fe.filters[0].Topics[0][0])

	evs, err = c.QueryEvents(context.Background(), types.BToA, 0, 100)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, types.BToA, evs[0].Kind)
	require.Equal(t, uint(1), evs[0].LogIndex)
}

func TestWritesNeedSigner(t *testing.T) {
	c := newTestClient(t, &fakeEth{})

	_, err := c.Approve(context.Background(), leoAddr, routerAddr, big.NewInt(1))
	require.ErrorIs(t, err, wallet.ErrNoSigner)

	_, err = c.Swap(context.Background(), types.AToB, big.NewInt(1), big.NewInt(0), 300_000)
	require.ErrorIs(t, err, wallet.ErrNoSigner)
}

func TestClosedSession(t *testing.T) {
	s := wallet.NewSession(nil, nil, userAddr, big.NewInt(1), nil, logger.Nop())
	s.Close()
	_, err := New(s, testPair, Addresses{})
	require.ErrorIs(t, err, wallet.ErrSessionClosed)
}

type codeError struct{ code int }

func (e codeError) Error() string  { return fmt.Sprintf("rpc error %d", e.code) }
func (e codeError) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))

	err := classify(fmt.Errorf("send: %w", codeError{code: codeUserRejected}))
	require.ErrorIs(t, err, types.ErrUserRejected)

	err = classify(codeError{code: -32000})
	require.NotErrorIs(t, err, types.ErrUserRejected)

	rejected := wallet.Rejected(wallet.Prompt{Action: "swap"})
	require.Equal(t, rejected, classify(rejected))
}
