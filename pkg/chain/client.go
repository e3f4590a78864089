// Package chain implements the on-chain collaborators (token ledger, pool,
// router, event log) on top of go-ethereum.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
	"leogia-swap/pkg/wallet"
)

// Addresses of the deployed contracts
type Addresses struct {
	Pool   common.Address
	Router common.Address
}

// Client talks to the pool, router and both token contracts through one
// wallet session
type Client struct {
	session *wallet.Session
	eth     *ethclient.Client
	pair    types.Pair
	addrs   Addresses
	pool    *bind.BoundContract
	router  *bind.BoundContract
	log     zerolog.Logger
}

// New binds the contracts to an open session
func New(s *wallet.Session, pair types.Pair, addrs Addresses) (*Client, error) {
	eth, err := s.Client()
	if err != nil {
		return nil, err
	}
	return &Client{
		session: s,
		eth:     eth,
		pair:    pair,
		addrs:   addrs,
		pool:    bind.NewBoundContract(addrs.Pool, poolABI, eth, eth, eth),
		router:  bind.NewBoundContract(addrs.Router, routerABI, eth, eth, eth),
		log:     s.Logger().With().Str("component", "chain").Logger(),
	}, nil
}

// Spender is the address the input token must be approved for
func (c *Client) Spender() common.Address {
	return c.addrs.Router
}

func (c *Client) token(addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, erc20ABI, c.eth, c.eth, c.eth)
}

// callUint calls a view method returning a single uint256
func callUint(opts *bind.CallOpts, contract *bind.BoundContract, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("call %s: unexpected outputs: %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected output type: %T", method, out[0])
	}
	return v, nil
}

// HeadBlock returns the current chain head
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	return n, nil
}

// BalanceOf returns account's balance of token in smallest units
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return callUint(&bind.CallOpts{Context: ctx}, c.token(token), methodBalanceOf, account)
}

// Balances reads both token balances of account
func (c *Client) Balances(ctx context.Context, account common.Address) (types.Balances, error) {
	a, err := c.BalanceOf(ctx, c.pair.A.Address, account)
	if err != nil {
		return types.Balances{}, err
	}
	b, err := c.BalanceOf(ctx, c.pair.B.Address, account)
	if err != nil {
		return types.Balances{}, err
	}
	return types.Balances{A: a, B: b}, nil
}

// Allowance returns what owner has allowed spender to pull of token
func (c *Client) Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error) {
	return callUint(&bind.CallOpts{Context: ctx}, c.token(token), methodAllowance, owner, spender)
}

// Reserves reads both pool reserves pinned to the same block so a quote
// never mixes two snapshots
func (c *Client) Reserves(ctx context.Context) (types.Reserves, error) {
	head, err := c.HeadBlock(ctx)
	if err != nil {
		return types.Reserves{}, err
	}
	opts := &bind.CallOpts{Context: ctx, BlockNumber: new(big.Int).SetUint64(head)}

	a, err := callUint(opts, c.pool, methodReserveA)
	if err != nil {
		return types.Reserves{}, err
	}
	b, err := callUint(opts, c.pool, methodReserveB)
	if err != nil {
		return types.Reserves{}, err
	}
	return types.Reserves{A: a, B: b, Block: head}, nil
}

// QueryEvents returns swap events of one direction in [from, to], in log order
func (c *Client) QueryEvents(ctx context.Context, kind types.Direction, from, to uint64) ([]types.SwapEvent, error) {
	name := eventSwapAToB
	if kind == types.BToA {
		name = eventSwapBToA
	}
	ev := poolABI.Events[name]

	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.addrs.Pool},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", name, err)
	}

	out := make([]types.SwapEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		decoded, err := decodeSwap(ev, lg)
		if err != nil {
			return nil, fmt.Errorf("decode %s at block %d: %w", name, lg.BlockNumber, err)
		}
		decoded.Kind = kind
		out = append(out, decoded)
	}
	return out, nil
}

func decodeSwap(ev abi.Event, lg gethtypes.Log) (types.SwapEvent, error) {
	values, err := ev.Inputs.Unpack(lg.Data)
	if err != nil {
		return types.SwapEvent{}, err
	}
	if len(values) != 2 {
		return types.SwapEvent{}, fmt.Errorf("unexpected fields: %d", len(values))
	}
	in, okIn := values[0].(*big.Int)
	out, okOut := values[1].(*big.Int)
	if !okIn || !okOut {
		return types.SwapEvent{}, fmt.Errorf("unexpected field types: %T, %T", values[0], values[1])
	}
	return types.SwapEvent{
		AmountIn:  in,
		AmountOut: out,
		Block:     lg.BlockNumber,
		LogIndex:  lg.Index,
		TxHash:    lg.TxHash,
	}, nil
}

// Approve asks the wallet to grant spender amount of token and broadcasts it
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (types.TxHandle, error) {
	symbol := c.pair.A.Symbol
	if token == c.pair.B.Address {
		symbol = c.pair.B.Symbol
	}
	summary := fmt.Sprintf("Allow %s to spend your %s", spender.Hex(), symbol)
	opts, err := c.session.Transactor(ctx, wallet.Prompt{Action: "approve", Summary: summary}, 0)
	if err != nil {
		return nil, err
	}
	tx, err := c.token(token).Transact(opts, methodApprove, spender, amount)
	if err != nil {
		return nil, classify(err)
	}
	c.log.Debug().Str("tx", tx.Hash().Hex()).Str("token", symbol).Msg("approve broadcast")
	return &pendingTx{eth: c.eth, tx: tx}, nil
}

// Swap asks the wallet to sign a swap of amountIn with a hard floor of
// minOut and broadcasts it
func (c *Client) Swap(ctx context.Context, dir types.Direction, amountIn, minOut *big.Int, gasLimit uint64) (types.TxHandle, error) {
	method := methodSwapAToB
	if dir == types.BToA {
		method = methodSwapBToA
	}
	in, out := c.pair.In(dir), c.pair.Out(dir)
	summary := fmt.Sprintf("Swap %s %s for at least %s %s",
		units.Format(amountIn, in.Decimals), in.Symbol,
		units.Format(minOut, out.Decimals), out.Symbol)

	opts, err := c.session.Transactor(ctx, wallet.Prompt{Action: "swap", Summary: summary}, gasLimit)
	if err != nil {
		return nil, err
	}
	tx, err := c.router.Transact(opts, method, amountIn, minOut)
	if err != nil {
		return nil, classify(err)
	}
	c.log.Debug().Str("tx", tx.Hash().Hex()).Str("method", method).Msg("swap broadcast")
	return &pendingTx{eth: c.eth, tx: tx}, nil
}

type pendingTx struct {
	eth *ethclient.Client
	tx  *gethtypes.Transaction
}

func (p *pendingTx) Hash() common.Hash { return p.tx.Hash() }

// Wait blocks until the transaction is mined; a failed receipt is an error
func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.eth, p.tx)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", p.tx.Hash().Hex(), err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s in block %s", ErrReverted, p.tx.Hash().Hex(), receipt.BlockNumber)
	}
	return nil
}
