package types

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Direction selects which side of the pair is sold
type Direction int

const (
	AToB Direction = iota // sell token A for token B
	BToA                  // sell token B for token A
)

// String returns the canonical direction tag
func (d Direction) String() string {
	if d == BToA {
		return "b-to-a"
	}
	return "a-to-b"
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == AToB {
		return BToA
	}
	return AToB
}

// ParseDirection accepts "a-to-b"/"b-to-a" or the symbol form "LEO_TO_GIA"
// for the given pair
func ParseDirection(s string, pair Pair) (Direction, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	switch norm {
	case "A_TO_B", "AB":
		return AToB, nil
	case "B_TO_A", "BA":
		return BToA, nil
	case strings.ToUpper(pair.A.Symbol) + "_TO_" + strings.ToUpper(pair.B.Symbol):
		return AToB, nil
	case strings.ToUpper(pair.B.Symbol) + "_TO_" + strings.ToUpper(pair.A.Symbol):
		return BToA, nil
	}
	return AToB, fmt.Errorf("unknown direction %q", s)
}

// Token describes one ERC20 side of the pool
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

// Pair holds the two tokens traded by the pool
type Pair struct {
	A Token
	B Token
}

// In returns the token sold in the given direction
func (p Pair) In(d Direction) Token {
	if d == BToA {
		return p.B
	}
	return p.A
}

// Out returns the token bought in the given direction
func (p Pair) Out(d Direction) Token {
	if d == BToA {
		return p.A
	}
	return p.B
}

// Label renders the direction with token symbols, e.g. "LEO → GIA"
func (p Pair) Label(d Direction) string {
	return p.In(d).Symbol + " → " + p.Out(d).Symbol
}

// Reserves is a pool reserve snapshot in smallest units, read at Block
type Reserves struct {
	A     *big.Int
	B     *big.Int
	Block uint64
}

// In returns the reserve of the token sold in direction d
func (r Reserves) In(d Direction) *big.Int {
	if d == BToA {
		return r.B
	}
	return r.A
}

// Out returns the reserve of the token bought in direction d
func (r Reserves) Out(d Direction) *big.Int {
	if d == BToA {
		return r.A
	}
	return r.B
}

// Balances holds the connected account's token balances in smallest units
type Balances struct {
	A *big.Int
	B *big.Int
}

// SwapEvent is one decoded pool swap log
type SwapEvent struct {
	Kind      Direction
	AmountIn  *big.Int
	AmountOut *big.Int
	Block     uint64
	LogIndex  uint
	TxHash    common.Hash
}

// ShortAddress renders an address as 0x1234…abcd
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// TxHandle is a broadcast transaction the caller waits on for finality
type TxHandle interface {
	Hash() common.Hash
	Wait(ctx context.Context) error
}
