// Package quote predicts constant-product swap output from pool reserves.
// It mirrors the pool's published formula; settlement is the contract's job.
package quote

import (
	"math/big"

	"github.com/shopspring/decimal"

	"leogia-swap/pkg/types"
	"leogia-swap/pkg/units"
)

const (
	// DisplayPlaces is the precision quotes are reported with
	DisplayPlaces = 6
	// ExactPlaces is the working precision of the division
	ExactPlaces = 18
)

var (
	// fee: 0.3% => multiplier 997/1000
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)

	feeFactor = decimal.New(997, -3)
	hundred   = decimal.NewFromInt(100)

	// SafetyMarginPct is layered on top of the user's slippage tolerance to
	// absorb drift between the quoted and the executed reserves
	SafetyMarginPct = decimal.New(5, -1)
)

// Quote returns the expected output for amountIn, truncated to
// DisplayPlaces. Invalid or non-positive input and empty reserves yield
// zero, never an error.
func Quote(amountIn string, dir types.Direction, reserves types.Reserves, pair types.Pair) decimal.Decimal {
	return Exact(amountIn, dir, reserves, pair).Truncate(DisplayPlaces)
}

// Exact returns the expected output truncated to ExactPlaces
func Exact(amountIn string, dir types.Direction, reserves types.Reserves, pair types.Pair) decimal.Decimal {
	in, err := units.ParseDecimal(amountIn)
	if err != nil || !in.IsPositive() {
		return decimal.Zero
	}
	rIn := units.ToDecimal(reserves.In(dir), pair.In(dir).Decimals)
	rOut := units.ToDecimal(reserves.Out(dir), pair.Out(dir).Decimals)
	return amountOut(in, rIn, rOut)
}

// amountOut solves the constant-product invariant for the output given a
// fee-adjusted input. The quotient is truncated, so the result never
// reaches reserveOut.
func amountOut(amountIn, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero
	}
	eff := amountIn.Mul(feeFactor)
	num := eff.Mul(reserveOut)
	den := reserveIn.Add(eff)
	q, _ := num.QuoRem(den, ExactPlaces)
	return q
}

// AmountOutUnits is the integer form of the same formula as executed by
// Uniswap-V2 style pools, in smallest units, rounding down.
func AmountOutUnits(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil ||
		amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	var t1, t2 big.Int
	// t1 = amountIn * 997
	t1.Mul(amountIn, feeMul)
	// t2 = reserveIn * 1000 + t1
	t2.Mul(reserveIn, feeDen)
	t2.Add(&t2, &t1)
	out := new(big.Int).Mul(&t1, reserveOut)
	return out.Quo(out, &t2)
}

// MinAmountOut is the floor handed to the swap call:
// expectedOut * (1 - (slippagePct + 0.5) / 100), never below zero.
func MinAmountOut(expectedOut, slippagePct decimal.Decimal) decimal.Decimal {
	tolerance := slippagePct.Add(SafetyMarginPct).Div(hundred)
	floor := expectedOut.Mul(decimal.NewFromInt(1).Sub(tolerance))
	if floor.IsNegative() {
		return decimal.Zero
	}
	return floor
}
