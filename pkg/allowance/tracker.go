// Package allowance tracks whether the spender is authorized to pull the
// pending input amount from the owner's balance.
package allowance

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"leogia-swap/pkg/units"
)

// Reader returns the allowance granted by owner to spender on token, in
// smallest units
type Reader interface {
	Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error)
}

// NeedsAuthorization reports allowance < amount, compared in smallest units
func NeedsAuthorization(amount, allowance *big.Int) bool {
	if amount == nil {
		return false
	}
	if allowance == nil {
		return amount.Sign() > 0
	}
	return allowance.Cmp(amount) < 0
}

// Tracker holds the current authorization verdict together with the token
// and amount it was computed for. It starts out requiring authorization
// until a read proves otherwise.
type Tracker struct {
	mu        sync.RWMutex
	needs     bool
	token     common.Address
	amount    *big.Int
	allowance *big.Int
}

// NewTracker creates a tracker that requires authorization
func NewTracker() *Tracker {
	return &Tracker{needs: true}
}

// Needed returns the current verdict
func (t *Tracker) Needed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.needs
}

// NeededFor returns the verdict for spending amount of token. A verdict
// computed for another token never carries over; for another amount it is
// re-evaluated against the last known allowance.
func (t *Tracker) NeededFor(token common.Address, amount *big.Int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case token != t.token:
		return true
	case t.amount != nil && amount != nil && t.amount.Cmp(amount) == 0:
		return t.needs
	default:
		return NeedsAuthorization(amount, t.allowance)
	}
}

// Allowance returns the last allowance read, or nil if none was read yet
func (t *Tracker) Allowance() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.allowance == nil {
		return nil
	}
	return new(big.Int).Set(t.allowance)
}

// Recompute reads the allowance for token and compares it with amount
// parsed at the token's decimals. An unparseable amount leaves the verdict
// untouched and is not an error. A failed read is returned; the verdict is
// then re-evaluated against the last allowance known for the same token,
// and reset to required when token differs from the one last seen.
func (t *Tracker) Recompute(ctx context.Context, r Reader, owner, token, spender common.Address, amount string, decimals int32) error {
	want, err := units.Parse(amount, decimals)
	if err != nil {
		return nil
	}

	current, err := r.Allowance(ctx, owner, token, spender)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		if token != t.token {
			t.allowance = nil
		}
		t.token, t.amount = token, want
		t.needs = NeedsAuthorization(want, t.allowance)
		return fmt.Errorf("read allowance: %w", err)
	}
	t.token, t.amount, t.allowance = token, want, current
	t.needs = NeedsAuthorization(want, current)
	return nil
}

// MarkAuthorized records a confirmed grant of granted units on token
func (t *Tracker) MarkAuthorized(token common.Address, granted *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.token {
		t.amount = nil
	}
	t.token = token
	t.allowance = new(big.Int).Set(granted)
	t.needs = NeedsAuthorization(t.amount, t.allowance)
}
