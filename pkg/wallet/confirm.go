package wallet

import (
	"context"
	"fmt"

	"leogia-swap/pkg/types"
)

// Prompt describes what the user is asked to sign
type Prompt struct {
	Action  string // "approve" or "swap"
	Summary string
}

// Confirmer is the wallet confirmation step. Implementations return an
// error wrapping types.ErrUserRejected when the user declines.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) error
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, p Prompt) error

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) error { return f(ctx, p) }

// AutoConfirm approves every prompt (--yes)
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, Prompt) error { return nil })

// RejectAll declines every prompt
var RejectAll Confirmer = ConfirmFunc(func(_ context.Context, p Prompt) error {
	return Rejected(p)
})

// Rejected builds the rejection error for a prompt
func Rejected(p Prompt) error {
	return fmt.Errorf("%s: %w", p.Action, types.ErrUserRejected)
}
