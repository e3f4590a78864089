package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"leogia-swap/pkg/types"
)

// EIP-1193 "user rejected request"
const codeUserRejected = 4001

var ErrReverted = errors.New("transaction reverted")

// classify maps an external signer's rejection code onto
// types.ErrUserRejected so callers only ever check one sentinel
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected && !errors.Is(err, types.ErrUserRejected) {
		return fmt.Errorf("%w: %v", types.ErrUserRejected, err)
	}
	return err
}
