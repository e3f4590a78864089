// Package wallet holds the connected session: RPC client, account, signer
// and the confirmation step every transaction goes through. A Session is
// created on connect and torn down with Close; nothing outlives it.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultDialTimeout = 15 * time.Second

var (
	ErrSessionClosed = errors.New("wallet session is closed")
	ErrNoSigner      = errors.New("no private key configured; session is read-only")
	ErrNoAccount     = errors.New("no account: set private_key or account")
)

// Options configures Connect
type Options struct {
	RPCURL      string
	PrivateKey  string // hex, optional for read-only sessions
	Account     string // watch-only account when no key is given
	ChainID     int64  // 0 asks the node
	DialTimeout time.Duration
	Confirmer   Confirmer
	Logger      zerolog.Logger
}

// Session is the explicit context passed to every on-chain operation
type Session struct {
	ID      uuid.UUID
	Account common.Address
	ChainID *big.Int

	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	confirm Confirmer
	log     zerolog.Logger
	closed  atomic.Bool
}

// Connect dials the node and resolves the account and chain ID
func Connect(ctx context.Context, opts Options) (*Session, error) {
	var (
		key     *ecdsa.PrivateKey
		account common.Address
		err     error
	)
	switch {
	case opts.PrivateKey != "":
		key, err = ParseKey(opts.PrivateKey)
		if err != nil {
			return nil, err
		}
		account = crypto.PubkeyToAddress(key.PublicKey)
	case common.IsHexAddress(opts.Account):
		account = common.HexToAddress(opts.Account)
	default:
		return nil, ErrNoAccount
	}

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	chainID := big.NewInt(opts.ChainID)
	if opts.ChainID == 0 {
		chainID, err = client.ChainID(dialCtx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
	}

	s := NewSession(client, key, account, chainID, opts.Confirmer, opts.Logger)
	s.log.Info().Str("chain_id", chainID.String()).Bool("read_only", key == nil).Msg("wallet connected")
	return s, nil
}

// NewSession assembles a session from parts. key may be nil for a
// read-only session; a nil confirmer rejects every transaction.
func NewSession(client *ethclient.Client, key *ecdsa.PrivateKey, account common.Address, chainID *big.Int, confirm Confirmer, log zerolog.Logger) *Session {
	if confirm == nil {
		confirm = RejectAll
	}
	id := uuid.New()
	return &Session{
		ID:      id,
		Account: account,
		ChainID: chainID,
		client:  client,
		key:     key,
		confirm: confirm,
		log: log.With().
			Str("session", id.String()).
			Str("account", account.Hex()).
			Logger(),
	}
}

// ParseKey decodes a hex private key with or without 0x prefix
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Client returns the RPC client while the session is open
func (s *Session) Client() (*ethclient.Client, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return s.client, nil
}

// Logger returns the session-scoped logger
func (s *Session) Logger() zerolog.Logger {
	return s.log
}

// CanSign reports whether transactions can be sent from this session
func (s *Session) CanSign() bool {
	return s.key != nil
}

// Transactor returns signing options bound to ctx. The signer asks the
// session confirmer before signing; a refusal aborts the transaction before
// anything is broadcast.
func (s *Session) Transactor(ctx context.Context, prompt Prompt, gasLimit uint64) (*bind.TransactOpts, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if s.key == nil {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.ChainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *gethtypes.Transaction) (*gethtypes.Transaction, error) {
		if err := s.confirm.Confirm(ctx, prompt); err != nil {
			s.log.Debug().Str("action", prompt.Action).Err(err).Msg("confirmation declined")
			return nil, err
		}
		return sign(from, tx)
	}
	opts.Context = ctx
	opts.GasLimit = gasLimit
	return opts, nil
}

// Close tears the session down; later calls fail with ErrSessionClosed
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	if s.client != nil {
		s.client.Close()
	}
	s.log.Info().Msg("wallet disconnected")
}
