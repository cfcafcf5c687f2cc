// Package chainstate keeps a local copy of the on-chain state the order
// validator and the settlement simulator query: token balances and
// allowances, security token tranches and operators, broker registrations,
// registered and submitted orders and the burn-rate table.
package chainstate

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ErrNegativeAmount is returned when writing a negative token amount.
var ErrNegativeAmount = errors.New("negative token amount")

var (
	_ validator.TokenLedger       = (*Store)(nil)
	_ validator.TrancheLedger     = (*Store)(nil)
	_ validator.BrokerRegistry    = (*Store)(nil)
	_ validator.BrokerInterceptor = (*Store)(nil)
	_ validator.OrderRegistry     = (*Store)(nil)
	_ validator.OrderBook         = (*Store)(nil)
	_ burnrate.Table              = (*Store)(nil)
)

// Dependencies wires the store as every chain-backed validator collaborator.
func (s *Store) Dependencies(verifier validator.SignatureVerifier) validator.Dependencies {
	return validator.Dependencies{
		Tokens:        s,
		Tranches:      s,
		Brokers:       s,
		Interceptors:  s,
		OrderRegistry: s,
		OrderBook:     s,
		Verifier:      verifier,
	}
}

// Options configures a Store.
type Options struct {
	// Engine is EnginePebble (the default) or EngineLevelDB.
	Engine string
	// Path is the database directory. An empty path keeps the state in memory.
	Path string
	// Sync makes every committed write durable before returning.
	Sync bool
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Store is a key-value backed chain state. It is safe for concurrent use.
type Store struct {
	db     engine
	path   string
	logger *zap.Logger
}

// Open opens or creates the chain state described by opts.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db  engine
		err error
	)
	switch opts.Engine {
	case "", EnginePebble:
		db, err = openPebble(opts.Path, opts.Sync)
	case EngineLevelDB:
		db, err = openLevelDB(opts.Path, opts.Sync)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open chain state %q: %w", opts.Path, err)
	}

	logger.Debug("chain state opened",
		zap.String("engine", opts.Engine),
		zap.String("path", opts.Path),
		zap.Bool("sync", opts.Sync))
	return &Store{
		db:     db,
		path:   opts.Path,
		logger: logger,
	}, nil
}

// OpenMemory opens an empty in-memory chain state.
func OpenMemory() (*Store, error) {
	return Open(Options{})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if err := s.db.close(); err != nil {
		return err
	}
	s.logger.Debug("chain state closed", zap.String("path", s.path))
	return nil
}

// BalanceOf returns the fungible balance of owner, zero when unknown.
func (s *Store) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return s.amount(ctx, balanceKey(token, owner))
}

// Allowance returns what spender may transfer from owner, zero when unknown.
func (s *Store) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return s.amount(ctx, allowanceKey(token, owner, spender))
}

// IsOperatorFor reports whether spender may move every tranche of owner.
func (s *Store) IsOperatorFor(ctx context.Context, token, spender, owner common.Address) (bool, error) {
	return s.db.has(ctx, operatorKey(token, spender, owner))
}

// IsOperatorForTranche reports whether spender may move the given tranche of owner.
func (s *Store) IsOperatorForTranche(ctx context.Context, token common.Address, tranche common.Hash, spender, owner common.Address) (bool, error) {
	return s.db.has(ctx, trancheOperatorKey(token, tranche, spender, owner))
}

// BalanceOfTranche returns the tranche balance of owner, zero when unknown.
func (s *Store) BalanceOfTranche(ctx context.Context, token common.Address, tranche common.Hash, owner common.Address) (*big.Int, error) {
	return s.amount(ctx, trancheBalanceKey(token, tranche, owner))
}

// GetBroker looks up the registration of broker for owner.
func (s *Store) GetBroker(ctx context.Context, owner, broker common.Address) (bool, common.Address, error) {
	val, err := s.db.read(ctx, brokerKey(owner, broker))
	if errors.Is(err, ErrKeyNotFound) {
		return false, common.Address{}, nil
	}
	if err != nil {
		return false, common.Address{}, err
	}
	return true, common.BytesToAddress(val), nil
}

// GetAllowance returns the amount interceptor lets broker spend for owner.
func (s *Store) GetAllowance(ctx context.Context, interceptor, owner, broker, token common.Address) (*big.Int, error) {
	return s.amount(ctx, interceptorAllowanceKey(interceptor, owner, broker, token))
}

// IsOrderHashRegistered reports whether broker pre-approved the order hash.
func (s *Store) IsOrderHashRegistered(ctx context.Context, broker common.Address, orderHash common.Hash) (bool, error) {
	return s.db.has(ctx, registeredOrderKey(broker, orderHash))
}

// OrderSubmitted reports whether the order was submitted on-chain.
func (s *Store) OrderSubmitted(ctx context.Context, orderHash common.Hash) (bool, error) {
	return s.db.has(ctx, submittedOrderKey(orderHash))
}

// GetBurnRate returns the packed burn rate of token, zero when unknown.
func (s *Store) GetBurnRate(ctx context.Context, token common.Address) (uint32, error) {
	val, err := s.db.read(ctx, burnRateKey(token))
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(val) != 4 {
		return 0, fmt.Errorf("invalid burn rate record for %s: %d bytes", token.Hex(), len(val))
	}
	return binary.BigEndian.Uint32(val), nil
}

func (s *Store) amount(ctx context.Context, key []byte) (*big.Int, error) {
	val, err := s.db.read(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(val), nil
}

func encodeAmount(v *big.Int) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, v)
	}
	return v.Bytes(), nil
}
