package testing

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Protocol addresses used by every test environment.
var (
	TradeDelegate = common.HexToAddress("0x000000000000000000000000000000000000de1e")
	FeeHolder     = common.HexToAddress("0x000000000000000000000000000000000000f33e")
)

// TestEnv manages an in-memory chain state for ring settlement testing.
// It provides a simplified interface for funding accounts, signing orders,
// preparing batches and verifying them against execution reports.
type TestEnv struct {
	t        *testing.T
	ctx      context.Context
	store    *chainstate.Store
	clock    *ManualClock
	logger   *zap.Logger
	verifier *crypto.MultiHashVerifier

	validatorConfig  validator.Config
	settlementConfig settlement.Config
}

// NewTestEnv creates a new test environment backed by an in-memory store.
// The store is closed when the test finishes.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	store, err := chainstate.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open chain state: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close chain state: %v", err)
		}
	})

	vcfg := validator.DefaultConfig()
	vcfg.TradeDelegate = TradeDelegate

	scfg := settlement.DefaultConfig()
	scfg.FeeHolder = FeeHolder

	return &TestEnv{
		t:                t,
		ctx:              context.Background(),
		store:            store,
		clock:            NewManualClock(),
		logger:           zaptest.NewLogger(t),
		verifier:         crypto.NewMultiHashVerifier(),
		validatorConfig:  vcfg,
		settlementConfig: scfg,
	}
}

// Store returns the chain state backing the environment.
func (e *TestEnv) Store() *chainstate.Store {
	return e.store
}

// Now returns the current block timestamp.
func (e *TestEnv) Now() uint64 {
	return e.clock.Unix()
}

// AdvanceTime moves the block timestamp forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// CheckSpendable enables reservation of fills against spendable balances.
func (e *TestEnv) CheckSpendable() {
	e.settlementConfig.CheckSpendable = true
}

// commit applies w and fails the test on error.
func (e *TestEnv) commit(w *chainstate.Writer) {
	e.t.Helper()
	if err := w.Commit(e.ctx); err != nil {
		e.t.Fatalf("Failed to update chain state: %v", err)
	}
}

// Fund sets the token balance of acc and approves the trade delegate for
// the same amount.
func (e *TestEnv) Fund(acc common.Address, token common.Address, amount *big.Int) {
	e.t.Helper()
	e.commit(e.store.NewWriter().
		SetBalance(token, acc, amount).
		SetAllowance(token, acc, TradeDelegate, amount))
}

// SetBalance sets the token balance of acc without touching allowances.
func (e *TestEnv) SetBalance(acc common.Address, token common.Address, amount *big.Int) {
	e.t.Helper()
	e.commit(e.store.NewWriter().SetBalance(token, acc, amount))
}

// Approve sets the allowance acc grants the trade delegate.
func (e *TestEnv) Approve(acc common.Address, token common.Address, amount *big.Int) {
	e.t.Helper()
	e.commit(e.store.NewWriter().SetAllowance(token, acc, TradeDelegate, amount))
}

// SetBurnRate sets the P2P and standard burn rates of token.
func (e *TestEnv) SetBurnRate(token common.Address, p2p, standard uint16) {
	e.t.Helper()
	e.commit(e.store.NewWriter().SetBurnRate(token, burnrate.Pack(p2p, standard)))
}

// RegisterBroker registers broker for owner, optionally behind an interceptor.
func (e *TestEnv) RegisterBroker(owner, broker, interceptor common.Address) {
	e.t.Helper()
	e.commit(e.store.NewWriter().RegisterBroker(owner, broker, interceptor))
}

// Balance returns the fungible token balance of acc.
func (e *TestEnv) Balance(acc common.Address, token common.Address) *big.Int {
	e.t.Helper()
	amount, err := e.store.BalanceOf(e.ctx, token, acc)
	if err != nil {
		e.t.Fatalf("Failed to read balance: %v", err)
	}
	return amount
}

// Balances returns every stored balance.
func (e *TestEnv) Balances() *balance.Ledger {
	e.t.Helper()
	ledger, err := e.store.Balances(e.ctx)
	if err != nil {
		e.t.Fatalf("Failed to read balances: %v", err)
	}
	return ledger
}

// Transfer moves amount of token from one account to another, the way the
// settlement contract would.
func (e *TestEnv) Transfer(from, to common.Address, token common.Address, amount *big.Int) {
	e.t.Helper()
	fromBalance := e.Balance(from, token)
	if fromBalance.Cmp(amount) < 0 {
		e.t.Fatalf("Transfer of %s exceeds balance %s of %s", amount, fromBalance, from.Hex())
	}
	e.commit(e.store.NewWriter().
		SetBalance(token, from, new(big.Int).Sub(fromBalance, amount)).
		SetBalance(token, to, new(big.Int).Add(e.Balance(to, token), amount)))
}

// PayFee removes a fee paid by from out of its token balance. Fees land in
// fee balances, which reports carry separately.
func (e *TestEnv) PayFee(from common.Address, token common.Address, amount *big.Int) {
	e.t.Helper()
	fromBalance := e.Balance(from, token)
	if fromBalance.Cmp(amount) < 0 {
		e.t.Fatalf("Fee of %s exceeds balance %s of %s", amount, fromBalance, from.Hex())
	}
	e.commit(e.store.NewWriter().SetBalance(token, from, new(big.Int).Sub(fromBalance, amount)))
}

// Sign hashes o under the environment domain and signs it with signer.
func (e *TestEnv) Sign(o *order.Order, signer *Account, algorithm crypto.SignAlgorithm) *order.Order {
	e.t.Helper()
	if err := order.UpdateHash(o, e.validatorConfig.Domain); err != nil {
		e.t.Fatalf("Failed to hash order: %v", err)
	}
	sig, err := e.verifier.Sign(algorithm, o.Hash, signer.Key)
	if err != nil {
		e.t.Fatalf("Failed to sign order: %v", err)
	}
	o.Sig = sig
	return o
}

// SignDualAuth signs the mining hash of batch for o with signer.
func (e *TestEnv) SignDualAuth(o *order.Order, batch *settlement.Batch, signer *Account) {
	e.t.Helper()
	sig, err := e.verifier.Sign(crypto.AlgorithmEthereum, batch.MiningHash, signer.Key)
	if err != nil {
		e.t.Fatalf("Failed to sign mining hash: %v", err)
	}
	o.DualAuthSig = sig
}

// Submit hashes o and marks it as submitted on-chain, which authenticates
// it without a signature.
func (e *TestEnv) Submit(o *order.Order) *order.Order {
	e.t.Helper()
	if err := order.UpdateHash(o, e.validatorConfig.Domain); err != nil {
		e.t.Fatalf("Failed to hash order: %v", err)
	}
	e.commit(e.store.NewWriter().SubmitOrder(o.Hash))
	return o
}

// Validator returns a validator reading the environment chain state.
func (e *TestEnv) Validator() *validator.Validator {
	return validator.New(e.validatorConfig, e.store.Dependencies(e.verifier), e.logger)
}

// Simulator returns a simulator reading the environment chain state.
func (e *TestEnv) Simulator(opts ...settlement.Option) *settlement.Simulator {
	opts = append([]settlement.Option{settlement.WithLogger(e.logger)}, opts...)
	return settlement.New(e.settlementConfig, e.Validator(), e.store, opts...)
}

// Prepare validates and authenticates every order of batch at the current
// block timestamp.
func (e *TestEnv) Prepare(sim *settlement.Simulator, batch *settlement.Batch) {
	e.t.Helper()
	if err := sim.PrepareBatch(e.ctx, batch, e.Now()); err != nil {
		e.t.Fatalf("Failed to prepare batch: %v", err)
	}
}

// Verify prepares batch and verifies it against report.
func (e *TestEnv) Verify(batch *settlement.Batch, report *settlement.Report, opts ...settlement.Option) (*settlement.Result, error) {
	e.t.Helper()
	sim := e.Simulator(opts...)
	e.Prepare(sim, batch)
	return sim.Verify(e.ctx, batch, report)
}
