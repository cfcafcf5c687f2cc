// Package settlement replays ring settlement economics and reconciles them
// against the execution trace reported for a batch.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the simulator settings.
type Config struct {
	// FeePercentageBase is the denominator of every fee and burn percentage.
	FeePercentageBase uint32
	// FeeHolder receives burned fees.
	FeeHolder common.Address
	// Tolerance controls reconciliation precision.
	Tolerance Tolerance
	// CheckSpendable reserves every simulated fill against the orders'
	// spendable balances and aborts when an order is overdrawn.
	CheckSpendable bool
}

// DefaultConfig returns the protocol version 2 settings.
func DefaultConfig() Config {
	return Config{
		FeePercentageBase: 1000,
		Tolerance:         DefaultTolerance,
	}
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(observer Observer) Option {
	return func(s *Simulator) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// Simulator computes expected settlements and checks reports against them.
// It keeps no per-batch state and may verify independent batches concurrently.
type Simulator struct {
	cfg       Config
	validator *validator.Validator
	burnRates burnrate.Table
	observer  Observer
	logger    *zap.Logger
}

// New creates a simulator. The validator is needed by PrepareBatch and when
// CheckSpendable is set.
func New(cfg Config, v *validator.Validator, burnRates burnrate.Table, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:       cfg,
		validator: v,
		burnRates: burnRates,
		observer:  nopObserver{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify simulates every ring of the batch that is not expected to fail and
// compares the outcome with the report. The report is never modified.
//
// Reconciliation mismatches are collected and returned together; each wraps
// ErrMismatch and can be inspected with errors.As as a *MismatchError.
// Invariant violations abort immediately with an *InvariantError. An aborted
// run returns a Result carrying only its RunID and Outcome.
func (s *Simulator) Verify(ctx context.Context, batch *Batch, report *Report) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run", res.RunID), zap.String("batch", batch.Description))

	outcome := OutcomeError
	defer func() {
		res.Outcome = outcome
		s.observer.ObserveVerification(outcome, time.Since(start))
	}()

	if batch.Expected == nil {
		res.Skipped = true
		outcome = OutcomeSkipped
		logger.Debug("batch has no expectation, nothing to verify")
		return res, nil
	}
	if report == nil {
		return res, fmt.Errorf("%w: no report", ErrInvalidBatch)
	}

	if report.Reverted != batch.Expected.Revert {
		return res, fmt.Errorf("%w: expected revert=%t, got revert=%t (%s)",
			ErrUnexpectedRevert, batch.Expected.Revert, report.Reverted, report.RevertMessage)
	}
	if report.Reverted {
		res.Reverted = true
		outcome = OutcomeReverted
		logger.Info("batch reverted as expected", zap.String("message", report.RevertMessage))
		return res, nil
	}

	res.ExpectedBalances = cloneLedger(report.BalancesBefore)
	res.ExpectedFeeBalances = cloneLedger(report.FeeBalancesBefore)
	res.FilledAmount = make(map[common.Hash]*big.Int, len(batch.Orders))
	for _, o := range batch.Orders {
		res.FilledAmount[o.Hash] = new(big.Int).Set(o.Filled())
	}

	var mismatches []error
	if err := s.simulate(ctx, batch, res, &mismatches); err != nil {
		if s.cfg.CheckSpendable && s.validator != nil {
			for _, o := range batch.Orders {
				s.validator.ResetReservations(o)
			}
		}
		logger.Error("settlement simulation aborted", zap.Error(err))
		res = &Result{RunID: res.RunID}
		return res, err
	}

	for _, p := range res.FeePayments {
		res.ExpectedFeeBalances.Add(p.Owner, p.Token, common.Hash{}, p.Amount)
	}
	s.observer.ObserveFeePayments(len(res.FeePayments))

	for _, o := range batch.Orders {
		if !o.AllOrNone || o.AmountS == nil {
			continue
		}
		total := res.FilledAmount[o.Hash]
		if total.Cmp(o.AmountS) != 0 && !containsHash(res.IncompleteAllOrNone, o.Hash) {
			res.IncompleteAllOrNone = append(res.IncompleteAllOrNone, o.Hash)
			logger.Warn("all-or-none order left partially filled",
				zap.String("order", o.Hash.Hex()),
				zap.String("filled", total.String()),
				zap.String("amountS", o.AmountS.String()))
		}
	}

	mismatches = append(mismatches, s.reconcileLedger(MismatchBalance, res.ExpectedBalances, report.BalancesAfter)...)
	mismatches = append(mismatches, s.reconcileLedger(MismatchFeeBalance, res.ExpectedFeeBalances, report.FeeBalancesAfter)...)
	mismatches = append(mismatches, s.reconcileFilled(batch, res.FilledAmount, report.FilledAmounts)...)

	if len(mismatches) > 0 {
		outcome = OutcomeMismatch
		logger.Info("batch does not match the simulation", zap.Int("mismatches", len(mismatches)))
		return res, errors.Join(mismatches...)
	}

	outcome = OutcomePass
	logger.Info("batch verified",
		zap.Int("rings", len(res.Rings)),
		zap.Int("ringsFailed", res.RingsFailed),
		zap.Int("feePayments", len(res.FeePayments)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (s *Simulator) simulate(ctx context.Context, batch *Batch, res *Result, mismatches *[]error) error {
	expected := batch.Expected
	if len(expected.Rings) < len(batch.Rings) {
		return fmt.Errorf("%w: %d rings but %d ring expectations", ErrMissingExpectation, len(batch.Rings), len(expected.Rings))
	}
	recipient := batch.Recipient()

	for r, ring := range batch.Rings {
		ringExp := expected.Rings[r]
		if ringExp.Fail {
			res.RingsFailed++
			s.observer.ObserveRing(true)
			continue
		}
		if len(ringExp.Orders) != len(ring) {
			return fmt.Errorf("%w: ring %d has %d orders but %d expectations", ErrMissingExpectation, r, len(ring), len(ringExp.Orders))
		}
		orders, err := ringOrders(batch, r, ring)
		if err != nil {
			return err
		}
		if err := checkRedirection(r, orders, s.cfg.FeePercentageBase); err != nil {
			return err
		}

		rs := RingSettlement{Index: r, Orders: make([]OrderSettlement, 0, len(ring))}
		for o, ord := range orders {
			prevIndex := (o + len(ring) - 1) % len(ring)
			exp := ringExp.Orders[o]

			st, payments, err := s.settleOrder(ctx, orders, ord, exp, orders[prevIndex], ringExp.Orders[prevIndex], recipient)
			if err != nil {
				return err
			}
			res.FeePayments = append(res.FeePayments, payments...)

			if exp.Margin != nil && !s.cfg.Tolerance.Equal(st.SplitS, exp.Margin) {
				*mismatches = append(*mismatches, &MismatchError{
					Kind:      MismatchMargin,
					Token:     ord.TokenS,
					Owner:     ord.Owner,
					OrderHash: ord.Hash,
					Expected:  new(big.Int).Set(exp.Margin),
					Actual:    new(big.Int).Set(st.SplitS),
				})
			}

			applySettlement(res.ExpectedBalances, ord, &st, recipient)

			filled := floorMul(ord.AmountS, exp.FilledFraction)
			res.FilledAmount[ord.Hash] = new(big.Int).Add(res.FilledAmount[ord.Hash], filled)

			if s.cfg.CheckSpendable {
				if err := s.reserveFill(ctx, ord, &st); err != nil {
					return err
				}
			}
			rs.Orders = append(rs.Orders, st)
		}
		res.Rings = append(res.Rings, rs)
		s.observer.ObserveRing(false)
	}
	return nil
}

// settleOrder computes what one order pays and receives in a ring.
func (s *Simulator) settleOrder(
	ctx context.Context,
	ring []*order.Order,
	o *order.Order,
	exp OrderExpectation,
	prev *order.Order,
	prevExp OrderExpectation,
	recipient common.Address,
) (OrderSettlement, []FeePayment, error) {
	if err := checkFraction(o, exp.FilledFraction); err != nil {
		return OrderSettlement{}, nil, err
	}

	walletSplit := o.WalletSplitPercentage
	if !o.HasWallet() {
		walletSplit = 0
	}
	if exp.P2P {
		walletSplit = 100
	}

	st := OrderSettlement{
		OrderHash:  o.Hash,
		P2P:        exp.P2P,
		AmountS:    floorMul(o.AmountS, exp.FilledFraction),
		AmountB:    floorMul(o.AmountB, exp.FilledFraction),
		AmountFee:  new(big.Int),
		AmountFeeS: new(big.Int),
		AmountFeeB: new(big.Int),
		RebateFee:  new(big.Int),
		RebateS:    new(big.Int),
		RebateB:    new(big.Int),
	}
	prevAmountB := floorMul(prev.AmountB, prevExp.FilledFraction)
	base := big.NewInt(int64(s.cfg.FeePercentageBase))

	var payments []FeePayment
	distribute := func(token common.Address, gross *big.Int) (*big.Int, error) {
		d, err := s.distribute(ctx, ring, o, exp.P2P, token, gross, walletSplit, recipient)
		if err != nil {
			return nil, err
		}
		payments = append(payments, d.Payments...)
		return d.Rebate, nil
	}

	var err error
	if exp.P2P {
		st.AmountFeeS = mulDiv(st.AmountS, int64(o.TokenSFeePercentage), base)
		st.AmountFeeB = mulDiv(st.AmountB, int64(o.TokenBFeePercentage), base)
		if st.RebateS, err = distribute(o.TokenS, st.AmountFeeS); err != nil {
			return OrderSettlement{}, nil, err
		}
		if st.RebateB, err = distribute(o.TokenB, st.AmountFeeB); err != nil {
			return OrderSettlement{}, nil, err
		}
		st.SplitS = new(big.Int).Sub(st.AmountS, st.AmountFeeS)
		st.SplitS.Sub(st.SplitS, prevAmountB)
	} else {
		st.AmountFee = floorMul(o.Fee(), exp.FilledFraction)
		if st.RebateFee, err = distribute(o.FeeToken, st.AmountFee); err != nil {
			return OrderSettlement{}, nil, err
		}
		st.SplitS = new(big.Int).Sub(st.AmountS, prevAmountB)
	}
	return st, payments, nil
}

// distribute looks up the burn rate of token and runs Distribute for the
// order's fee in that token.
func (s *Simulator) distribute(
	ctx context.Context,
	ring []*order.Order,
	o *order.Order,
	p2p bool,
	token common.Address,
	gross *big.Int,
	walletSplit uint32,
	recipient common.Address,
) (*Distribution, error) {
	params := DistributionParams{
		Token:                 token,
		Gross:                 gross,
		Wallet:                o.Wallet(),
		HasWallet:             o.HasWallet(),
		WalletSplitPercentage: walletSplit,
		P2P:                   p2p,
		WaiveFeePercentage:    o.WaiveFeePercentage,
		Base:                  s.cfg.FeePercentageBase,
		MinerRecipient:        recipient,
		BurnHolder:            s.cfg.FeeHolder,
	}
	if gross.Sign() > 0 {
		if s.burnRates == nil {
			return nil, &InvariantError{Op: "burn rate", OrderHash: o.Hash, Token: token, Err: errors.New("no burn rate table")}
		}
		packed, err := s.burnRates.GetBurnRate(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("burn rate for order %s: %w", o.Hash.Hex(), err)
		}
		params.BurnRate = burnrate.Select(packed, p2p)
		params.Ring = make([]Waiver, len(ring))
		for i, ro := range ring {
			params.Ring[i] = Waiver{Owner: ro.Owner, Percentage: ro.WaiveFeePercentage}
		}
	}

	d, err := Distribute(params)
	if err != nil {
		return nil, &InvariantError{Op: "distribute fee", OrderHash: o.Hash, Token: token, Err: err}
	}
	return d, nil
}

func (s *Simulator) reserveFill(ctx context.Context, o *order.Order, st *OrderSettlement) error {
	if s.validator == nil {
		return &InvariantError{Op: "reserve", OrderHash: o.Hash, Token: o.TokenS, Err: validator.ErrMissingDependency}
	}
	if err := s.validator.Reserve(ctx, o, validator.LegS, st.AmountS); err != nil {
		return &InvariantError{Op: "reserve tokenS", OrderHash: o.Hash, Token: o.TokenS, Err: err}
	}
	if st.AmountFee.Sign() > 0 {
		if err := s.validator.Reserve(ctx, o, validator.LegFee, st.AmountFee); err != nil {
			return &InvariantError{Op: "reserve fee", OrderHash: o.Hash, Token: o.FeeToken, Err: err}
		}
	}
	return nil
}

// applySettlement folds the net deltas of one order settlement into the
// expected balances.
func applySettlement(balances *balance.Ledger, o *order.Order, st *OrderSettlement, feeRecipient common.Address) {
	balances.Add(o.Owner, o.TokenS, o.TrancheSOrDefault(), new(big.Int).Neg(st.TotalS()))
	balances.Add(o.Recipient(), o.TokenB, o.TrancheBOrDefault(), st.TotalB())
	balances.Add(o.Owner, o.FeeToken, common.Hash{}, new(big.Int).Neg(st.TotalFee()))
	if o.TokenTypeS != order.TokenTypeERC1400 {
		balances.Add(feeRecipient, o.TokenS, o.TrancheSOrDefault(), st.SplitS)
	}
}

func ringOrders(batch *Batch, r int, ring []int) ([]*order.Order, error) {
	if len(ring) == 0 {
		return nil, fmt.Errorf("%w: ring %d is empty", ErrInvalidBatch, r)
	}
	orders := make([]*order.Order, len(ring))
	for i, idx := range ring {
		if idx < 0 || idx >= len(batch.Orders) {
			return nil, fmt.Errorf("%w: ring %d references order %d of %d", ErrInvalidBatch, r, idx, len(batch.Orders))
		}
		orders[i] = batch.Orders[idx]
	}
	return orders, nil
}

// checkRedirection rejects a ring whose negative waivers claim more than
// the whole miner share.
func checkRedirection(r int, orders []*order.Order, base uint32) error {
	var claimed int64
	for _, o := range orders {
		if o.WaiveFeePercentage < 0 {
			claimed -= int64(o.WaiveFeePercentage)
		}
	}
	if claimed > int64(base) {
		return fmt.Errorf("%w: ring %d redirects %d of fee base %d to negative waivers", ErrInvalidBatch, r, claimed, base)
	}
	return nil
}

func checkFraction(o *order.Order, fraction decimal.Decimal) error {
	if fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: order %s filled fraction %s outside [0, 1]", ErrInvalidBatch, o.Hash.Hex(), fraction)
	}
	return nil
}

func containsHash(hashes []common.Hash, h common.Hash) bool {
	for _, x := range hashes {
		if x == h {
			return true
		}
	}
	return false
}

func cloneLedger(l *balance.Ledger) *balance.Ledger {
	if l == nil {
		return balance.NewLedger()
	}
	return l.Copy()
}
