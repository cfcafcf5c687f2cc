package settlement

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	lrc   = common.HexToAddress("0x00000000000000000000000000000000000001c0")
	weth  = common.HexToAddress("0x0000000000000000000000000000000000000e70")
)

// e returns n/10 tokens with 18 decimals.
func e(tenths int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tenths), big.NewInt(1e17))
}

func fraction(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func hashed(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	require.NoError(t, order.UpdateHash(o, order.DefaultDomain))
	return o
}

func standardPair(t *testing.T) (*order.Order, *order.Order) {
	a := hashed(t, &order.Order{
		Owner:     alice,
		TokenS:    lrc,
		TokenB:    weth,
		AmountS:   e(1000),
		AmountB:   e(100),
		FeeToken:  lrc,
		FeeAmount: e(10),
	})
	b := hashed(t, &order.Order{
		Owner:     bob,
		TokenS:    weth,
		TokenB:    lrc,
		AmountS:   e(100),
		AmountB:   e(1000),
		FeeToken:  lrc,
		FeeAmount: e(20),
	})
	return a, b
}

type ledgerEntry struct {
	owner, token common.Address
	amount       *big.Int
}

func ledger(entries ...ledgerEntry) *balance.Ledger {
	l := balance.NewLedger()
	for _, en := range entries {
		l.Add(en.owner, en.token, common.Hash{}, en.amount)
	}
	return l
}

func newSimulator(t *testing.T, table burnrate.Table) *Simulator {
	cfg := DefaultConfig()
	cfg.FeeHolder = feeHolder
	return New(cfg, nil, table, WithLogger(zaptest.NewLogger(t)))
}

func scenarioA(t *testing.T) (*Batch, *Report) {
	a, b := standardPair(t)
	m := miner
	batch := &Batch{
		Description:  "scenario A",
		FeeRecipient: &m,
		Rings:        [][]int{{0, 1}},
		Orders:       []*order.Order{a, b},
		Expected: &Expectation{Rings: []RingExpectation{{
			Orders: []OrderExpectation{{FilledFraction: fraction("1")}, {FilledFraction: fraction("1")}},
		}}},
	}
	report := &Report{
		BalancesBefore: ledger(
			ledgerEntry{alice, lrc, e(10000)},
			ledgerEntry{bob, weth, e(500)},
			ledgerEntry{bob, lrc, e(100)},
		),
		BalancesAfter: ledger(
			ledgerEntry{alice, lrc, e(10000 - 1000 - 10)},
			ledgerEntry{alice, weth, e(100)},
			ledgerEntry{bob, weth, e(500 - 100)},
			ledgerEntry{bob, lrc, e(100 + 1000 - 20)},
		),
		FeeBalancesBefore: balance.NewLedger(),
		FeeBalancesAfter:  ledger(ledgerEntry{miner, lrc, e(30)}),
		FilledAmounts: map[common.Hash]*big.Int{
			a.Hash: e(1000),
			b.Hash: e(100),
		},
	}
	return batch, report
}

func TestVerifyScenarioA(t *testing.T) {
	batch, report := scenarioA(t)
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	require.Len(t, res.Rings, 1)
	require.Len(t, res.Rings[0].Orders, 2)
	for _, st := range res.Rings[0].Orders {
		assert.Equal(t, 0, st.RebateFee.Sign())
		assert.Equal(t, 0, st.SplitS.Sign())
	}
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 0, res.ExpectedFeeBalances.Balance(miner, lrc, common.Hash{}).Cmp(e(30)))
}

func TestVerifyDoesNotModifyReport(t *testing.T) {
	batch, report := scenarioA(t)
	sim := newSimulator(t, burnrate.StaticTable{})

	_, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.Equal(t, 0, report.BalancesBefore.Balance(alice, lrc, common.Hash{}).Cmp(e(10000)))
	assert.False(t, report.BalancesBefore.IsKnown(alice, weth, common.Hash{}))
}

func TestVerifyScenarioBPeerToPeer(t *testing.T) {
	w := wallet
	p := hashed(t, &order.Order{
		Owner:               alice,
		TokenS:              lrc,
		TokenB:              weth,
		AmountS:             e(1000),
		AmountB:             e(100),
		FeeToken:            lrc,
		TokenSFeePercentage: 50,
		WalletAddr:          &w,
	})
	q := hashed(t, &order.Order{
		Owner:    bob,
		TokenS:   weth,
		TokenB:   lrc,
		AmountS:  e(100),
		AmountB:  e(950),
		FeeToken: weth,
	})
	m := miner
	batch := &Batch{
		FeeRecipient: &m,
		Rings:        [][]int{{0, 1}},
		Orders:       []*order.Order{p, q},
		Expected: &Expectation{Rings: []RingExpectation{{
			Orders: []OrderExpectation{
				{FilledFraction: fraction("0.5"), P2P: true, Margin: new(big.Int)},
				{FilledFraction: fraction("0.5"), P2P: true},
			},
		}}},
	}
	// fee = floor(50 * 50 / 1000) = 2.5, burn = 2.5 * 200 / 1000 = 0.5
	report := &Report{
		BalancesBefore: ledger(
			ledgerEntry{alice, lrc, e(1000)},
			ledgerEntry{bob, weth, e(100)},
		),
		BalancesAfter: ledger(
			ledgerEntry{alice, lrc, e(1000 - 500)},
			ledgerEntry{alice, weth, e(50)},
			ledgerEntry{bob, weth, e(100 - 50)},
			ledgerEntry{bob, lrc, e(475)},
		),
		FeeBalancesAfter: ledger(
			ledgerEntry{wallet, lrc, e(20)},
			ledgerEntry{feeHolder, lrc, e(5)},
		),
		FilledAmounts: map[common.Hash]*big.Int{
			p.Hash: e(500),
			q.Hash: e(50),
		},
	}

	sim := newSimulator(t, burnrate.StaticTable{lrc: burnrate.Pack(200, 0)})
	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)

	st := res.Rings[0].Orders[0]
	assert.Equal(t, 0, st.AmountFeeS.Cmp(e(25)))
	assert.Equal(t, 0, st.RebateS.Sign())
	assert.Equal(t, 0, st.SplitS.Sign())
	require.Len(t, res.FeePayments, 2)
	assert.Equal(t, wallet, res.FeePayments[0].Owner)
	assert.Equal(t, feeHolder, res.FeePayments[1].Owner)
}

func TestVerifyWithoutExpectationIsNoop(t *testing.T) {
	batch, _ := scenarioA(t)
	batch.Expected = nil
	sim := newSimulator(t, nil)

	res, err := sim.Verify(context.Background(), batch, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestVerifyRevertShortCircuits(t *testing.T) {
	batch, _ := scenarioA(t)
	batch.Expected = &Expectation{Revert: true}
	report := &Report{
		Reverted:      true,
		BalancesAfter: ledger(ledgerEntry{alice, lrc, e(1)}),
	}
	sim := newSimulator(t, nil)

	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	assert.Nil(t, res.ExpectedBalances)
}

func TestVerifyUnexpectedRevert(t *testing.T) {
	batch, report := scenarioA(t)
	report.Reverted = true
	report.RevertMessage = "INVALID_SIG"
	sim := newSimulator(t, nil)

	_, err := sim.Verify(context.Background(), batch, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedRevert))
	assert.Contains(t, err.Error(), "INVALID_SIG")
}

func TestVerifyReportsBalanceMismatch(t *testing.T) {
	batch, report := scenarioA(t)
	report.BalancesAfter.Add(alice, lrc, common.Hash{}, e(1))
	sim := newSimulator(t, burnrate.StaticTable{})

	_, err := sim.Verify(context.Background(), batch, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, MismatchBalance, mismatch.Kind)
	assert.Equal(t, alice, mismatch.Owner)
	assert.Equal(t, lrc, mismatch.Token)
	assert.Equal(t, 0, mismatch.Expected.Cmp(e(10000-1000-10)))
}

func TestVerifyReportsFilledAndMarginMismatch(t *testing.T) {
	batch, report := scenarioA(t)
	report.FilledAmounts[batch.Orders[1].Hash] = e(99)
	batch.Expected.Rings[0].Orders[0].Margin = e(1)
	sim := newSimulator(t, burnrate.StaticTable{})

	_, err := sim.Verify(context.Background(), batch, report)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	kinds := map[MismatchKind]bool{}
	for _, inner := range joined.Unwrap() {
		var m *MismatchError
		require.True(t, errors.As(inner, &m))
		kinds[m.Kind] = true
	}
	assert.True(t, kinds[MismatchFilled])
	assert.True(t, kinds[MismatchMargin])
}

func TestVerifyAccumulatesFillsAcrossRings(t *testing.T) {
	batch, report := scenarioA(t)
	half := []OrderExpectation{{FilledFraction: fraction("0.5")}, {FilledFraction: fraction("0.5")}}
	batch.Rings = [][]int{{0, 1}, {1, 0}, {0, 1}}
	batch.Expected.Rings = []RingExpectation{
		{Orders: half},
		{Fail: true},
		{Orders: half},
	}
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RingsFailed)
	assert.Len(t, res.Rings, 2)
	assert.Equal(t, 0, res.FilledAmount[batch.Orders[0].Hash].Cmp(e(1000)))
}

func TestVerifyFilledAmountStartsFromPriorFill(t *testing.T) {
	batch, report := scenarioA(t)
	a, b := batch.Orders[0], batch.Orders[1]
	a.FilledAmountS = e(400)
	half := []OrderExpectation{{FilledFraction: fraction("0.5")}, {FilledFraction: fraction("0.5")}}
	batch.Expected.Rings = []RingExpectation{{Orders: half}}

	report.BalancesAfter = ledger(
		ledgerEntry{alice, lrc, e(10000 - 500 - 5)},
		ledgerEntry{alice, weth, e(50)},
		ledgerEntry{bob, weth, e(500 - 50)},
		ledgerEntry{bob, lrc, e(100 + 500 - 10)},
	)
	report.FeeBalancesAfter = ledger(ledgerEntry{miner, lrc, e(15)})
	report.FilledAmounts = map[common.Hash]*big.Int{a.Hash: e(900), b.Hash: e(50)}
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilledAmount[a.Hash].Cmp(e(900)))
	assert.Equal(t, 0, res.FilledAmount[b.Hash].Cmp(e(50)))
	assert.Equal(t, 0, a.FilledAmountS.Cmp(e(400)))

	// a report counting only this batch's fill disagrees
	report.FilledAmounts[a.Hash] = e(500)
	_, err = sim.Verify(context.Background(), batch, report)
	var m *MismatchError
	require.True(t, errors.As(err, &m))
	assert.Equal(t, MismatchFilled, m.Kind)
	assert.Equal(t, 0, m.Expected.Cmp(e(900)))
}

func TestVerifyMarginGoesToFeeRecipient(t *testing.T) {
	batch, report := scenarioA(t)
	// bob now only asks for 900 LRC, leaving 100 LRC of margin
	batch.Orders[1].AmountB = e(900)
	hashed(t, batch.Orders[1])
	report.FilledAmounts = map[common.Hash]*big.Int{
		batch.Orders[0].Hash: e(1000),
		batch.Orders[1].Hash: e(100),
	}
	report.BalancesAfter = ledger(
		ledgerEntry{alice, lrc, e(10000 - 1000 - 10)},
		ledgerEntry{alice, weth, e(100)},
		ledgerEntry{bob, weth, e(500 - 100)},
		ledgerEntry{bob, lrc, e(100 + 900 - 20)},
		ledgerEntry{miner, lrc, e(100)},
	)
	batch.Expected.Rings[0].Orders[0].Margin = e(100)
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rings[0].Orders[0].SplitS.Cmp(e(100)))
}

func TestVerifyRejectsMalformedBatches(t *testing.T) {
	sim := newSimulator(t, burnrate.StaticTable{})

	batch, report := scenarioA(t)
	batch.Rings = [][]int{{0, 5}}
	_, err := sim.Verify(context.Background(), batch, report)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	batch, report = scenarioA(t)
	batch.Expected.Rings = nil
	_, err = sim.Verify(context.Background(), batch, report)
	assert.True(t, errors.Is(err, ErrMissingExpectation))

	batch, report = scenarioA(t)
	batch.Expected.Rings[0].Orders[0].FilledFraction = fraction("1.5")
	_, err = sim.Verify(context.Background(), batch, report)
	assert.True(t, errors.Is(err, ErrInvalidBatch))
}

func TestVerifyAbortDiscardsPartialSettlement(t *testing.T) {
	batch, report := scenarioA(t)
	batch.Rings = [][]int{{0, 1}, {0, 7}}
	batch.Expected.Rings = append(batch.Expected.Rings, batch.Expected.Rings[0])
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.ErrorIs(t, err, ErrInvalidBatch)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Empty(t, res.Rings)
	assert.Empty(t, res.FeePayments)
	assert.Nil(t, res.ExpectedBalances)
	assert.Nil(t, res.ExpectedFeeBalances)
	assert.Nil(t, res.FilledAmount)

	// the report ledgers stay untouched
	assert.Equal(t, 0, report.BalancesBefore.Balance(alice, lrc, common.Hash{}).Cmp(e(10000)))
}

func TestVerifyRejectsOverRedirectingRing(t *testing.T) {
	batch, report := scenarioA(t)
	batch.Orders[0].WaiveFeePercentage = -600
	batch.Orders[1].WaiveFeePercentage = -500
	sim := newSimulator(t, burnrate.StaticTable{})

	res, err := sim.Verify(context.Background(), batch, report)
	require.ErrorIs(t, err, ErrInvalidBatch)
	assert.NotErrorIs(t, err, ErrConservation)
	var inv *InvariantError
	assert.False(t, errors.As(err, &inv))
	assert.Contains(t, err.Error(), "ring 0")
	assert.Equal(t, OutcomeError, res.Outcome)

	// exactly the whole base is still settleable
	batch, report = scenarioA(t)
	batch.Orders[0].WaiveFeePercentage = -500
	batch.Orders[1].WaiveFeePercentage = -500
	_, err = sim.Verify(context.Background(), batch, report)
	assert.NotErrorIs(t, err, ErrInvalidBatch)
}

func TestVerifyReportsIncompleteAllOrNone(t *testing.T) {
	batch, report := scenarioA(t)
	batch.Orders[0].AllOrNone = true
	batch.Expected.Rings[0].Orders = []OrderExpectation{{FilledFraction: fraction("0.5")}, {FilledFraction: fraction("0.5")}}
	sim := newSimulator(t, burnrate.StaticTable{})

	res, _ := sim.Verify(context.Background(), batch, report)
	require.NotNil(t, res)
	assert.Equal(t, []common.Hash{batch.Orders[0].Hash}, res.IncompleteAllOrNone)
}

type fundedTokens map[common.Address]*big.Int

func (f fundedTokens) BalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f[token]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f fundedTokens) Allowance(ctx context.Context, token, owner, _ common.Address) (*big.Int, error) {
	return f.BalanceOf(ctx, token, owner)
}

func TestVerifyCheckSpendableAbortsOnOverdraw(t *testing.T) {
	batch, report := scenarioA(t)
	half := []OrderExpectation{{FilledFraction: fraction("0.5")}, {FilledFraction: fraction("0.5")}}
	batch.Rings = [][]int{{0, 1}, {0, 1}}
	batch.Expected.Rings = []RingExpectation{{Orders: half}, {Orders: half}}

	v := validator.New(validator.DefaultConfig(), validator.Dependencies{
		Tokens: fundedTokens{lrc: e(600), weth: e(1000)},
	}, zaptest.NewLogger(t))
	cfg := DefaultConfig()
	cfg.FeeHolder = feeHolder
	cfg.CheckSpendable = true
	sim := New(cfg, v, burnrate.StaticTable{}, WithLogger(zaptest.NewLogger(t)))

	_, err := sim.Verify(context.Background(), batch, report)
	require.Error(t, err)
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, batch.Orders[0].Hash, inv.OrderHash)
	assert.True(t, errors.Is(err, validator.ErrReserveExceedsSpendable))

	for _, o := range batch.Orders {
		assert.Equal(t, 0, o.TokenSpendableS.Reserved.Sign())
	}
}

func TestVerifyCheckSpendablePasses(t *testing.T) {
	batch, report := scenarioA(t)
	v := validator.New(validator.DefaultConfig(), validator.Dependencies{
		Tokens: fundedTokens{lrc: e(10000), weth: e(500)},
	}, zaptest.NewLogger(t))
	cfg := DefaultConfig()
	cfg.FeeHolder = feeHolder
	cfg.CheckSpendable = true
	sim := New(cfg, v, burnrate.StaticTable{})

	_, err := sim.Verify(context.Background(), batch, report)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.Orders[0].TokenSpendableS.Reserved.Cmp(e(1010)))
}
