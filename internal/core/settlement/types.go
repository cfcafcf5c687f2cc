package settlement

import (
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderExpectation is the fill an order is expected to get in one ring.
type OrderExpectation struct {
	// FilledFraction is the share of the order filled in this ring, in [0, 1].
	FilledFraction decimal.Decimal
	// P2P selects peer-to-peer settlement for this order.
	P2P bool
	// Margin, when set, is the splitS the order is expected to leave.
	Margin *big.Int
}

// RingExpectation holds the per-order expectations of one ring. A ring
// expected to fail is skipped during simulation.
type RingExpectation struct {
	Fail   bool
	Orders []OrderExpectation
}

// Expectation is the expected outcome of submitting a batch.
type Expectation struct {
	Revert        bool
	RevertMessage string
	Rings         []RingExpectation
}

// Batch is a set of rings submitted together. Rings reference orders by
// index into Orders.
type Batch struct {
	Description       string
	FeeRecipient      *common.Address
	TransactionOrigin common.Address
	Miner             *common.Address
	// MiningHash is what dual-auth signatures of the batch orders sign.
	MiningHash common.Hash

	Rings  [][]int
	Orders []*order.Order

	Expected *Expectation
}

// Recipient returns the address that receives miner fees and margin.
func (b *Batch) Recipient() common.Address {
	if b.FeeRecipient != nil && *b.FeeRecipient != (common.Address{}) {
		return *b.FeeRecipient
	}
	return b.TransactionOrigin
}

// Report is the execution trace of a batch produced by the system under test.
type Report struct {
	Reverted      bool
	RevertMessage string

	BalancesBefore    *balance.Ledger
	BalancesAfter     *balance.Ledger
	FeeBalancesBefore *balance.Ledger
	FeeBalancesAfter  *balance.Ledger

	// FilledAmounts is the filled tokenS amount per order hash after execution.
	FilledAmounts map[common.Hash]*big.Int
}

// FeePayment credits Amount of Token to Owner's fee balance.
type FeePayment struct {
	Token  common.Address
	Owner  common.Address
	Amount *big.Int
}

// OrderSettlement is what one order pays and receives in one ring.
type OrderSettlement struct {
	OrderHash common.Hash
	P2P       bool

	AmountS    *big.Int
	AmountB    *big.Int
	AmountFee  *big.Int
	AmountFeeS *big.Int
	AmountFeeB *big.Int
	RebateFee  *big.Int
	RebateS    *big.Int
	RebateB    *big.Int
	SplitS     *big.Int
}

// TotalS is the net amount of tokenS leaving the owner.
func (s *OrderSettlement) TotalS() *big.Int {
	return new(big.Int).Sub(s.AmountS, s.RebateS)
}

// TotalB is the net amount of tokenB reaching the recipient.
func (s *OrderSettlement) TotalB() *big.Int {
	total := new(big.Int).Sub(s.AmountB, s.AmountFeeB)
	return total.Add(total, s.RebateB)
}

// TotalFee is the net flat fee leaving the owner.
func (s *OrderSettlement) TotalFee() *big.Int {
	return new(big.Int).Sub(s.AmountFee, s.RebateFee)
}

// RingSettlement holds the settlements of the orders of one ring, in ring order.
type RingSettlement struct {
	Index  int
	Orders []OrderSettlement
}

// Result summarises a verification run.
type Result struct {
	RunID string
	// Outcome is one of the Outcome constants.
	Outcome string
	// Skipped is set when the batch carried no expectation.
	Skipped bool
	// Reverted is set when the expected revert happened and nothing else was checked.
	Reverted bool

	Rings       []RingSettlement
	RingsFailed int
	FeePayments []FeePayment
	// FilledAmount is the expected filled tokenS amount per order after the batch.
	FilledAmount map[common.Hash]*big.Int

	// IncompleteAllOrNone lists all-or-none orders the batch leaves partially filled.
	IncompleteAllOrNone []common.Hash

	ExpectedBalances    *balance.Ledger
	ExpectedFeeBalances *balance.Ledger
}
