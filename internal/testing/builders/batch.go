package builders

import (
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderFill is the expected fill of one order in one ring.
type OrderFill struct {
	Order    *order.Order
	Fraction decimal.Decimal
	Margin   *big.Int
}

// Fill expects o to be filled by fraction, given as a decimal string, in
// the ring it is part of.
func Fill(o *order.Order, fraction string) OrderFill {
	return OrderFill{Order: o, Fraction: decimal.RequireFromString(fraction)}
}

// WithMargin additionally expects the order to leave margin.
func (f OrderFill) WithMargin(margin *big.Int) OrderFill {
	f.Margin = margin
	return f
}

// BatchBuilder provides a fluent interface for building batches.
type BatchBuilder struct {
	description  string
	feeRecipient *common.Address
	origin       common.Address
	miner        *common.Address
	miningHash   common.Hash

	orders []*order.Order
	index  map[*order.Order]int
	rings  [][]int
	expect []settlement.RingExpectation

	revert        bool
	revertMessage string
}

// Batch creates a new BatchBuilder.
func Batch(description string) *BatchBuilder {
	return &BatchBuilder{
		description: description,
		index:       make(map[*order.Order]int),
	}
}

// Miner sets both the transaction origin and the fee recipient.
func (b *BatchBuilder) Miner(miner common.Address) *BatchBuilder {
	b.origin = miner
	b.feeRecipient = &miner
	b.miner = &miner
	return b
}

// Origin sets the transaction origin only.
func (b *BatchBuilder) Origin(origin common.Address) *BatchBuilder {
	b.origin = origin
	return b
}

// FeeRecipient sets the address receiving miner fees and margin.
func (b *BatchBuilder) FeeRecipient(recipient common.Address) *BatchBuilder {
	b.feeRecipient = &recipient
	return b
}

// MiningHash sets the hash dual-auth signatures sign.
func (b *BatchBuilder) MiningHash(h common.Hash) *BatchBuilder {
	b.miningHash = h
	return b
}

// Ring adds a ring of orders, in ring order, with the fill each one is
// expected to get.
func (b *BatchBuilder) Ring(fills ...OrderFill) *BatchBuilder {
	ring := make([]int, len(fills))
	exp := settlement.RingExpectation{Orders: make([]settlement.OrderExpectation, len(fills))}
	for i, f := range fills {
		ring[i] = b.add(f.Order)
		exp.Orders[i] = settlement.OrderExpectation{
			FilledFraction: f.Fraction,
			P2P:            f.Order.IsP2P(),
			Margin:         f.Margin,
		}
	}
	b.rings = append(b.rings, ring)
	b.expect = append(b.expect, exp)
	return b
}

// FailingRing adds a ring that is expected not to settle.
func (b *BatchBuilder) FailingRing(orders ...*order.Order) *BatchBuilder {
	ring := make([]int, len(orders))
	for i, o := range orders {
		ring[i] = b.add(o)
	}
	b.rings = append(b.rings, ring)
	b.expect = append(b.expect, settlement.RingExpectation{Fail: true})
	return b
}

// Reverts expects the whole batch to revert with message.
func (b *BatchBuilder) Reverts(message string) *BatchBuilder {
	b.revert = true
	b.revertMessage = message
	return b
}

func (b *BatchBuilder) add(o *order.Order) int {
	if idx, ok := b.index[o]; ok {
		return idx
	}
	b.index[o] = len(b.orders)
	b.orders = append(b.orders, o)
	return len(b.orders) - 1
}

// Build constructs the batch with its expectation.
func (b *BatchBuilder) Build() *settlement.Batch {
	return &settlement.Batch{
		Description:       b.description,
		FeeRecipient:      b.feeRecipient,
		TransactionOrigin: b.origin,
		Miner:             b.miner,
		MiningHash:        b.miningHash,
		Rings:             b.rings,
		Orders:            b.orders,
		Expected: &settlement.Expectation{
			Revert:        b.revert,
			RevertMessage: b.revertMessage,
			Rings:         b.expect,
		},
	}
}
