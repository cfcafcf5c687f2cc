package builders

import (
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/ethereum/go-ethereum/common"
)

// OrderBuilder provides a fluent interface for building orders.
type OrderBuilder struct {
	o order.Order
}

// Order creates a new OrderBuilder for an order owned by owner.
func Order(owner common.Address) *OrderBuilder {
	return &OrderBuilder{o: order.Order{Owner: owner}}
}

// Sell sets the token and amount the order sells.
func (b *OrderBuilder) Sell(token common.Address, amount *big.Int) *OrderBuilder {
	b.o.TokenS = token
	b.o.AmountS = amount
	return b
}

// Buy sets the token and amount the order buys.
func (b *OrderBuilder) Buy(token common.Address, amount *big.Int) *OrderBuilder {
	b.o.TokenB = token
	b.o.AmountB = amount
	return b
}

// Fee sets the flat fee paid when the order is fully filled.
func (b *OrderBuilder) Fee(token common.Address, amount *big.Int) *OrderBuilder {
	b.o.FeeToken = token
	b.o.FeeAmount = amount
	return b
}

// P2P sets the tokenS and tokenB fee percentages, which makes the order
// settle peer-to-peer.
func (b *OrderBuilder) P2P(tokenSPercentage, tokenBPercentage uint32) *OrderBuilder {
	b.o.TokenSFeePercentage = tokenSPercentage
	b.o.TokenBFeePercentage = tokenBPercentage
	return b
}

// Wallet attaches a referring wallet taking split percent of the fees.
func (b *OrderBuilder) Wallet(wallet common.Address, split uint32) *OrderBuilder {
	b.o.WalletAddr = &wallet
	b.o.WalletSplitPercentage = split
	return b
}

// Waive sets the waive fee percentage. Negative values redirect part of the
// miner fee to the order owner.
func (b *OrderBuilder) Waive(percentage int32) *OrderBuilder {
	b.o.WaiveFeePercentage = percentage
	return b
}

// Broker sets the broker signing on behalf of the owner.
func (b *OrderBuilder) Broker(broker common.Address) *OrderBuilder {
	b.o.Broker = &broker
	return b
}

// DualAuth requires a dual-author signature from addr.
func (b *OrderBuilder) DualAuth(addr common.Address) *OrderBuilder {
	b.o.DualAuthAddr = &addr
	return b
}

// Recipient sets where bought tokens are sent.
func (b *OrderBuilder) Recipient(addr common.Address) *OrderBuilder {
	b.o.TokenRecipient = &addr
	return b
}

// ValidSince sets the first timestamp the order can be matched at.
func (b *OrderBuilder) ValidSince(ts uint64) *OrderBuilder {
	b.o.ValidSince = ts
	return b
}

// ValidUntil sets the timestamp the order expires at.
func (b *OrderBuilder) ValidUntil(ts uint64) *OrderBuilder {
	b.o.ValidUntil = &ts
	return b
}

// AllOrNone requires the order to be completely filled.
func (b *OrderBuilder) AllOrNone() *OrderBuilder {
	b.o.AllOrNone = true
	return b
}

// Filled sets the tokenS amount already filled before the batch.
func (b *OrderBuilder) Filled(amount *big.Int) *OrderBuilder {
	b.o.FilledAmountS = amount
	return b
}

// SecurityTokenS marks tokenS as an ERC1400 token traded from tranche.
func (b *OrderBuilder) SecurityTokenS(tranche common.Hash) *OrderBuilder {
	b.o.TokenTypeS = order.TokenTypeERC1400
	b.o.TrancheS = &tranche
	return b
}

// Build returns the order. The builder can be reused; each call returns a
// fresh copy.
func (b *OrderBuilder) Build() *order.Order {
	o := b.o
	return &o
}
