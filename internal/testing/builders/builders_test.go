package builders

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	miner = common.HexToAddress("0x00000000000000000000000000000000000003e5")
	lrc   = common.HexToAddress("0x00000000000000000000000000000000000001c0")
	weth  = common.HexToAddress("0x0000000000000000000000000000000000000e70")
)

func TestOrderBuilder(t *testing.T) {
	wallet := common.HexToAddress("0x0000000000000000000000000000000000000a11")
	o := Order(alice).
		Sell(lrc, big.NewInt(100)).
		Buy(weth, big.NewInt(10)).
		Fee(lrc, big.NewInt(1)).
		Wallet(wallet, 20).
		Waive(-100).
		ValidUntil(42).
		AllOrNone().
		Build()

	assert.Equal(t, alice, o.Owner)
	assert.Equal(t, lrc, o.TokenS)
	assert.Equal(t, int64(10), o.AmountB.Int64())
	assert.True(t, o.HasWallet())
	assert.Equal(t, uint32(20), o.WalletSplitPercentage)
	assert.Equal(t, int32(-100), o.WaiveFeePercentage)
	require.NotNil(t, o.ValidUntil)
	assert.Equal(t, uint64(42), *o.ValidUntil)
	assert.True(t, o.AllOrNone)
	assert.False(t, o.IsP2P())
}

func TestOrderBuilderReturnsCopies(t *testing.T) {
	b := Order(alice).Sell(lrc, big.NewInt(1)).Buy(weth, big.NewInt(1))
	first := b.Build()
	second := b.P2P(10, 0).Build()

	assert.False(t, first.IsP2P())
	assert.True(t, second.IsP2P())
}

func TestBatchBuilderSharesOrders(t *testing.T) {
	a := Order(alice).Sell(lrc, big.NewInt(100)).Buy(weth, big.NewInt(10)).Build()
	b := Order(bob).Sell(weth, big.NewInt(10)).Buy(lrc, big.NewInt(100)).P2P(10, 0).Build()

	batch := Batch("two rings").
		Miner(miner).
		Ring(Fill(a, "0.5"), Fill(b, "0.5").WithMargin(big.NewInt(3))).
		FailingRing(b, a).
		Build()

	require.Len(t, batch.Orders, 2)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}}, batch.Rings)
	assert.Equal(t, miner, batch.Recipient())

	require.NotNil(t, batch.Expected)
	require.Len(t, batch.Expected.Rings, 2)
	first := batch.Expected.Rings[0]
	assert.Equal(t, "0.5", first.Orders[0].FilledFraction.String())
	assert.False(t, first.Orders[0].P2P)
	assert.True(t, first.Orders[1].P2P)
	assert.Equal(t, int64(3), first.Orders[1].Margin.Int64())
	assert.True(t, batch.Expected.Rings[1].Fail)
}

func TestBatchBuilderReverts(t *testing.T) {
	batch := Batch("revert").Origin(miner).Reverts("INVALID_SIG").Build()
	assert.True(t, batch.Expected.Revert)
	assert.Equal(t, "INVALID_SIG", batch.Expected.RevertMessage)
	assert.Nil(t, batch.FeeRecipient)
	assert.Equal(t, miner, batch.Recipient())
}
