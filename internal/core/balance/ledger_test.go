package balance

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
	lrc   = common.HexToAddress("0x00000000000000000000000000000000000001c0")
	weth  = common.HexToAddress("0x0000000000000000000000000000000000000e70")
)

func TestLedgerDefaultsToZero(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, 0, l.Balance(alice, lrc, common.Hash{}).Sign())
	assert.False(t, l.IsKnown(alice, lrc, common.Hash{}))
}

func TestLedgerAddAccumulates(t *testing.T) {
	l := NewLedger()
	l.Add(alice, lrc, common.Hash{}, big.NewInt(100))
	l.Add(alice, lrc, common.Hash{}, big.NewInt(-30))
	l.Add(alice, lrc, common.HexToHash("0x01"), big.NewInt(7))

	assert.Equal(t, big.NewInt(70), l.Balance(alice, lrc, common.Hash{}))
	assert.Equal(t, big.NewInt(7), l.Balance(alice, lrc, common.HexToHash("0x01")))
	assert.True(t, l.IsKnown(alice, lrc, common.Hash{}))
	assert.Equal(t, 2, l.Len())
}

func TestLedgerBalanceIsACopy(t *testing.T) {
	l := NewLedger()
	l.Add(alice, lrc, common.Hash{}, big.NewInt(5))
	b := l.Balance(alice, lrc, common.Hash{})
	b.SetInt64(1000)
	assert.Equal(t, big.NewInt(5), l.Balance(alice, lrc, common.Hash{}))
}

func TestLedgerCopyIsIndependent(t *testing.T) {
	l := NewLedger()
	l.Add(alice, lrc, common.Hash{}, big.NewInt(10))

	c := l.Copy()
	c.Add(alice, lrc, common.Hash{}, big.NewInt(5))
	c.Add(bob, weth, common.Hash{}, big.NewInt(1))

	assert.Equal(t, big.NewInt(10), l.Balance(alice, lrc, common.Hash{}))
	assert.Equal(t, big.NewInt(15), c.Balance(alice, lrc, common.Hash{}))
	assert.False(t, l.IsKnown(bob, weth, common.Hash{}))
}

func TestLedgerKeysSorted(t *testing.T) {
	l := NewLedger()
	l.Add(bob, weth, common.Hash{}, big.NewInt(1))
	l.Add(alice, weth, common.Hash{}, big.NewInt(1))
	l.Add(bob, lrc, common.Hash{}, big.NewInt(1))

	keys := l.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Owner: bob, Token: lrc}, keys[0])
	assert.Equal(t, Key{Owner: bob, Token: weth}, keys[1])
	assert.Equal(t, Key{Owner: alice, Token: weth}, keys[2])

	var visited int
	l.Range(func(k Key, amount *big.Int) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}
