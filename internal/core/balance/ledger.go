// Package balance provides the balance book used as both the working copy of
// balances during settlement simulation and the baseline it is compared to.
package balance

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Key identifies one balance entry.
type Key struct {
	Owner   common.Address
	Token   common.Address
	Tranche common.Hash
}

// Ledger maps (owner, token, tranche) to an accumulated amount. Absent
// entries read as zero. There is no subtraction primitive: callers add
// negative deltas.
type Ledger struct {
	balances map[Key]*big.Int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[Key]*big.Int)}
}

// Balance returns a copy of the amount held under the key, zero when unknown.
func (l *Ledger) Balance(owner, token common.Address, tranche common.Hash) *big.Int {
	if v, ok := l.balances[Key{Owner: owner, Token: token, Tranche: tranche}]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// IsKnown reports whether an entry was ever added for the key.
func (l *Ledger) IsKnown(owner, token common.Address, tranche common.Hash) bool {
	_, ok := l.balances[Key{Owner: owner, Token: token, Tranche: tranche}]
	return ok
}

// Add adds amount (which may be negative) to the entry.
func (l *Ledger) Add(owner, token common.Address, tranche common.Hash, amount *big.Int) {
	k := Key{Owner: owner, Token: token, Tranche: tranche}
	cur, ok := l.balances[k]
	if !ok {
		cur = new(big.Int)
	}
	l.balances[k] = new(big.Int).Add(cur, amount)
}

// Copy returns an independent deep copy.
func (l *Ledger) Copy() *Ledger {
	out := &Ledger{balances: make(map[Key]*big.Int, len(l.balances))}
	for k, v := range l.balances {
		out.balances[k] = new(big.Int).Set(v)
	}
	return out
}

// Len returns the number of known entries.
func (l *Ledger) Len() int {
	return len(l.balances)
}

// Keys returns all known keys sorted by token, owner, then tranche so that
// diagnostics are reproducible.
func (l *Ledger) Keys() []Key {
	keys := make([]Key, 0, len(l.balances))
	for k := range l.balances {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by token, owner, then tranche.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].Token[:], keys[j].Token[:]); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(keys[i].Owner[:], keys[j].Owner[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].Tranche[:], keys[j].Tranche[:]) < 0
	})
}

// Range calls fn for every entry in Keys order until fn returns false.
func (l *Ledger) Range(fn func(k Key, amount *big.Int) bool) {
	for _, k := range l.Keys() {
		if !fn(k, new(big.Int).Set(l.balances[k])) {
			return
		}
	}
}
