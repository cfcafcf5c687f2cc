package settlement

import (
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/ethereum/go-ethereum/common"
)

// reconcileLedger compares every entry known to either ledger. Missing
// entries read as zero.
func (s *Simulator) reconcileLedger(kind MismatchKind, expected, actual *balance.Ledger) []error {
	if actual == nil {
		actual = balance.NewLedger()
	}
	keys := make(map[balance.Key]struct{}, expected.Len()+actual.Len())
	for _, k := range expected.Keys() {
		keys[k] = struct{}{}
	}
	for _, k := range actual.Keys() {
		keys[k] = struct{}{}
	}

	var mismatches []error
	for _, k := range sortedKeys(keys) {
		want := expected.Balance(k.Owner, k.Token, k.Tranche)
		got := actual.Balance(k.Owner, k.Token, k.Tranche)
		if s.cfg.Tolerance.Equal(want, got) {
			continue
		}
		mismatches = append(mismatches, &MismatchError{
			Kind:     kind,
			Token:    k.Token,
			Owner:    k.Owner,
			Tranche:  k.Tranche,
			Expected: want,
			Actual:   got,
		})
	}
	return mismatches
}

// reconcileFilled compares the filled amount of every order of the batch.
func (s *Simulator) reconcileFilled(batch *Batch, expected, actual map[common.Hash]*big.Int) []error {
	var mismatches []error
	seen := make(map[common.Hash]bool, len(batch.Orders))
	for _, o := range batch.Orders {
		if seen[o.Hash] {
			continue
		}
		seen[o.Hash] = true

		want := expected[o.Hash]
		got := actual[o.Hash]
		if got == nil {
			got = new(big.Int)
		}
		if s.cfg.Tolerance.Equal(want, got) {
			continue
		}
		mismatches = append(mismatches, &MismatchError{
			Kind:      MismatchFilled,
			Token:     o.TokenS,
			Owner:     o.Owner,
			OrderHash: o.Hash,
			Expected:  new(big.Int).Set(want),
			Actual:    new(big.Int).Set(got),
		})
	}
	return mismatches
}

func sortedKeys(set map[balance.Key]struct{}) []balance.Key {
	keys := make([]balance.Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	balance.SortKeys(keys)
	return keys
}
