package chainstate

import (
	"context"
	"fmt"
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/ethereum/go-ethereum/common"
)

const (
	addressLen = common.AddressLength
	hashLen    = common.HashLength
)

// Balances returns every stored fungible and tranche balance as a ledger.
// Fungible balances use the zero tranche.
func (s *Store) Balances(ctx context.Context) (*balance.Ledger, error) {
	ledger := balance.NewLedger()

	err := s.db.scan(ctx, []byte{prefixBalance}, func(key, value []byte) error {
		if len(key) != 1+2*addressLen {
			return fmt.Errorf("invalid balance key %x", key)
		}
		token := common.BytesToAddress(key[1 : 1+addressLen])
		owner := common.BytesToAddress(key[1+addressLen:])
		ledger.Add(owner, token, common.Hash{}, new(big.Int).SetBytes(value))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading balances: %w", err)
	}

	err = s.db.scan(ctx, []byte{prefixTrancheBalance}, func(key, value []byte) error {
		if len(key) != 1+2*addressLen+hashLen {
			return fmt.Errorf("invalid tranche balance key %x", key)
		}
		token := common.BytesToAddress(key[1 : 1+addressLen])
		tranche := common.BytesToHash(key[1+addressLen : 1+addressLen+hashLen])
		owner := common.BytesToAddress(key[1+addressLen+hashLen:])
		ledger.Add(owner, token, tranche, new(big.Int).SetBytes(value))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tranche balances: %w", err)
	}
	return ledger, nil
}

// ApplyBalances overwrites the stored balances with every entry of ledger.
// Entries in the zero tranche are fungible balances.
func (s *Store) ApplyBalances(ctx context.Context, ledger *balance.Ledger) error {
	w := s.NewWriter()
	for _, k := range ledger.Keys() {
		amount := ledger.Balance(k.Owner, k.Token, k.Tranche)
		if k.Tranche == (common.Hash{}) {
			w.SetBalance(k.Token, k.Owner, amount)
		} else {
			w.SetTrancheBalance(k.Token, k.Tranche, k.Owner, amount)
		}
	}
	return w.Commit(ctx)
}
