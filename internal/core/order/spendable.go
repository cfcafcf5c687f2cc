package order

import "math/big"

// Spendable caches the amount an order may spend of one asset together with
// the amount already reserved by pending fills.
//
// The cache is filled lazily on first use and only ever invalidated by a
// reservation reset. Amount - Reserved must never become negative.
type Spendable struct {
	Initialized bool
	Amount      *big.Int
	Reserved    *big.Int

	// InitialAmount is the ledger figure seen at initialization.
	InitialAmount *big.Int
}

// NewSpendable returns an uninitialized cache with nothing reserved.
func NewSpendable() *Spendable {
	return &Spendable{
		Amount:   new(big.Int),
		Reserved: new(big.Int),
	}
}

// Init stores the ledger-derived amount and marks the cache as initialized.
func (s *Spendable) Init(amount *big.Int) {
	s.Amount = new(big.Int).Set(amount)
	s.InitialAmount = new(big.Int).Set(amount)
	s.Initialized = true
}

// Available returns Amount - Reserved.
func (s *Spendable) Available() *big.Int {
	return new(big.Int).Sub(s.Amount, s.Reserved)
}

// Reserve adds amount to the reserved total.
func (s *Spendable) Reserve(amount *big.Int) {
	s.Reserved = new(big.Int).Add(s.Reserved, amount)
}

// ResetReserved clears the reserved total. The cached amount is kept.
func (s *Spendable) ResetReserved() {
	s.Reserved = new(big.Int)
}

// EnsureSpendables allocates the spendable caches of an order. The fee cache
// shares the tokenS cache when both legs draw on the same fungible balance.
func EnsureSpendables(o *Order) {
	if o.TokenSpendableS == nil {
		o.TokenSpendableS = NewSpendable()
	}
	if o.BrokerSpendableS == nil {
		o.BrokerSpendableS = NewSpendable()
	}
	sharedFee := o.FeeToken == o.TokenS && o.TokenTypeFee == o.TokenTypeS && o.TokenTypeS == TokenTypeERC20
	if o.TokenSpendableFee == nil {
		if sharedFee {
			o.TokenSpendableFee = o.TokenSpendableS
		} else {
			o.TokenSpendableFee = NewSpendable()
		}
	}
	if o.BrokerSpendableFee == nil {
		if sharedFee {
			o.BrokerSpendableFee = o.BrokerSpendableS
		} else {
			o.BrokerSpendableFee = NewSpendable()
		}
	}
}
