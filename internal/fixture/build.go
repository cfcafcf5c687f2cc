package fixture

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidFixture is returned for fixtures that cannot be turned into a batch.
var ErrInvalidFixture = errors.New("invalid fixture")

// Built is a fixture turned into the values the verifier works on.
type Built struct {
	Batch *settlement.Batch
	// Report is nil when the fixture carries none.
	Report *settlement.Report
	// BurnRates holds the packed burn rates of the fixture state.
	BurnRates burnrate.StaticTable
	// Now is the timestamp orders are validated at.
	Now uint64

	state *State
}

// Build hashes and signs every order under domain and converts the fixture.
func (f *File) Build(domain order.Domain) (*Built, error) {
	verifier := crypto.NewMultiHashVerifier()

	orders := make([]*order.Order, len(f.Orders))
	for i := range f.Orders {
		o, err := f.Orders[i].build(domain, verifier)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d: %v", ErrInvalidFixture, i, err)
		}
		orders[i] = o
	}

	batch := &settlement.Batch{
		Description:       f.Description,
		FeeRecipient:      f.FeeRecipient,
		TransactionOrigin: f.TransactionOrigin,
		Miner:             f.Miner,
		Rings:             f.Rings,
		Orders:            orders,
	}
	if f.MiningHash != nil {
		batch.MiningHash = *f.MiningHash
	} else {
		batch.MiningHash = defaultMiningHash(orders)
	}

	for i := range f.Orders {
		signer := f.Orders[i].DualAuthSigner
		if signer == nil {
			continue
		}
		sig, err := signer.sign(verifier, batch.MiningHash)
		if err != nil {
			return nil, fmt.Errorf("%w: dual auth of order %d: %v", ErrInvalidFixture, i, err)
		}
		orders[i].DualAuthSig = sig
	}

	for r, ring := range f.Rings {
		for _, idx := range ring {
			if idx < 0 || idx >= len(orders) {
				return nil, fmt.Errorf("%w: ring %d references order %d of %d", ErrInvalidFixture, r, idx, len(orders))
			}
		}
	}

	if f.Expected != nil {
		exp, err := f.Expected.build(f.Rings, orders)
		if err != nil {
			return nil, err
		}
		batch.Expected = exp
	}

	built := &Built{
		Batch:     batch,
		BurnRates: burnrate.StaticTable{},
		Now:       f.Now,
		state:     f.State,
	}
	if f.State != nil {
		for _, br := range f.State.BurnRates {
			built.BurnRates[br.Token] = burnrate.Pack(br.P2P, br.Standard)
		}
	}
	if f.Report != nil {
		report, err := f.Report.build(orders, f.State)
		if err != nil {
			return nil, err
		}
		built.Report = report
	}
	return built, nil
}

// HasState reports whether the fixture carries chain state to seed.
func (b *Built) HasState() bool {
	return b.state != nil
}

// Seed writes the fixture chain state into store.
func (b *Built) Seed(ctx context.Context, store *chainstate.Store) error {
	if b.state == nil {
		return nil
	}
	s := b.state
	w := store.NewWriter()
	for _, e := range s.Balances {
		if e.Tranche == (common.Hash{}) {
			w.SetBalance(e.Token, e.Owner, amount(e.Amount))
		} else {
			w.SetTrancheBalance(e.Token, e.Tranche, e.Owner, amount(e.Amount))
		}
	}
	for _, e := range s.Allowances {
		w.SetAllowance(e.Token, e.Owner, e.Spender, amount(e.Amount))
	}
	for _, e := range s.Brokers {
		w.RegisterBroker(e.Owner, e.Broker, e.Interceptor)
	}
	for _, e := range s.InterceptorAllowances {
		w.SetInterceptorAllowance(e.Interceptor, e.Owner, e.Broker, e.Token, amount(e.Amount))
	}
	for _, e := range s.Operators {
		if e.Tranche == nil {
			w.SetOperator(e.Token, e.Operator, e.Owner, true)
		} else {
			w.SetTrancheOperator(e.Token, *e.Tranche, e.Operator, e.Owner, true)
		}
	}
	for _, idx := range s.RegisteredOrders {
		o, err := b.order(idx)
		if err != nil {
			return err
		}
		w.RegisterOrder(o.BrokerAddress(), o.Hash)
	}
	for _, idx := range s.SubmittedOrders {
		o, err := b.order(idx)
		if err != nil {
			return err
		}
		w.SubmitOrder(o.Hash)
	}
	for token, packed := range b.BurnRates {
		w.SetBurnRate(token, packed)
	}
	return w.Commit(ctx)
}

func (b *Built) order(idx int) (*order.Order, error) {
	if idx < 0 || idx >= len(b.Batch.Orders) {
		return nil, fmt.Errorf("%w: state references order %d of %d", ErrInvalidFixture, idx, len(b.Batch.Orders))
	}
	return b.Batch.Orders[idx], nil
}

func (fo *Order) build(domain order.Domain, verifier *crypto.MultiHashVerifier) (*order.Order, error) {
	if fo.AmountS == nil || fo.AmountB == nil {
		return nil, errors.New("amountS and amountB are required")
	}
	o := &order.Order{
		Version:               fo.Version,
		TokenS:                fo.TokenS,
		TokenB:                fo.TokenB,
		AmountS:               amount(fo.AmountS),
		AmountB:               amount(fo.AmountB),
		ValidSince:            fo.ValidSince,
		ValidUntil:            fo.ValidUntil,
		DualAuthAddr:          fo.DualAuthAddr,
		Broker:                fo.Broker,
		OrderInterceptor:      fo.OrderInterceptor,
		WalletAddr:            fo.WalletAddr,
		TokenRecipient:        fo.TokenRecipient,
		FeeToken:              fo.FeeToken,
		FeeAmount:             optionalAmount(fo.FeeAmount),
		WaiveFeePercentage:    fo.WaiveFeePercentage,
		TokenSFeePercentage:   fo.TokenSFeePercentage,
		TokenBFeePercentage:   fo.TokenBFeePercentage,
		WalletSplitPercentage: fo.WalletSplitPercentage,
		AllOrNone:             fo.AllOrNone,
		TokenTypeS:            fo.TokenTypeS,
		TokenTypeB:            fo.TokenTypeB,
		TokenTypeFee:          fo.TokenTypeFee,
		TrancheS:              fo.TrancheS,
		TrancheB:              fo.TrancheB,
		TransferDataS:         fo.TransferDataS,
		FilledAmountS:         optionalAmount(fo.FilledAmountS),
		Sig:                   fo.Sig,
		DualAuthSig:           fo.DualAuthSig,
	}

	var signerKey *ecdsa.PrivateKey
	if fo.Signer != nil {
		key, err := fo.Signer.key()
		if err != nil {
			return nil, err
		}
		signerKey = key
	}
	switch {
	case fo.Owner != nil:
		o.Owner = *fo.Owner
	case signerKey != nil:
		o.Owner = crypto.AddressOf(signerKey)
	default:
		return nil, errors.New("owner or signer is required")
	}
	if fo.DualAuthSigner != nil {
		key, err := fo.DualAuthSigner.key()
		if err != nil {
			return nil, fmt.Errorf("dual auth signer: %w", err)
		}
		addr := crypto.AddressOf(key)
		o.DualAuthAddr = &addr
	}

	if err := order.UpdateHash(o, domain); err != nil {
		return nil, err
	}
	if fo.Signer != nil {
		sig, err := fo.Signer.sign(verifier, o.Hash)
		if err != nil {
			return nil, err
		}
		o.Sig = sig
	}
	return o, nil
}

func (s *Signer) key() (*ecdsa.PrivateKey, error) {
	switch {
	case s.PrivateKey != "":
		return crypto.KeyFromHex(s.PrivateKey)
	case s.Seed != "":
		return crypto.KeyFromSeed(s.Seed)
	default:
		return nil, errors.New("signer needs a seed or a private key")
	}
}

// sign returns the multihash signature of hash, or nil for algorithm "none".
func (s *Signer) sign(verifier *crypto.MultiHashVerifier, hash common.Hash) ([]byte, error) {
	algorithm, err := crypto.ParseSignAlgorithm(s.Algorithm)
	if err != nil {
		return nil, err
	}
	if algorithm == crypto.AlgorithmNone {
		return nil, nil
	}
	key, err := s.key()
	if err != nil {
		return nil, err
	}
	return verifier.Sign(algorithm, hash, key)
}

func (e *Expectation) build(rings [][]int, orders []*order.Order) (*settlement.Expectation, error) {
	exp := &settlement.Expectation{
		Revert:        e.Revert,
		RevertMessage: e.RevertMessage,
		Rings:         make([]settlement.RingExpectation, len(e.Rings)),
	}
	for r, re := range e.Rings {
		exp.Rings[r].Fail = re.Fail
		if re.Fail {
			continue
		}
		if r >= len(rings) || len(re.Orders) != len(rings[r]) {
			return nil, fmt.Errorf("%w: ring %d expectation does not match the ring", ErrInvalidFixture, r)
		}
		exp.Rings[r].Orders = make([]settlement.OrderExpectation, len(re.Orders))
		for i, oe := range re.Orders {
			p2p := orders[rings[r][i]].IsP2P()
			if oe.P2P != nil {
				p2p = *oe.P2P
			}
			exp.Rings[r].Orders[i] = settlement.OrderExpectation{
				FilledFraction: oe.FilledFraction,
				P2P:            p2p,
				Margin:         optionalAmount(oe.Margin),
			}
		}
	}
	return exp, nil
}

func (r *Report) build(orders []*order.Order, state *State) (*settlement.Report, error) {
	report := &settlement.Report{
		Reverted:          r.Reverted,
		RevertMessage:     r.RevertMessage,
		BalancesBefore:    ledgerOf(r.BalancesBefore),
		BalancesAfter:     ledgerOf(r.BalancesAfter),
		FeeBalancesBefore: ledgerOf(r.FeeBalancesBefore),
		FeeBalancesAfter:  ledgerOf(r.FeeBalancesAfter),
		FilledAmounts:     make(map[common.Hash]*big.Int, len(r.FilledAmounts)),
	}
	if r.BalancesBefore == nil && state != nil {
		report.BalancesBefore = ledgerOf(state.Balances)
	}
	for _, fe := range r.FilledAmounts {
		if fe.Order < 0 || fe.Order >= len(orders) {
			return nil, fmt.Errorf("%w: filled amount of order %d of %d", ErrInvalidFixture, fe.Order, len(orders))
		}
		report.FilledAmounts[orders[fe.Order].Hash] = amount(fe.Amount)
	}
	return report, nil
}

func ledgerOf(entries []BalanceEntry) *balance.Ledger {
	l := balance.NewLedger()
	for _, e := range entries {
		l.Add(e.Owner, e.Token, e.Tranche, amount(e.Amount))
	}
	return l
}

// defaultMiningHash is the keccak256 of the concatenated order hashes.
func defaultMiningHash(orders []*order.Order) common.Hash {
	data := make([]byte, 0, len(orders)*common.HashLength)
	for _, o := range orders {
		data = append(data, o.Hash.Bytes()...)
	}
	return gethCrypto.Keccak256Hash(data)
}

func amount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(v))
}

func optionalAmount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return amount(v)
}
