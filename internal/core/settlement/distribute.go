package settlement

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// rebateRate is the share of burned fees returned to the paying order. The
// protocol reserves it but currently never grants anything.
const rebateRate = 0

// Waiver is the fee waiver declared by one order of a ring.
type Waiver struct {
	Owner      common.Address
	Percentage int32
}

// DistributionParams describes one fee to split between wallet, miner,
// burn holder and ring participants.
type DistributionParams struct {
	Token common.Address
	Gross *big.Int

	Wallet                common.Address
	HasWallet             bool
	WalletSplitPercentage uint32
	P2P                   bool
	WaiveFeePercentage    int32

	// BurnRate is the already selected half of the packed token rate.
	BurnRate uint32
	Base     uint32

	// Ring lists the waivers of every order in the ring, the payer included.
	Ring []Waiver

	MinerRecipient common.Address
	BurnHolder     common.Address
}

// Distribution is the breakdown of one distributed fee.
type Distribution struct {
	Gross *big.Int

	WalletFee    *big.Int
	WalletBurn   *big.Int
	WalletRebate *big.Int
	WalletNet    *big.Int

	// MinerFee is the miner share after waiving, MinerNet after burning.
	MinerFee    *big.Int
	MinerBurn   *big.Int
	MinerRebate *big.Int
	MinerNet    *big.Int

	Redirected    []FeePayment
	MinerResidual *big.Int
	Burn          *big.Int

	// Rebate is the part of Gross the payer does not pay after all.
	Rebate *big.Int

	// Payments are the strictly positive fee payments, in emission order.
	Payments []FeePayment
}

// RedirectedTotal sums the amounts paid to orders with a negative waiver.
func (d *Distribution) RedirectedTotal() *big.Int {
	total := new(big.Int)
	for _, p := range d.Redirected {
		total.Add(total, p.Amount)
	}
	return total
}

// CheckConservation verifies that every unit of Gross is accounted for.
func (d *Distribution) CheckConservation() error {
	sum := new(big.Int).Add(d.WalletNet, d.MinerResidual)
	sum.Add(sum, d.Burn)
	sum.Add(sum, d.RedirectedTotal())
	sum.Add(sum, d.Rebate)
	if sum.Cmp(d.Gross) != 0 {
		return fmt.Errorf("%w: distributed %s of %s", ErrConservation, sum, d.Gross)
	}
	if d.MinerResidual.Sign() < 0 {
		return fmt.Errorf("%w: redirected %s exceeds miner fee %s", ErrConservation, d.RedirectedTotal(), d.MinerNet)
	}
	return nil
}

// Distribute splits a fee the way ring settlement does:
//
//  1. walletFee = gross * walletSplit / 100, minerFee = gross - walletFee
//  2. a positive waiver scales minerFee by (base - waive) / base, a negative one zeroes it
//  3. both shares burn burnRate / base of themselves
//  4. every ring order with a negative waiver takes -waive / base of the miner share left after burning
//  5. the miner keeps what is left, the payer keeps what nobody received
//
// Each redirected share is floored on its own and the miner residual is
// minerNet minus their sum, so rounding dust stays with the miner and no
// unit of Gross goes unaccounted. Peer-to-peer orders without a wallet pay
// nothing at all. Redirecting more than minerNet fails with ErrConservation;
// Verify rejects such rings with ErrInvalidBatch before distributing.
func Distribute(p DistributionParams) (*Distribution, error) {
	d := &Distribution{
		Gross:         new(big.Int).Set(p.Gross),
		WalletFee:     new(big.Int),
		WalletBurn:    new(big.Int),
		WalletRebate:  new(big.Int),
		WalletNet:     new(big.Int),
		MinerFee:      new(big.Int),
		MinerBurn:     new(big.Int),
		MinerRebate:   new(big.Int),
		MinerNet:      new(big.Int),
		MinerResidual: new(big.Int),
		Burn:          new(big.Int),
		Rebate:        new(big.Int),
	}
	if p.Gross.Sign() == 0 {
		return d, nil
	}
	if p.Base == 0 {
		return nil, fmt.Errorf("fee percentage base must be positive")
	}
	base := big.NewInt(int64(p.Base))

	amount := new(big.Int).Set(p.Gross)
	if p.P2P && !p.HasWallet {
		amount.SetInt64(0)
	}

	d.WalletFee = mulDiv(amount, int64(p.WalletSplitPercentage), big.NewInt(100))
	d.MinerFee = new(big.Int).Sub(amount, d.WalletFee)
	switch {
	case p.WaiveFeePercentage > 0:
		d.MinerFee = mulDiv(d.MinerFee, int64(p.Base)-int64(p.WaiveFeePercentage), base)
	case p.WaiveFeePercentage < 0:
		d.MinerFee = new(big.Int)
	}

	d.MinerBurn = mulDiv(d.MinerFee, int64(p.BurnRate), base)
	d.MinerRebate = mulDiv(d.MinerFee, rebateRate, base)
	d.MinerNet = new(big.Int).Sub(d.MinerFee, d.MinerBurn)
	d.MinerNet.Sub(d.MinerNet, d.MinerRebate)

	d.WalletBurn = mulDiv(d.WalletFee, int64(p.BurnRate), base)
	d.WalletRebate = mulDiv(d.WalletFee, rebateRate, base)
	d.WalletNet = new(big.Int).Sub(d.WalletFee, d.WalletBurn)
	d.WalletNet.Sub(d.WalletNet, d.WalletRebate)

	d.MinerResidual = new(big.Int).Set(d.MinerNet)
	if d.MinerNet.Sign() > 0 {
		for _, w := range p.Ring {
			if w.Percentage >= 0 {
				continue
			}
			share := mulDiv(d.MinerNet, -int64(w.Percentage), base)
			d.Redirected = append(d.Redirected, FeePayment{Token: p.Token, Owner: w.Owner, Amount: share})
			d.MinerResidual.Sub(d.MinerResidual, share)
		}
	}

	d.Burn = new(big.Int).Add(d.MinerBurn, d.WalletBurn)

	paid := new(big.Int).Add(d.WalletNet, d.MinerNet)
	paid.Add(paid, d.Burn)
	d.Rebate = new(big.Int).Sub(d.Gross, paid)

	for _, r := range d.Redirected {
		d.Payments = appendPayment(d.Payments, r.Token, r.Owner, r.Amount)
	}
	d.Payments = appendPayment(d.Payments, p.Token, p.Wallet, d.WalletNet)
	d.Payments = appendPayment(d.Payments, p.Token, p.MinerRecipient, d.MinerResidual)
	d.Payments = appendPayment(d.Payments, p.Token, p.BurnHolder, d.Burn)

	if err := d.CheckConservation(); err != nil {
		return nil, err
	}
	return d, nil
}

func appendPayment(payments []FeePayment, token, owner common.Address, amount *big.Int) []FeePayment {
	if amount.Sign() <= 0 {
		return payments
	}
	return append(payments, FeePayment{Token: token, Owner: owner, Amount: new(big.Int).Set(amount)})
}

// mulDiv returns floor(v * num / den) for non-negative operands.
func mulDiv(v *big.Int, num int64, den *big.Int) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(num))
	return out.Quo(out, den)
}
