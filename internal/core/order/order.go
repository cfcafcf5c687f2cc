package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenType identifies the token standard of one order leg.
type TokenType uint8

const (
	// TokenTypeERC20 is a plain fungible token.
	TokenTypeERC20 TokenType = 0
	// TokenTypeERC1400 is a tranche-partitioned security token.
	TokenTypeERC1400 TokenType = 1
)

// String returns the token standard name.
func (t TokenType) String() string {
	switch t {
	case TokenTypeERC20:
		return "ERC20"
	case TokenTypeERC1400:
		return "ERC1400"
	default:
		return "unknown"
	}
}

// Order is an intent to exchange AmountS of TokenS for AmountB of TokenB.
//
// Optional fields are pointers or nil-able slices: nil means "not supplied"
// and Canonical fills in the default used for hashing. The hashed fields are
// immutable once Hash has been computed; the runtime state below them is
// mutated by the validator and the settlement simulator.
type Order struct {
	Version uint32

	Owner   common.Address
	TokenS  common.Address
	TokenB  common.Address
	AmountS *big.Int
	AmountB *big.Int

	ValidSince uint64
	ValidUntil *uint64

	DualAuthAddr     *common.Address
	Broker           *common.Address
	OrderInterceptor *common.Address
	WalletAddr       *common.Address
	TokenRecipient   *common.Address

	FeeToken              common.Address
	FeeAmount             *big.Int
	WaiveFeePercentage    int32
	TokenSFeePercentage   uint32
	TokenBFeePercentage   uint32
	WalletSplitPercentage uint32
	AllOrNone             bool

	TokenTypeS    TokenType
	TokenTypeB    TokenType
	TokenTypeFee  TokenType
	TrancheS      *common.Hash
	TrancheB      *common.Hash
	TransferDataS []byte

	// Multihash-encoded signature blobs.
	Sig         []byte
	DualAuthSig []byte

	// Runtime state.
	Hash              common.Hash
	BrokerInterceptor common.Address
	FilledAmountS     *big.Int

	TokenSpendableS    *Spendable
	TokenSpendableFee  *Spendable
	BrokerSpendableS   *Spendable
	BrokerSpendableFee *Spendable

	validity Validity
}

// Validity returns the accumulated validation state of the order.
func (o *Order) Validity() *Validity {
	return &o.validity
}

// Valid reports whether every check run so far has passed.
func (o *Order) Valid() bool {
	return o.validity.Valid()
}

// IsP2P reports whether the order pays fees as a percentage of the traded tokens.
func (o *Order) IsP2P() bool {
	return o.TokenSFeePercentage > 0 || o.TokenBFeePercentage > 0
}

// HasWallet reports whether a referring wallet is attached to the order.
func (o *Order) HasWallet() bool {
	return isSet(o.WalletAddr)
}

// HasBroker reports whether a broker other than the default is configured.
func (o *Order) HasBroker() bool {
	return isSet(o.Broker)
}

// HasDualAuth reports whether a dual-authoring address is configured.
func (o *Order) HasDualAuth() bool {
	return isSet(o.DualAuthAddr)
}

// HasBrokerInterceptor reports whether broker allowance limits apply.
func (o *Order) HasBrokerInterceptor() bool {
	return o.BrokerInterceptor != (common.Address{})
}

// BrokerAddress returns the broker the order is signed by, defaulting to
// the owner. The hashed Broker field is never rewritten.
func (o *Order) BrokerAddress() common.Address {
	if !o.HasBroker() {
		return o.Owner
	}
	return *o.Broker
}

// Wallet returns the wallet address or the zero address.
func (o *Order) Wallet() common.Address {
	if o.WalletAddr == nil {
		return common.Address{}
	}
	return *o.WalletAddr
}

// Recipient returns the address receiving tokenB, defaulting to the owner.
func (o *Order) Recipient() common.Address {
	if isSet(o.TokenRecipient) {
		return *o.TokenRecipient
	}
	return o.Owner
}

// Filled returns the amount of tokenS already filled, zero when unknown.
func (o *Order) Filled() *big.Int {
	if o.FilledAmountS == nil {
		return new(big.Int)
	}
	return o.FilledAmountS
}

// Fee returns the flat fee amount, zero when absent.
func (o *Order) Fee() *big.Int {
	if o.FeeAmount == nil {
		return new(big.Int)
	}
	return o.FeeAmount
}

// TrancheSOrDefault returns trancheS or the zero tranche.
func (o *Order) TrancheSOrDefault() common.Hash {
	if o.TrancheS == nil {
		return common.Hash{}
	}
	return *o.TrancheS
}

// TrancheBOrDefault returns trancheB or the zero tranche.
func (o *Order) TrancheBOrDefault() common.Hash {
	if o.TrancheB == nil {
		return common.Hash{}
	}
	return *o.TrancheB
}

func isSet(addr *common.Address) bool {
	return addr != nil && *addr != (common.Address{})
}
