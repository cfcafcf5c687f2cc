package order

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain is the EIP-712 signing domain orders are hashed under.
type Domain struct {
	Name    string
	Version string
}

// DefaultDomain is the domain used by protocol version 2 settlement contracts.
var DefaultDomain = Domain{Name: "Loopring Protocol", Version: "2"}

// Canonical holds every hashed order field with defaults filled in. Two
// orders with the same semantic content have equal Canonical values no
// matter which optional fields were supplied explicitly.
type Canonical struct {
	AmountS               *big.Int
	AmountB               *big.Int
	FeeAmount             *big.Int
	ValidSince            uint64
	ValidUntil            uint64
	Owner                 common.Address
	TokenS                common.Address
	TokenB                common.Address
	DualAuthAddr          common.Address
	Broker                common.Address
	OrderInterceptor      common.Address
	Wallet                common.Address
	TokenRecipient        common.Address
	FeeToken              common.Address
	WalletSplitPercentage uint32
	TokenSFeePercentage   uint32
	TokenBFeePercentage   uint32
	AllOrNone             bool
	TokenTypeS            TokenType
	TokenTypeB            TokenType
	TokenTypeFee          TokenType
	TrancheS              common.Hash
	TrancheB              common.Hash
	TransferDataS         []byte
}

// Canonical derives the zero-filled field values used for hashing.
func (o *Order) Canonical() Canonical {
	c := Canonical{
		AmountS:               bigOrZero(o.AmountS),
		AmountB:               bigOrZero(o.AmountB),
		FeeAmount:             bigOrZero(o.FeeAmount),
		ValidSince:            o.ValidSince,
		Owner:                 o.Owner,
		TokenS:                o.TokenS,
		TokenB:                o.TokenB,
		DualAuthAddr:          addrOrZero(o.DualAuthAddr),
		Broker:                addrOrZero(o.Broker),
		OrderInterceptor:      addrOrZero(o.OrderInterceptor),
		Wallet:                addrOrZero(o.WalletAddr),
		TokenRecipient:        o.Recipient(),
		FeeToken:              o.FeeToken,
		WalletSplitPercentage: o.WalletSplitPercentage,
		TokenSFeePercentage:   o.TokenSFeePercentage,
		TokenBFeePercentage:   o.TokenBFeePercentage,
		AllOrNone:             o.AllOrNone,
		TokenTypeS:            o.TokenTypeS,
		TokenTypeB:            o.TokenTypeB,
		TokenTypeFee:          o.TokenTypeFee,
		TrancheS:              o.TrancheSOrDefault(),
		TrancheB:              o.TrancheBOrDefault(),
		TransferDataS:         []byte{},
	}
	if o.ValidUntil != nil {
		c.ValidUntil = *o.ValidUntil
	}
	if len(o.TransferDataS) > 0 {
		c.TransferDataS = common.CopyBytes(o.TransferDataS)
	}
	return c
}

var orderTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
	},
	"Order": []apitypes.Type{
		{Name: "amountS", Type: "uint256"},
		{Name: "amountB", Type: "uint256"},
		{Name: "feeAmount", Type: "uint256"},
		{Name: "validSince", Type: "uint256"},
		{Name: "validUntil", Type: "uint256"},
		{Name: "owner", Type: "address"},
		{Name: "tokenS", Type: "address"},
		{Name: "tokenB", Type: "address"},
		{Name: "dualAuthAddr", Type: "address"},
		{Name: "broker", Type: "address"},
		{Name: "orderInterceptor", Type: "address"},
		{Name: "wallet", Type: "address"},
		{Name: "tokenRecipient", Type: "address"},
		{Name: "feeToken", Type: "address"},
		{Name: "walletSplitPercentage", Type: "uint16"},
		{Name: "tokenSFeePercentage", Type: "uint16"},
		{Name: "tokenBFeePercentage", Type: "uint16"},
		{Name: "allOrNone", Type: "bool"},
		{Name: "tokenTypeS", Type: "uint8"},
		{Name: "tokenTypeB", Type: "uint8"},
		{Name: "tokenTypeFee", Type: "uint8"},
		{Name: "trancheS", Type: "bytes32"},
		{Name: "trancheB", Type: "bytes32"},
		{Name: "transferDataS", Type: "bytes"},
	},
}

// TypedData builds the EIP-712 typed data structure for the canonical order.
func (c Canonical) TypedData(domain Domain) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:    domain.Name,
			Version: domain.Version,
		},
		Message: apitypes.TypedDataMessage{
			"amountS":               c.AmountS,
			"amountB":               c.AmountB,
			"feeAmount":             c.FeeAmount,
			"validSince":            new(big.Int).SetUint64(c.ValidSince),
			"validUntil":            new(big.Int).SetUint64(c.ValidUntil),
			"owner":                 c.Owner.Hex(),
			"tokenS":                c.TokenS.Hex(),
			"tokenB":                c.TokenB.Hex(),
			"dualAuthAddr":          c.DualAuthAddr.Hex(),
			"broker":                c.Broker.Hex(),
			"orderInterceptor":      c.OrderInterceptor.Hex(),
			"wallet":                c.Wallet.Hex(),
			"tokenRecipient":        c.TokenRecipient.Hex(),
			"feeToken":              c.FeeToken.Hex(),
			"walletSplitPercentage": new(big.Int).SetUint64(uint64(c.WalletSplitPercentage)),
			"tokenSFeePercentage":   new(big.Int).SetUint64(uint64(c.TokenSFeePercentage)),
			"tokenBFeePercentage":   new(big.Int).SetUint64(uint64(c.TokenBFeePercentage)),
			"allOrNone":             c.AllOrNone,
			"tokenTypeS":            new(big.Int).SetUint64(uint64(c.TokenTypeS)),
			"tokenTypeB":            new(big.Int).SetUint64(uint64(c.TokenTypeB)),
			"tokenTypeFee":          new(big.Int).SetUint64(uint64(c.TokenTypeFee)),
			"trancheS":              c.TrancheS.Bytes(),
			"trancheB":              c.TrancheB.Bytes(),
			"transferDataS":         c.TransferDataS,
		},
	}
}

// ComputeHash returns the EIP-712 digest of the order under domain.
func ComputeHash(o *Order, domain Domain) (common.Hash, error) {
	typedData := o.Canonical().TypedData(domain)

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash order: %w", err)
	}

	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	return crypto.Keccak256Hash(rawData), nil
}

// UpdateHash computes the order hash and caches it on the order.
func UpdateHash(o *Order, domain Domain) error {
	h, err := ComputeHash(o, domain)
	if err != nil {
		return err
	}
	o.Hash = h
	return nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func addrOrZero(a *common.Address) common.Address {
	if a == nil {
		return common.Address{}
	}
	return *a
}
