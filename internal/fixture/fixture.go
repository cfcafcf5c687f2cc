// Package fixture loads ring batches, the chain state they run against and
// the execution reports to verify from JSON files.
//
// Amounts are decimal or 0x-prefixed hex strings. Orders are signed while
// building, from a seed or a private key, so fixtures stay readable.
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// File is the root of a fixture document.
type File struct {
	Description       string          `json:"description"`
	FeeRecipient      *common.Address `json:"feeRecipient,omitempty"`
	TransactionOrigin common.Address  `json:"transactionOrigin"`
	Miner             *common.Address `json:"miner,omitempty"`
	// MiningHash defaults to the keccak256 of the concatenated order hashes.
	MiningHash *common.Hash `json:"miningHash,omitempty"`
	// Now is the block timestamp orders are validated at.
	Now uint64 `json:"now"`

	Rings  [][]int `json:"rings"`
	Orders []Order `json:"orders"`

	Expected *Expectation `json:"expected,omitempty"`
	State    *State       `json:"state,omitempty"`
	Report   *Report      `json:"report,omitempty"`
}

// Signer names the key signing an order or its dual-auth part.
type Signer struct {
	Seed       string `json:"seed,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"`
	Algorithm  string `json:"algorithm,omitempty"`
}

// Order is the JSON form of order.Order. Owner may be omitted when a signer
// is given; it then defaults to the signer address.
type Order struct {
	Version uint32                `json:"version"`
	Owner   *common.Address       `json:"owner,omitempty"`
	TokenS  common.Address        `json:"tokenS"`
	TokenB  common.Address        `json:"tokenB"`
	AmountS *math.HexOrDecimal256 `json:"amountS"`
	AmountB *math.HexOrDecimal256 `json:"amountB"`

	ValidSince uint64  `json:"validSince"`
	ValidUntil *uint64 `json:"validUntil,omitempty"`

	DualAuthAddr     *common.Address `json:"dualAuthAddr,omitempty"`
	Broker           *common.Address `json:"broker,omitempty"`
	OrderInterceptor *common.Address `json:"orderInterceptor,omitempty"`
	WalletAddr       *common.Address `json:"walletAddr,omitempty"`
	TokenRecipient   *common.Address `json:"tokenRecipient,omitempty"`

	FeeToken              common.Address        `json:"feeToken"`
	FeeAmount             *math.HexOrDecimal256 `json:"feeAmount,omitempty"`
	WaiveFeePercentage    int32                 `json:"waiveFeePercentage"`
	TokenSFeePercentage   uint32                `json:"tokenSFeePercentage"`
	TokenBFeePercentage   uint32                `json:"tokenBFeePercentage"`
	WalletSplitPercentage uint32                `json:"walletSplitPercentage"`
	AllOrNone             bool                  `json:"allOrNone"`

	TokenTypeS    order.TokenType `json:"tokenTypeS"`
	TokenTypeB    order.TokenType `json:"tokenTypeB"`
	TokenTypeFee  order.TokenType `json:"tokenTypeFee"`
	TrancheS      *common.Hash    `json:"trancheS,omitempty"`
	TrancheB      *common.Hash    `json:"trancheB,omitempty"`
	TransferDataS hexutil.Bytes   `json:"transferDataS,omitempty"`

	FilledAmountS *math.HexOrDecimal256 `json:"filledAmountS,omitempty"`

	// Signer signs the order hash. Without one the order relies on the
	// order registry or the order book.
	Signer *Signer `json:"signer,omitempty"`
	// DualAuthSigner signs the mining hash and sets dualAuthAddr.
	DualAuthSigner *Signer `json:"dualAuthSigner,omitempty"`
	// Sig and DualAuthSig are used verbatim when no signer is given.
	Sig         hexutil.Bytes `json:"sig,omitempty"`
	DualAuthSig hexutil.Bytes `json:"dualAuthSig,omitempty"`
}

// OrderExpectation is the JSON form of settlement.OrderExpectation. P2P
// defaults to whether the order carries tokenS or tokenB fee percentages.
type OrderExpectation struct {
	FilledFraction decimal.Decimal       `json:"filledFraction"`
	P2P            *bool                 `json:"p2p,omitempty"`
	Margin         *math.HexOrDecimal256 `json:"margin,omitempty"`
}

// RingExpectation is the JSON form of settlement.RingExpectation.
type RingExpectation struct {
	Fail   bool               `json:"fail"`
	Orders []OrderExpectation `json:"orders"`
}

// Expectation is the JSON form of settlement.Expectation.
type Expectation struct {
	Revert        bool              `json:"revert"`
	RevertMessage string            `json:"revertMessage,omitempty"`
	Rings         []RingExpectation `json:"rings"`
}

// BalanceEntry is one balance. Tranche is only set for security tokens.
type BalanceEntry struct {
	Token   common.Address        `json:"token"`
	Owner   common.Address        `json:"owner"`
	Tranche common.Hash           `json:"tranche"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// AllowanceEntry lets Spender transfer Amount of Token from Owner.
type AllowanceEntry struct {
	Token   common.Address        `json:"token"`
	Owner   common.Address        `json:"owner"`
	Spender common.Address        `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// BrokerEntry registers Broker for Owner.
type BrokerEntry struct {
	Owner       common.Address `json:"owner"`
	Broker      common.Address `json:"broker"`
	Interceptor common.Address `json:"interceptor"`
}

// InterceptorAllowanceEntry caps what Broker may spend for Owner.
type InterceptorAllowanceEntry struct {
	Interceptor common.Address        `json:"interceptor"`
	Owner       common.Address        `json:"owner"`
	Broker      common.Address        `json:"broker"`
	Token       common.Address        `json:"token"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
}

// OperatorEntry authorises Operator on the tranches of Owner. Without a
// tranche the operator may move every tranche.
type OperatorEntry struct {
	Token    common.Address `json:"token"`
	Tranche  *common.Hash   `json:"tranche,omitempty"`
	Operator common.Address `json:"operator"`
	Owner    common.Address `json:"owner"`
}

// BurnRateEntry sets the burn rates of Token, per mille of the fee base.
type BurnRateEntry struct {
	Token    common.Address `json:"token"`
	P2P      uint16         `json:"p2p"`
	Standard uint16         `json:"standard"`
}

// State is the chain state a batch is validated and settled against.
// Registered and submitted orders reference orders by index.
type State struct {
	Balances              []BalanceEntry              `json:"balances"`
	Allowances            []AllowanceEntry            `json:"allowances"`
	Brokers               []BrokerEntry               `json:"brokers"`
	InterceptorAllowances []InterceptorAllowanceEntry `json:"interceptorAllowances"`
	Operators             []OperatorEntry             `json:"operators"`
	RegisteredOrders      []int                       `json:"registeredOrders"`
	SubmittedOrders       []int                       `json:"submittedOrders"`
	BurnRates             []BurnRateEntry             `json:"burnRates"`
}

// FilledEntry is the filled amount of the order at index Order.
type FilledEntry struct {
	Order  int                   `json:"order"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Report is the JSON form of settlement.Report. When BalancesBefore is
// omitted the balances of State are used.
type Report struct {
	Reverted          bool           `json:"reverted"`
	RevertMessage     string         `json:"revertMessage,omitempty"`
	BalancesBefore    []BalanceEntry `json:"balancesBefore,omitempty"`
	BalancesAfter     []BalanceEntry `json:"balancesAfter"`
	FeeBalancesBefore []BalanceEntry `json:"feeBalancesBefore,omitempty"`
	FeeBalancesAfter  []BalanceEntry `json:"feeBalancesAfter"`
	FilledAmounts     []FilledEntry  `json:"filledAmounts"`
}

// Load reads a fixture file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a fixture document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}
