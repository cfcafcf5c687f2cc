package validator

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_registry.go -package=mocks -exclude_interfaces=TokenLedger,TrancheLedger,SignatureVerifier

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenLedger answers fungible balance queries.
type TokenLedger interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// TrancheLedger answers queries against tranche-partitioned security tokens.
type TrancheLedger interface {
	IsOperatorFor(ctx context.Context, token, spender, owner common.Address) (bool, error)
	IsOperatorForTranche(ctx context.Context, token common.Address, tranche common.Hash, spender, owner common.Address) (bool, error)
	BalanceOfTranche(ctx context.Context, token common.Address, tranche common.Hash, owner common.Address) (*big.Int, error)
}

// BrokerRegistry resolves (owner, broker) registrations.
type BrokerRegistry interface {
	GetBroker(ctx context.Context, owner, broker common.Address) (registered bool, interceptor common.Address, err error)
}

// BrokerInterceptor reports how much a broker may still spend for an owner.
type BrokerInterceptor interface {
	GetAllowance(ctx context.Context, interceptor, owner, broker, token common.Address) (*big.Int, error)
}

// OrderRegistry records order hashes pre-approved by a broker.
type OrderRegistry interface {
	IsOrderHashRegistered(ctx context.Context, broker common.Address, orderHash common.Hash) (bool, error)
}

// OrderBook records orders submitted on-chain.
type OrderBook interface {
	OrderSubmitted(ctx context.Context, orderHash common.Hash) (bool, error)
}

// SignatureVerifier checks a multihash signature blob.
type SignatureVerifier interface {
	VerifySignature(signer common.Address, hash common.Hash, sig []byte) bool
}

// Dependencies groups the collaborators a Validator consults.
type Dependencies struct {
	Tokens        TokenLedger
	Tranches      TrancheLedger
	Brokers       BrokerRegistry
	Interceptors  BrokerInterceptor
	OrderRegistry OrderRegistry
	OrderBook     OrderBook
	Verifier      SignatureVerifier
}
