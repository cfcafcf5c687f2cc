// Package validator decides whether orders are eligible for settlement and
// tracks how much each order can still spend while rings are simulated.
package validator

import (
	"context"
	"fmt"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Config holds the protocol constants validation is performed against.
type Config struct {
	// FeePercentageBase is the denominator of every fee percentage.
	FeePercentageBase uint32
	// OrderVersion is the only supported order version.
	OrderVersion uint32
	// TradeDelegate is the spender whose allowance bounds fungible spendables.
	TradeDelegate common.Address
	// Domain is the EIP-712 domain orders are hashed under.
	Domain order.Domain
}

// DefaultConfig returns the protocol version 2 constants.
func DefaultConfig() Config {
	return Config{
		FeePercentageBase: 1000,
		OrderVersion:      0,
		Domain:            order.DefaultDomain,
	}
}

// Validator validates orders and owns their spendable accounting.
//
// A Validator is not safe for concurrent use on the same orders: reservation
// updates against one order must be serialized by the caller.
type Validator struct {
	cfg    Config
	deps   Dependencies
	logger *zap.Logger
}

// New creates a validator. A nil logger disables logging.
func New(cfg Config, deps Dependencies, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{cfg: cfg, deps: deps, logger: logger}
}

// Config returns the protocol constants in use.
func (v *Validator) Config() Config {
	return v.cfg
}

// ComputeHash computes the canonical order hash and caches it on the order.
func (v *Validator) ComputeHash(o *order.Order) (common.Hash, error) {
	if err := order.UpdateHash(o, v.cfg.Domain); err != nil {
		return common.Hash{}, err
	}
	return o.Hash, nil
}

// ResolveBroker checks the registration of an explicit broker and picks up
// its interceptor. Self-brokered orders need no lookup. An unregistered
// broker invalidates the order. Errors are only returned for registry
// failures.
func (v *Validator) ResolveBroker(ctx context.Context, o *order.Order) error {
	if !o.HasBroker() {
		return nil
	}
	if v.deps.Brokers == nil {
		return fmt.Errorf("%w: broker registry", ErrMissingDependency)
	}
	registered, interceptor, err := v.deps.Brokers.GetBroker(ctx, o.Owner, *o.Broker)
	if err != nil {
		return fmt.Errorf("looking up broker %s for %s: %w", o.Broker.Hex(), o.Owner.Hex(), err)
	}
	v.ensure(o, registered, ReasonBrokerNotRegistered)
	if registered {
		o.BrokerInterceptor = interceptor
	}
	return nil
}

// Validate runs every static and time-window check against the order and
// records each failure. All checks run even after one fails. It reports
// whether this call found the order valid.
func (v *Validator) Validate(o *order.Order, now uint64) bool {
	base := int64(v.cfg.FeePercentageBase)
	zeroAddr := common.Address{}
	zeroHash := common.Hash{}

	checks := []struct {
		ok     bool
		reason string
	}{
		{o.Version == v.cfg.OrderVersion, ReasonUnsupportedVersion},
		{o.Owner != zeroAddr, ReasonInvalidOwner},
		{o.TokenS != zeroAddr, ReasonInvalidTokenS},
		{o.TokenB != zeroAddr, ReasonInvalidTokenB},
		{o.AmountS != nil && o.AmountS.Sign() != 0, ReasonInvalidAmountS},
		{o.AmountB != nil && o.AmountB.Sign() != 0, ReasonInvalidAmountB},
		{o.FeeToken != zeroAddr, ReasonInvalidFeeToken},
		{o.TokenTypeFee != order.TokenTypeERC1400, ReasonSecurityFeeToken},
		{int64(o.WaiveFeePercentage) >= -base && int64(o.WaiveFeePercentage) < base, ReasonInvalidWaive},
		{int64(o.TokenSFeePercentage) < base, ReasonInvalidTokenSFee},
		{!(o.TokenSFeePercentage > 0 && o.TokenTypeS == order.TokenTypeERC1400), ReasonSecurityTokenSFee},
		{int64(o.TokenBFeePercentage) < base, ReasonInvalidTokenBFee},
		{!(o.TokenBFeePercentage > 0 && o.TokenTypeB == order.TokenTypeERC1400), ReasonSecurityTokenBFee},
		{o.WalletSplitPercentage <= 100, ReasonInvalidWalletSplit},
		{!o.HasDualAuth() || len(o.DualAuthSig) > 0, ReasonMissingDualAuthSig},
		{!(o.TokenTypeS == order.TokenTypeERC20 && o.TrancheSOrDefault() != zeroHash), ReasonInvalidTrancheS},
		{!(o.TokenTypeB == order.TokenTypeERC20 && o.TrancheBOrDefault() != zeroHash), ReasonInvalidTrancheB},
		{!(o.TokenTypeS == order.TokenTypeERC20 && len(o.TransferDataS) > 0), ReasonInvalidTransferDataS},
		{o.ValidSince <= now, ReasonTooEarly},
		{o.ValidUntil == nil || *o.ValidUntil == 0 || *o.ValidUntil > now, ReasonExpired},
	}

	valid := true
	for _, c := range checks {
		if !v.ensure(o, c.ok, c.reason) {
			valid = false
		}
	}
	return valid
}

// CheckAllOrNone invalidates an all-or-none order that is not completely filled.
func (v *Validator) CheckAllOrNone(o *order.Order) bool {
	if !o.AllOrNone {
		return true
	}
	return v.ensure(o, o.AmountS != nil && o.Filled().Cmp(o.AmountS) == 0, ReasonAllOrNoneNotFilled)
}

// CheckBrokerSignature verifies the order signature against the resolved
// broker. Partially filled orders were already checked in an earlier pass.
// Unsigned orders must be registered on-chain instead.
func (v *Validator) CheckBrokerSignature(ctx context.Context, o *order.Order) error {
	if o.Filled().Sign() > 0 {
		return nil
	}

	var signatureValid bool
	if len(o.Sig) == 0 {
		if v.deps.OrderRegistry == nil || v.deps.OrderBook == nil {
			return fmt.Errorf("%w: order registry and order book", ErrMissingDependency)
		}
		registered, err := v.deps.OrderRegistry.IsOrderHashRegistered(ctx, o.BrokerAddress(), o.Hash)
		if err != nil {
			return fmt.Errorf("checking order registry for %s: %w", o.Hash.Hex(), err)
		}
		submitted, err := v.deps.OrderBook.OrderSubmitted(ctx, o.Hash)
		if err != nil {
			return fmt.Errorf("checking order book for %s: %w", o.Hash.Hex(), err)
		}
		signatureValid = registered || submitted
	} else {
		if v.deps.Verifier == nil {
			return fmt.Errorf("%w: signature verifier", ErrMissingDependency)
		}
		signatureValid = v.deps.Verifier.VerifySignature(o.BrokerAddress(), o.Hash, o.Sig)
	}
	v.ensure(o, signatureValid, ReasonInvalidSignature)
	return nil
}

// CheckDualAuthSignature verifies the dual-auth signature, when present,
// against the mining hash of the batch the order is settled in.
func (v *Validator) CheckDualAuthSignature(o *order.Order, miningHash common.Hash) bool {
	if len(o.DualAuthSig) == 0 {
		return true
	}
	signatureValid := false
	if v.deps.Verifier != nil && o.DualAuthAddr != nil {
		signatureValid = v.deps.Verifier.VerifySignature(*o.DualAuthAddr, miningHash, o.DualAuthSig)
	}
	return v.ensure(o, signatureValid, ReasonInvalidDualAuthSig)
}

func (v *Validator) ensure(o *order.Order, ok bool, reason string) bool {
	if !ok {
		v.logger.Debug("order check failed",
			zap.String("order", o.Hash.Hex()),
			zap.String("owner", o.Owner.Hex()),
			zap.String("reason", reason))
	}
	return o.Validity().Ensure(ok, reason)
}
