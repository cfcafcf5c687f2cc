package validator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Leg selects which of an order's assets a spendable query refers to.
type Leg uint8

const (
	// LegS is the token the order sells.
	LegS Leg = iota
	// LegFee is the token the order pays flat fees in.
	LegFee
)

// String returns the leg name.
func (l Leg) String() string {
	switch l {
	case LegS:
		return "tokenS"
	case LegFee:
		return "feeToken"
	default:
		return "unknown"
	}
}

// SpendableS returns how much tokenS the order can still commit.
func (v *Validator) SpendableS(ctx context.Context, o *order.Order) (*big.Int, error) {
	return v.Spendable(ctx, o, LegS)
}

// SpendableFee returns how much fee token the order can still commit.
func (v *Validator) SpendableFee(ctx context.Context, o *order.Order) (*big.Int, error) {
	return v.Spendable(ctx, o, LegFee)
}

// Spendable returns the amount of the given leg the order can still commit,
// net of reservations and bounded by the broker allowance when a broker
// interceptor is configured. Ledger figures are read once per order and
// cached on it.
func (v *Validator) Spendable(ctx context.Context, o *order.Order, leg Leg) (*big.Int, error) {
	order.EnsureSpendables(o)
	tokenType, token, tranche, tokenCache, brokerCache := legOf(o, leg)
	return v.GetSpendable(ctx, tokenType, tranche, token, o.Owner, o.BrokerAddress(), o.BrokerInterceptor, tokenCache, brokerCache)
}

// GetSpendable fills the caches on first use and returns the post-reservation
// figure. A negative figure means the reservation state is corrupt.
func (v *Validator) GetSpendable(
	ctx context.Context,
	tokenType order.TokenType,
	tranche common.Hash,
	token, owner, broker, interceptor common.Address,
	tokenCache, brokerCache *order.Spendable,
) (*big.Int, error) {
	if !tokenCache.Initialized {
		amount, err := v.TokenSpendable(ctx, tokenType, token, tranche, owner)
		if err != nil {
			return nil, err
		}
		tokenCache.Init(amount)
	}
	spendable := tokenCache.Available()
	if spendable.Sign() < 0 {
		return nil, fmt.Errorf("%w: token %s owner %s amount %s reserved %s",
			ErrSpendableNegative, token.Hex(), owner.Hex(), tokenCache.Amount, tokenCache.Reserved)
	}

	if interceptor == (common.Address{}) {
		return spendable, nil
	}
	if !brokerCache.Initialized {
		brokerCache.Init(v.BrokerAllowance(ctx, token, owner, broker, interceptor))
	}
	brokerSpendable := brokerCache.Available()
	if brokerSpendable.Sign() < 0 {
		return nil, fmt.Errorf("%w: broker %s token %s owner %s amount %s reserved %s",
			ErrSpendableNegative, broker.Hex(), token.Hex(), owner.Hex(), brokerCache.Amount, brokerCache.Reserved)
	}
	if brokerSpendable.Cmp(spendable) < 0 {
		return brokerSpendable, nil
	}
	return spendable, nil
}

// TokenSpendable reads the raw ledger figure the trade delegate may move:
// min(balance, allowance) for fungible tokens, the tranche balance when the
// delegate is an operator for security tokens, zero otherwise.
func (v *Validator) TokenSpendable(ctx context.Context, tokenType order.TokenType, token common.Address, tranche common.Hash, owner common.Address) (*big.Int, error) {
	switch tokenType {
	case order.TokenTypeERC20:
		return v.erc20Spendable(ctx, token, owner)
	case order.TokenTypeERC1400:
		return v.erc1400Spendable(ctx, token, tranche, owner)
	default:
		return new(big.Int), nil
	}
}

func (v *Validator) erc20Spendable(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if v.deps.Tokens == nil {
		return nil, fmt.Errorf("%w: token ledger", ErrMissingDependency)
	}
	balance, err := v.deps.Tokens.BalanceOf(ctx, token, owner)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s for %s: %w", token.Hex(), owner.Hex(), err)
	}
	allowance, err := v.deps.Tokens.Allowance(ctx, token, owner, v.cfg.TradeDelegate)
	if err != nil {
		return nil, fmt.Errorf("allowance %s for %s: %w", token.Hex(), owner.Hex(), err)
	}
	if allowance.Cmp(balance) < 0 {
		return new(big.Int).Set(allowance), nil
	}
	return new(big.Int).Set(balance), nil
}

func (v *Validator) erc1400Spendable(ctx context.Context, token common.Address, tranche common.Hash, owner common.Address) (*big.Int, error) {
	if v.deps.Tranches == nil {
		return nil, fmt.Errorf("%w: tranche ledger", ErrMissingDependency)
	}
	spender := v.cfg.TradeDelegate
	isOperator, err := v.deps.Tranches.IsOperatorFor(ctx, token, spender, owner)
	if err != nil {
		return nil, fmt.Errorf("isOperatorFor %s for %s: %w", token.Hex(), owner.Hex(), err)
	}
	if !isOperator {
		isOperator, err = v.deps.Tranches.IsOperatorForTranche(ctx, token, tranche, spender, owner)
		if err != nil {
			return nil, fmt.Errorf("isOperatorForTranche %s/%s for %s: %w", token.Hex(), tranche.Hex(), owner.Hex(), err)
		}
	}
	if !isOperator {
		return new(big.Int), nil
	}
	balance, err := v.deps.Tranches.BalanceOfTranche(ctx, token, tranche, owner)
	if err != nil {
		return nil, fmt.Errorf("balanceOfTranche %s/%s for %s: %w", token.Hex(), tranche.Hex(), owner.Hex(), err)
	}
	return new(big.Int).Set(balance), nil
}

// BrokerAllowance asks the interceptor how much the broker may spend. A
// failing interceptor grants nothing.
func (v *Validator) BrokerAllowance(ctx context.Context, token, owner, broker, interceptor common.Address) *big.Int {
	if v.deps.Interceptors == nil {
		v.logger.Warn("no broker interceptor configured, allowance is zero",
			zap.String("interceptor", interceptor.Hex()))
		return new(big.Int)
	}
	allowance, err := v.deps.Interceptors.GetAllowance(ctx, interceptor, owner, broker, token)
	if err != nil || allowance == nil {
		v.logger.Warn("broker interceptor query failed, allowance is zero",
			zap.String("interceptor", interceptor.Hex()),
			zap.String("owner", owner.Hex()),
			zap.String("broker", broker.Hex()),
			zap.String("token", token.Hex()),
			zap.Error(err))
		return new(big.Int)
	}
	return new(big.Int).Set(allowance)
}

// Reserve commits amount of the given leg against the order. It fails
// without mutating anything when amount exceeds what is currently spendable.
func (v *Validator) Reserve(ctx context.Context, o *order.Order, leg Leg, amount *big.Int) error {
	spendable, err := v.Spendable(ctx, o, leg)
	if err != nil {
		return err
	}
	if spendable.Cmp(amount) < 0 {
		return fmt.Errorf("%w: order %s %s reserve %s spendable %s",
			ErrReserveExceedsSpendable, o.Hash.Hex(), leg, amount, spendable)
	}
	_, _, _, tokenCache, brokerCache := legOf(o, leg)
	tokenCache.Reserve(amount)
	if o.HasBrokerInterceptor() {
		brokerCache.Reserve(amount)
	}
	return nil
}

// ResetReservations zeroes every reservation counter of the order. Cached
// ledger figures are kept.
func (v *Validator) ResetReservations(o *order.Order) {
	order.EnsureSpendables(o)
	o.TokenSpendableS.ResetReserved()
	o.TokenSpendableFee.ResetReserved()
	o.BrokerSpendableS.ResetReserved()
	o.BrokerSpendableFee.ResetReserved()
}

func legOf(o *order.Order, leg Leg) (order.TokenType, common.Address, common.Hash, *order.Spendable, *order.Spendable) {
	if leg == LegFee {
		return o.TokenTypeFee, o.FeeToken, common.Hash{}, o.TokenSpendableFee, o.BrokerSpendableFee
	}
	return o.TokenTypeS, o.TokenS, o.TrancheSOrDefault(), o.TokenSpendableS, o.BrokerSpendableS
}
