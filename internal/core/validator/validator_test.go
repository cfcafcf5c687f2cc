package validator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/validator/mocks"
	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	broker   = common.HexToAddress("0x0000000000000000000000000000000000b40ce2")
	lrc      = common.HexToAddress("0x00000000000000000000000000000000000001c0")
	weth     = common.HexToAddress("0x0000000000000000000000000000000000000e70")
	delegate = common.HexToAddress("0x000000000000000000000000000000000000de1e")
)

type tokenKey struct {
	token, owner common.Address
}

type fakeTokens struct {
	balances   map[tokenKey]*big.Int
	allowances map[tokenKey]*big.Int
	calls      int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		balances:   make(map[tokenKey]*big.Int),
		allowances: make(map[tokenKey]*big.Int),
	}
}

func (f *fakeTokens) fund(token, owner common.Address, balance, allowance int64) {
	f.balances[tokenKey{token, owner}] = big.NewInt(balance)
	f.allowances[tokenKey{token, owner}] = big.NewInt(allowance)
}

func (f *fakeTokens) BalanceOf(_ context.Context, token, owner common.Address) (*big.Int, error) {
	f.calls++
	if b, ok := f.balances[tokenKey{token, owner}]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeTokens) Allowance(_ context.Context, token, owner, _ common.Address) (*big.Int, error) {
	if a, ok := f.allowances[tokenKey{token, owner}]; ok {
		return a, nil
	}
	return new(big.Int), nil
}

type fakeTranches struct {
	operator        bool
	trancheOperator bool
	balance         *big.Int
}

func (f *fakeTranches) IsOperatorFor(context.Context, common.Address, common.Address, common.Address) (bool, error) {
	return f.operator, nil
}

func (f *fakeTranches) IsOperatorForTranche(context.Context, common.Address, common.Hash, common.Address, common.Address) (bool, error) {
	return f.trancheOperator, nil
}

func (f *fakeTranches) BalanceOfTranche(context.Context, common.Address, common.Hash, common.Address) (*big.Int, error) {
	return f.balance, nil
}

func validOrder() *order.Order {
	return &order.Order{
		Owner:        owner,
		TokenS:       lrc,
		TokenB:       weth,
		AmountS:      big.NewInt(1000),
		AmountB:      big.NewInt(10),
		FeeToken:     lrc,
		FeeAmount:    big.NewInt(5),
		ValidSince:   100,
		TokenTypeS:   order.TokenTypeERC20,
		TokenTypeB:   order.TokenTypeERC20,
		TokenTypeFee: order.TokenTypeERC20,
	}
}

func newTestValidator(t *testing.T, deps Dependencies) *Validator {
	cfg := DefaultConfig()
	cfg.TradeDelegate = delegate
	return New(cfg, deps, zaptest.NewLogger(t))
}

func TestValidateAcceptsWellFormedOrder(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	o := validOrder()
	assert.True(t, v.Validate(o, 200))
	assert.True(t, o.Valid())
}

func TestValidateRecordsEveryFailure(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	o := validOrder()
	o.Version = 7
	o.AmountB = big.NewInt(0)
	o.WalletSplitPercentage = 101
	o.ValidSince = 500

	assert.False(t, v.Validate(o, 200))
	reasons := o.Validity().Reasons()
	assert.Equal(t, []string{
		ReasonUnsupportedVersion,
		ReasonInvalidAmountB,
		ReasonInvalidWalletSplit,
		ReasonTooEarly,
	}, reasons)
}

func TestValidateWaiveBounds(t *testing.T) {
	tests := []struct {
		name  string
		waive int32
		valid bool
	}{
		{"lower bound", -1000, true},
		{"below lower bound", -1001, false},
		{"just below upper bound", 999, true},
		{"upper bound", 1000, false},
		{"zero", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t, Dependencies{})
			o := validOrder()
			o.WaiveFeePercentage = tt.waive
			assert.Equal(t, tt.valid, v.Validate(o, 200))
			assert.Equal(t, !tt.valid, o.Validity().Has(ReasonInvalidWaive))
		})
	}
}

func TestValidateSecurityTokenRules(t *testing.T) {
	v := newTestValidator(t, Dependencies{})

	o := validOrder()
	o.TokenTypeFee = order.TokenTypeERC1400
	o.TokenTypeS = order.TokenTypeERC1400
	o.TokenSFeePercentage = 10
	assert.False(t, v.Validate(o, 200))
	assert.True(t, o.Validity().Has(ReasonSecurityFeeToken))
	assert.True(t, o.Validity().Has(ReasonSecurityTokenSFee))

	tranche := common.HexToHash("0x01")
	o = validOrder()
	o.TrancheS = &tranche
	o.TransferDataS = []byte{0x01}
	assert.False(t, v.Validate(o, 200))
	assert.True(t, o.Validity().Has(ReasonInvalidTrancheS))
	assert.True(t, o.Validity().Has(ReasonInvalidTransferDataS))

	o = validOrder()
	o.TokenTypeS = order.TokenTypeERC1400
	o.TrancheS = &tranche
	o.TransferDataS = []byte{0x01}
	assert.True(t, v.Validate(o, 200))
}

func TestValidateTimeWindow(t *testing.T) {
	v := newTestValidator(t, Dependencies{})

	until := uint64(300)
	o := validOrder()
	o.ValidUntil = &until
	assert.True(t, v.Validate(o, 299))

	o = validOrder()
	o.ValidUntil = &until
	assert.False(t, v.Validate(o, 300))
	assert.True(t, o.Validity().Has(ReasonExpired))

	zero := uint64(0)
	o = validOrder()
	o.ValidUntil = &zero
	assert.True(t, v.Validate(o, 1<<40))
}

func TestValidityIsSticky(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	o := validOrder()
	o.Owner = common.Address{}
	assert.False(t, v.Validate(o, 200))

	o.Owner = owner
	assert.True(t, v.Validate(o, 200))
	assert.False(t, o.Valid())
}

func TestMissingDualAuthSignature(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	dualAuth := common.HexToAddress("0x00000000000000000000000000000000000000da")
	o := validOrder()
	o.DualAuthAddr = &dualAuth
	assert.False(t, v.Validate(o, 200))
	assert.True(t, o.Validity().Has(ReasonMissingDualAuthSig))
}

func TestCheckAllOrNone(t *testing.T) {
	v := newTestValidator(t, Dependencies{})

	o := validOrder()
	assert.True(t, v.CheckAllOrNone(o))

	o.AllOrNone = true
	o.FilledAmountS = big.NewInt(999)
	assert.False(t, v.CheckAllOrNone(o))
	assert.True(t, o.Validity().Has(ReasonAllOrNoneNotFilled))

	o = validOrder()
	o.AllOrNone = true
	o.FilledAmountS = big.NewInt(1000)
	assert.True(t, v.CheckAllOrNone(o))
}

func TestResolveBrokerDefaultsToOwner(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	o := validOrder()
	require.NoError(t, v.ResolveBroker(context.Background(), o))
	assert.Equal(t, owner, o.BrokerAddress())
	assert.False(t, o.HasBrokerInterceptor())
}

func TestResolveBrokerUsesRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokers := mocks.NewMockBrokerRegistry(ctrl)
	interceptor := common.HexToAddress("0x0000000000000000000000000000000000001ce9")
	stranger := common.HexToAddress("0x000000000000000000000000000000000000beef")

	brokers.EXPECT().GetBroker(gomock.Any(), owner, broker).Return(true, interceptor, nil)
	brokers.EXPECT().GetBroker(gomock.Any(), owner, stranger).Return(false, common.Address{}, nil)

	v := newTestValidator(t, Dependencies{Brokers: brokers})

	o := validOrder()
	b := broker
	o.Broker = &b
	require.NoError(t, v.ResolveBroker(context.Background(), o))
	assert.True(t, o.Valid())
	assert.Equal(t, interceptor, o.BrokerInterceptor)

	o = validOrder()
	s := stranger
	o.Broker = &s
	require.NoError(t, v.ResolveBroker(context.Background(), o))
	assert.False(t, o.Valid())
	assert.True(t, o.Validity().Has(ReasonBrokerNotRegistered))
}

func TestResolveBrokerPropagatesRegistryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokers := mocks.NewMockBrokerRegistry(ctrl)
	brokers.EXPECT().GetBroker(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, common.Address{}, errors.New("node down"))

	v := newTestValidator(t, Dependencies{Brokers: brokers})
	o := validOrder()
	b := broker
	o.Broker = &b
	err := v.ResolveBroker(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node down")
}

func TestCheckBrokerSignature(t *testing.T) {
	key, err := crypto.KeyFromSeed("owner")
	require.NoError(t, err)
	signer := crypto.AddressOf(key)
	verifier := crypto.NewMultiHashVerifier()
	v := newTestValidator(t, Dependencies{Verifier: verifier})

	o := validOrder()
	o.Owner = signer
	_, err = v.ComputeHash(o)
	require.NoError(t, err)
	require.NoError(t, v.ResolveBroker(context.Background(), o))

	o.Sig, err = verifier.Sign(crypto.AlgorithmEthereum, o.Hash, key)
	require.NoError(t, err)
	require.NoError(t, v.CheckBrokerSignature(context.Background(), o))
	assert.True(t, o.Valid())

	other, err := crypto.KeyFromSeed("someone else")
	require.NoError(t, err)
	o.Sig, err = verifier.Sign(crypto.AlgorithmEthereum, o.Hash, other)
	require.NoError(t, err)
	require.NoError(t, v.CheckBrokerSignature(context.Background(), o))
	assert.True(t, o.Validity().Has(ReasonInvalidSignature))
}

func TestCheckBrokerSignatureSkipsFilledOrders(t *testing.T) {
	v := newTestValidator(t, Dependencies{})
	o := validOrder()
	o.FilledAmountS = big.NewInt(1)
	o.Sig = []byte{0xff}
	require.NoError(t, v.CheckBrokerSignature(context.Background(), o))
	assert.True(t, o.Valid())
}

func TestCheckBrokerSignatureFallsBackToRegistries(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockOrderRegistry(ctrl)
	book := mocks.NewMockOrderBook(ctrl)

	v := newTestValidator(t, Dependencies{OrderRegistry: registry, OrderBook: book})

	o := validOrder()
	_, err := v.ComputeHash(o)
	require.NoError(t, err)
	require.NoError(t, v.ResolveBroker(context.Background(), o))

	registry.EXPECT().IsOrderHashRegistered(gomock.Any(), owner, o.Hash).Return(false, nil)
	book.EXPECT().OrderSubmitted(gomock.Any(), o.Hash).Return(true, nil)
	require.NoError(t, v.CheckBrokerSignature(context.Background(), o))
	assert.True(t, o.Valid())

	registry.EXPECT().IsOrderHashRegistered(gomock.Any(), owner, o.Hash).Return(false, nil)
	book.EXPECT().OrderSubmitted(gomock.Any(), o.Hash).Return(false, nil)
	require.NoError(t, v.CheckBrokerSignature(context.Background(), o))
	assert.True(t, o.Validity().Has(ReasonInvalidSignature))
}

func TestCheckDualAuthSignature(t *testing.T) {
	key, err := crypto.KeyFromSeed("dual auth")
	require.NoError(t, err)
	dualAuth := crypto.AddressOf(key)
	verifier := crypto.NewMultiHashVerifier()
	v := newTestValidator(t, Dependencies{Verifier: verifier})

	miningHash := common.HexToHash("0xfeed")
	o := validOrder()
	o.DualAuthAddr = &dualAuth
	o.DualAuthSig, err = verifier.Sign(crypto.AlgorithmEIP712, miningHash, key)
	require.NoError(t, err)

	assert.True(t, v.CheckDualAuthSignature(o, miningHash))
	assert.False(t, v.CheckDualAuthSignature(o, common.HexToHash("0xbeef")))
	assert.True(t, o.Validity().Has(ReasonInvalidDualAuthSig))

	assert.True(t, v.CheckDualAuthSignature(validOrder(), miningHash))
}
