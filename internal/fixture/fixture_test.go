package fixture

import (
	"context"
	"math/big"
	"os"
	"strings"
	"testing"

	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	alice    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	lrc      = common.HexToAddress("0x00000000000000000000000000000000000001c0")
	delegate = common.HexToAddress("0x000000000000000000000000000000000000de1e")
)

func loadScenarioA(t *testing.T) *Built {
	t.Helper()
	file, err := Load("testdata/scenario_a.json")
	require.NoError(t, err)
	built, err := file.Build(order.DefaultDomain)
	require.NoError(t, err)
	return built
}

func TestBuildScenarioA(t *testing.T) {
	built := loadScenarioA(t)
	batch := built.Batch

	require.Len(t, batch.Orders, 2)
	a, b := batch.Orders[0], batch.Orders[1]
	assert.Equal(t, alice, a.Owner)
	assert.Equal(t, "2000000000000000000", b.FeeAmount.String())
	assert.Empty(t, b.Sig)
	assert.Equal(t, uint64(1700000000), built.Now)

	want, err := order.ComputeHash(a, order.DefaultDomain)
	require.NoError(t, err)
	assert.Equal(t, want, a.Hash)
	assert.True(t, crypto.NewMultiHashVerifier().VerifySignature(alice, a.Hash, a.Sig))

	alg, _, err := crypto.DecodeMultiHash(a.Sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.AlgorithmEIP712, alg)

	assert.Equal(t, defaultMiningHash(batch.Orders), batch.MiningHash)
	assert.NotEqual(t, common.Hash{}, batch.MiningHash)

	require.NotNil(t, batch.Expected)
	require.Len(t, batch.Expected.Rings, 1)
	for _, oe := range batch.Expected.Rings[0].Orders {
		assert.True(t, oe.FilledFraction.Equal(decimal.NewFromInt(1)))
		assert.False(t, oe.P2P)
		assert.Nil(t, oe.Margin)
	}

	report := built.Report
	require.NotNil(t, report)
	assert.Equal(t, "1000000000000000000000", report.BalancesBefore.Balance(alice, lrc, common.Hash{}).String())
	assert.Equal(t, "100000000000000000000", report.FilledAmounts[a.Hash].String())
	assert.Equal(t, uint32(50), burnrate.P2PRate(built.BurnRates[lrc]))
}

func TestScenarioAEndToEnd(t *testing.T) {
	built := loadScenarioA(t)
	ctx := context.Background()

	store, err := chainstate.OpenMemory()
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, built.Seed(ctx, store))

	submitted, err := store.OrderSubmitted(ctx, built.Batch.Orders[1].Hash)
	require.NoError(t, err)
	assert.True(t, submitted)

	vcfg := validator.DefaultConfig()
	vcfg.TradeDelegate = delegate
	v := validator.New(vcfg, store.Dependencies(crypto.NewMultiHashVerifier()), zaptest.NewLogger(t))

	scfg := settlement.DefaultConfig()
	scfg.CheckSpendable = true
	sim := settlement.New(scfg, v, store, settlement.WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, sim.PrepareBatch(ctx, built.Batch, built.Now))
	for _, o := range built.Batch.Orders {
		assert.True(t, o.Valid(), o.Validity().String())
	}

	res, err := sim.Verify(ctx, built.Batch, built.Report)
	require.NoError(t, err)
	assert.Len(t, res.FeePayments, 2)
}

func TestSeedRegistersUnsignedOrdersUnderOwner(t *testing.T) {
	raw, err := os.ReadFile("testdata/scenario_a.json")
	require.NoError(t, err)
	file, err := Parse(strings.NewReader(strings.Replace(string(raw), `"submittedOrders"`, `"registeredOrders"`, 1)))
	require.NoError(t, err)
	built, err := file.Build(order.DefaultDomain)
	require.NoError(t, err)

	ctx := context.Background()
	store, err := chainstate.OpenMemory()
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, built.Seed(ctx, store))

	unsigned := built.Batch.Orders[1]
	require.Empty(t, unsigned.Sig)
	registered, err := store.IsOrderHashRegistered(ctx, bob, unsigned.Hash)
	require.NoError(t, err)
	assert.True(t, registered)
	submitted, err := store.OrderSubmitted(ctx, unsigned.Hash)
	require.NoError(t, err)
	assert.False(t, submitted)

	v := validator.New(validator.DefaultConfig(), store.Dependencies(crypto.NewMultiHashVerifier()), zaptest.NewLogger(t))
	sim := settlement.New(settlement.DefaultConfig(), v, store, settlement.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, sim.PrepareBatch(ctx, built.Batch, built.Now))
	assert.True(t, unsigned.Valid(), unsigned.Validity().String())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"rings": [], "bogus": 1}`))
	assert.Error(t, err)
}

func TestBuildRejectsBadRings(t *testing.T) {
	file, err := Parse(strings.NewReader(`{
		"rings": [[0, 3]],
		"orders": [{
			"owner": "0x0000000000000000000000000000000000000b0b",
			"tokenS": "0x00000000000000000000000000000000000001c0",
			"tokenB": "0x0000000000000000000000000000000000000e70",
			"amountS": "10", "amountB": "20",
			"feeToken": "0x00000000000000000000000000000000000001c0"
		}]
	}`))
	require.NoError(t, err)
	_, err = file.Build(order.DefaultDomain)
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestBuildRejectsIncompleteOrders(t *testing.T) {
	file := &File{Orders: []Order{{}}}
	_, err := file.Build(order.DefaultDomain)
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestBuildSignsDualAuth(t *testing.T) {
	file, err := Parse(strings.NewReader(`{
		"miningHash": "0x00000000000000000000000000000000000000000000000000000000000000aa",
		"rings": [[0]],
		"orders": [{
			"tokenS": "0x00000000000000000000000000000000000001c0",
			"tokenB": "0x0000000000000000000000000000000000000e70",
			"amountS": "10", "amountB": "20",
			"tokenSFeePercentage": 5,
			"feeToken": "0x00000000000000000000000000000000000001c0",
			"signer": {"seed": "carol"},
			"dualAuthSigner": {"seed": "carol's dual auth", "algorithm": "ethereum"}
		}],
		"expected": {"rings": [{"orders": [{"filledFraction": "0.25"}]}]}
	}`))
	require.NoError(t, err)
	built, err := file.Build(order.DefaultDomain)
	require.NoError(t, err)

	o := built.Batch.Orders[0]
	key, err := crypto.KeyFromSeed("carol's dual auth")
	require.NoError(t, err)
	require.NotNil(t, o.DualAuthAddr)
	assert.Equal(t, crypto.AddressOf(key), *o.DualAuthAddr)

	verifier := crypto.NewMultiHashVerifier()
	assert.True(t, verifier.VerifySignature(*o.DualAuthAddr, common.HexToHash("0xaa"), o.DualAuthSig))
	assert.True(t, verifier.VerifySignature(o.Owner, o.Hash, o.Sig))

	exp := built.Batch.Expected.Rings[0].Orders[0]
	assert.True(t, exp.P2P, "p2p follows the fee percentages when omitted")
	assert.Equal(t, "0.25", exp.FilledFraction.String())
	assert.Nil(t, built.Report)
}

func TestAmountHelpers(t *testing.T) {
	assert.Equal(t, 0, amount(nil).Sign())
	assert.Nil(t, optionalAmount(nil))

	ledger := ledgerOf([]BalanceEntry{
		{Token: lrc, Owner: bob},
		{Token: lrc, Owner: bob},
	})
	assert.Equal(t, 0, ledger.Balance(bob, lrc, common.Hash{}).Cmp(big.NewInt(0)))
	assert.True(t, ledger.IsKnown(bob, lrc, common.Hash{}))
}
