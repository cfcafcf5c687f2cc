package testing

import (
	"errors"
	"math/big"
	"testing"

	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// RequireBalance asserts that an account holds the expected amount of token.
func RequireBalance(t *testing.T, env *TestEnv, acc common.Address, token common.Address, expected *big.Int) {
	t.Helper()
	actual := env.Balance(acc, token)
	require.Zero(t, expected.Cmp(actual),
		"Account %s balance of %s mismatch: expected %s, got %s",
		acc.Hex(), token.Hex(), expected, actual)
}

// RequireValid asserts that an order passed every check run on it.
func RequireValid(t *testing.T, o *order.Order) {
	t.Helper()
	require.True(t, o.Valid(), "Expected order %s to be valid: %s", o.Hash.Hex(), o.Validity().String())
}

// RequireInvalid asserts that an order failed with the given reason.
func RequireInvalid(t *testing.T, o *order.Order, reason string) {
	t.Helper()
	require.False(t, o.Valid(), "Expected order %s to be invalid", o.Hash.Hex())
	require.True(t, o.Validity().Has(reason),
		"Expected order %s to fail with %q, got %s", o.Hash.Hex(), reason, o.Validity().String())
}

// RequirePass asserts that a verification succeeded and checked the batch.
func RequirePass(t *testing.T, res *settlement.Result, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.Skipped, "Expected batch to be verified, but it was skipped")
}

// RequireMismatches asserts that a verification failed on reconciliation
// and returns the mismatches of the given kind.
func RequireMismatches(t *testing.T, err error, kind settlement.MismatchKind) []*settlement.MismatchError {
	t.Helper()
	require.ErrorIs(t, err, settlement.ErrMismatch)

	var found []*settlement.MismatchError
	for _, e := range flatten(err) {
		var m *settlement.MismatchError
		if errors.As(e, &m) && m.Kind == kind {
			found = append(found, m)
		}
	}
	require.NotEmpty(t, found, "Expected %s mismatches in %v", kind, err)
	return found
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
