package testing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimals of every test token.
const Decimals = 18

// Tokens converts a whole token amount to base units.
// For example, Tokens(100) returns 100 * 10^18.
func Tokens(n int64) *big.Int {
	return Units(decimal.NewFromInt(n))
}

// TokensOf converts a decimal token amount such as "2.5" to base units.
// Digits beyond the token decimals are truncated.
func TokensOf(amount string) *big.Int {
	return Units(decimal.RequireFromString(amount))
}

// Units converts a token amount to base units.
func Units(amount decimal.Decimal) *big.Int {
	return amount.Shift(Decimals).BigInt()
}
