package settlement

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToleranceEqual(t *testing.T) {
	one := big.NewInt(1e18)
	tests := []struct {
		name  string
		a, b  *big.Int
		equal bool
	}{
		{"identical", one, one, true},
		{"one wei apart", one, new(big.Int).Add(one, big.NewInt(1)), true},
		{"below precision", one, new(big.Int).Add(one, big.NewInt(4e9)), true},
		{"at precision", one, new(big.Int).Add(one, big.NewInt(1e10)), false},
		{"nil is zero", nil, new(big.Int), true},
		{"sign matters", one, new(big.Int).Neg(one), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, DefaultTolerance.Equal(tt.a, tt.b))
		})
	}
}

func TestToleranceNormalize(t *testing.T) {
	v, _ := new(big.Int).SetString("1234567890123456789", 10)
	assert.Equal(t, "1.23456789", DefaultTolerance.Normalize(v).String())
}

func TestFloorMul(t *testing.T) {
	assert.Equal(t, int64(3), floorMul(big.NewInt(7), decimal.RequireFromString("0.5")).Int64())
	assert.Equal(t, int64(0), floorMul(nil, decimal.NewFromInt(1)).Int64())
	assert.Equal(t, int64(33), floorMul(big.NewInt(100), decimal.RequireFromString("0.333")).Int64())
}
