// Package burnrate reads the per-token fee burn rates applied during settlement.
//
// A burn rate is stored packed in 32 bits: the upper half is the rate applied
// to peer-to-peer settlements, the lower half the rate applied to standard
// settlements. Both are expressed against the protocol fee percentage base.
package burnrate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Table returns the packed burn rate of a token.
type Table interface {
	GetBurnRate(ctx context.Context, token common.Address) (uint32, error)
}

// Pack combines a peer-to-peer and a standard rate.
func Pack(p2p, standard uint16) uint32 {
	return uint32(p2p)<<16 | uint32(standard)
}

// P2PRate extracts the peer-to-peer rate.
func P2PRate(packed uint32) uint32 {
	return packed >> 16
}

// StandardRate extracts the standard rate.
func StandardRate(packed uint32) uint32 {
	return packed & 0xFFFF
}

// Select returns the half of packed that applies to the settlement mode.
func Select(packed uint32, p2p bool) uint32 {
	if p2p {
		return P2PRate(packed)
	}
	return StandardRate(packed)
}

// StaticTable is a fixed burn-rate table. Unknown tokens burn nothing.
type StaticTable map[common.Address]uint32

// GetBurnRate implements Table.
func (t StaticTable) GetBurnRate(_ context.Context, token common.Address) (uint32, error) {
	return t[token], nil
}
