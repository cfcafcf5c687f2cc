package settlement

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrMismatch is wrapped by every reconciliation failure.
	ErrMismatch = errors.New("settlement mismatch")

	// ErrConservation means a fee distribution created or destroyed value.
	ErrConservation = errors.New("fee conservation violated")

	// ErrUnexpectedRevert means the reported revert status differs from the expected one.
	ErrUnexpectedRevert = errors.New("revert status different than expected")

	// ErrMissingExpectation means a ring or order has no matching expectation.
	ErrMissingExpectation = errors.New("missing expectation")

	// ErrInvalidBatch means the batch cannot be settled as described, for
	// example a ring references an order that does not exist.
	ErrInvalidBatch = errors.New("invalid batch")
)

// MismatchKind names what was being reconciled.
type MismatchKind string

const (
	MismatchBalance    MismatchKind = "balance"
	MismatchFeeBalance MismatchKind = "fee balance"
	MismatchFilled     MismatchKind = "filled amount"
	MismatchMargin     MismatchKind = "margin"
)

// MismatchError reports a simulated value that differs from the reported one.
type MismatchError struct {
	Kind      MismatchKind
	Token     common.Address
	Owner     common.Address
	Tranche   common.Hash
	OrderHash common.Hash
	Expected  *big.Int
	Actual    *big.Int
}

func (e *MismatchError) Error() string {
	switch e.Kind {
	case MismatchFilled, MismatchMargin:
		return fmt.Sprintf("%s different than expected for order %s: expected %s, got %s",
			e.Kind, e.OrderHash.Hex(), e.Expected, e.Actual)
	default:
		return fmt.Sprintf("%s different than expected for token %s owner %s tranche %s: expected %s, got %s",
			e.Kind, e.Token.Hex(), e.Owner.Hex(), e.Tranche.Hex(), e.Expected, e.Actual)
	}
}

func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

// InvariantError reports an internal consistency fault that aborts a run.
type InvariantError struct {
	Op        string
	OrderHash common.Hash
	Token     common.Address
	Err       error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: order %s token %s: %v", e.Op, e.OrderHash.Hex(), e.Token.Hex(), e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
