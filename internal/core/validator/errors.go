package validator

import "errors"

var (
	// ErrSpendableNegative signals a corrupted reservation state.
	ErrSpendableNegative = errors.New("spendable < 0")

	// ErrReserveExceedsSpendable is returned when a reservation would overdraw an order.
	ErrReserveExceedsSpendable = errors.New("reserve amount exceeds spendable")

	// ErrMissingDependency is returned when a required collaborator is not configured.
	ErrMissingDependency = errors.New("missing validator dependency")
)
