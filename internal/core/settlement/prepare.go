package settlement

import (
	"context"
	"fmt"

	"github.com/LeJamon/goRingSim/internal/core/validator"
	"go.uber.org/zap"
)

// PrepareBatch hashes, resolves, validates and authenticates every order of
// the batch, then resets its reservations so simulation starts from the raw
// ledger figures. Invalid orders stay in the batch with their reasons
// recorded; errors are only returned when a collaborator fails.
func (s *Simulator) PrepareBatch(ctx context.Context, batch *Batch, now uint64) error {
	if s.validator == nil {
		return fmt.Errorf("prepare batch: %w", validator.ErrMissingDependency)
	}
	v := s.validator

	for i, o := range batch.Orders {
		if _, err := v.ComputeHash(o); err != nil {
			return fmt.Errorf("hashing order %d: %w", i, err)
		}
		if err := v.ResolveBroker(ctx, o); err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		v.Validate(o, now)
		if err := v.CheckBrokerSignature(ctx, o); err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		v.CheckDualAuthSignature(o, batch.MiningHash)
		v.ResetReservations(o)

		if !o.Valid() {
			reasons := o.Validity().Reasons()
			for _, reason := range reasons {
				s.observer.ObserveInvalidOrder(reason)
			}
			s.logger.Info("order is invalid",
				zap.Int("index", i),
				zap.String("order", o.Hash.Hex()),
				zap.Strings("reasons", reasons))
		}
	}
	return nil
}
