package settlement

import "time"

// Verification outcomes reported to an Observer.
const (
	OutcomePass     = "pass"
	OutcomeSkipped  = "skipped"
	OutcomeReverted = "reverted"
	OutcomeMismatch = "mismatch"
	OutcomeError    = "error"
)

// Observer receives verification events, typically to export them as metrics.
type Observer interface {
	ObserveVerification(outcome string, elapsed time.Duration)
	ObserveRing(failed bool)
	ObserveFeePayments(n int)
	ObserveInvalidOrder(reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveVerification(string, time.Duration) {}
func (nopObserver) ObserveRing(bool)                          {}
func (nopObserver) ObserveFeePayments(int)                    {}
func (nopObserver) ObserveInvalidOrder(string)                {}
