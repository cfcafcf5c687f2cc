package history

import (
	"errors"
	"time"

	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/google/uuid"
)

// Run is one recorded verification of a fixture.
type Run struct {
	ID          string
	Fixture     string
	Description string
	// Outcome is one of the settlement Outcome constants
	Outcome string

	Rings         int
	RingsFailed   int
	FeePayments   int
	InvalidOrders int

	StartedAt time.Time
	Elapsed   time.Duration
	// Error is the verification error, empty when the run passed
	Error string

	// Mismatches is only populated by Store.Get
	Mismatches []Mismatch
}

// Mismatch is a stored reconciliation failure.
type Mismatch struct {
	Kind      string
	Token     string
	Owner     string
	Tranche   string
	OrderHash string
	Expected  string
	Actual    string
}

// NewRun summarises the verification of one fixture. res may be nil when
// verification failed before a result existed.
func NewRun(fixture, description string, res *settlement.Result, invalidOrders int, verifyErr error, startedAt time.Time, elapsed time.Duration) *Run {
	run := &Run{
		Fixture:       fixture,
		Description:   description,
		Outcome:       settlement.OutcomeError,
		InvalidOrders: invalidOrders,
		StartedAt:     startedAt,
		Elapsed:       elapsed,
	}
	if res != nil {
		run.ID = res.RunID
		if res.Outcome != "" {
			run.Outcome = res.Outcome
		}
		run.Rings = len(res.Rings)
		run.RingsFailed = res.RingsFailed
		run.FeePayments = len(res.FeePayments)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if verifyErr != nil {
		run.Error = verifyErr.Error()
		for _, m := range mismatchesOf(verifyErr) {
			run.Mismatches = append(run.Mismatches, Mismatch{
				Kind:      string(m.Kind),
				Token:     m.Token.Hex(),
				Owner:     m.Owner.Hex(),
				Tranche:   m.Tranche.Hex(),
				OrderHash: m.OrderHash.Hex(),
				Expected:  amountString(m.Expected),
				Actual:    amountString(m.Actual),
			})
		}
	}
	return run
}

// mismatchesOf collects every *settlement.MismatchError in err, walking
// joined errors.
func mismatchesOf(err error) []*settlement.MismatchError {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []*settlement.MismatchError
		for _, inner := range joined.Unwrap() {
			out = append(out, mismatchesOf(inner)...)
		}
		return out
	}
	var m *settlement.MismatchError
	if errors.As(err, &m) {
		return []*settlement.MismatchError{m}
	}
	return nil
}
