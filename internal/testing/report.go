package testing

import (
	"math/big"

	"github.com/LeJamon/goRingSim/internal/core/balance"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/ethereum/go-ethereum/common"
)

// ReportBuilder records what executing a batch did to the chain state.
// Create it before applying transfers and call Finish afterwards.
type ReportBuilder struct {
	env    *TestEnv
	report *settlement.Report
}

// BeginReport snapshots the current balances as the report's before state.
func (e *TestEnv) BeginReport() *ReportBuilder {
	e.t.Helper()
	return &ReportBuilder{
		env: e,
		report: &settlement.Report{
			BalancesBefore:    e.Balances(),
			FeeBalancesBefore: balance.NewLedger(),
			FeeBalancesAfter:  balance.NewLedger(),
			FilledAmounts:     make(map[common.Hash]*big.Int),
		},
	}
}

// FeeBalance sets the fee balance owner holds in token before and after execution.
func (r *ReportBuilder) FeeBalance(owner, token common.Address, before, after *big.Int) *ReportBuilder {
	r.report.FeeBalancesBefore.Add(owner, token, common.Hash{}, before)
	r.report.FeeBalancesAfter.Add(owner, token, common.Hash{}, after)
	return r
}

// Filled records the filled tokenS amount of o after execution.
func (r *ReportBuilder) Filled(o *order.Order, amount *big.Int) *ReportBuilder {
	r.report.FilledAmounts[o.Hash] = amount
	return r
}

// Reverted marks the execution as reverted with message.
func (r *ReportBuilder) Reverted(message string) *ReportBuilder {
	r.report.Reverted = true
	r.report.RevertMessage = message
	return r
}

// Finish snapshots the current balances as the after state and returns the report.
func (r *ReportBuilder) Finish() *settlement.Report {
	r.env.t.Helper()
	r.report.BalancesAfter = r.env.Balances()
	return r.report
}
