// Package loyalty credits points for completed rating-slip segments.
// Dispatch is fire-and-forget; the loyalty ledger's unique accrual index
// makes retries and duplicate dispatches harmless.
package loyalty

import (
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Theo is the theoretical win for a rated segment: average bet times
// house edge times decisions played, where decisions are prorated from
// the policy's decisions-per-hour over the accumulated duration.
func Theo(p store.PolicySnapshot, averageBet decimal.Decimal, seconds int64) decimal.Decimal {
	if seconds <= 0 || averageBet.Sign() <= 0 {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(seconds).Div(secondsPerHour)
	decisions := decimal.NewFromInt(int64(p.DecisionsPerHour)).Mul(hours)
	return averageBet.Mul(p.HouseEdge).Mul(decisions)
}

// Points converts theo to whole loyalty points using the conversion rate
// snapshotted at slip-open time. Fractions are dropped, never rounded up.
func Points(p store.PolicySnapshot, averageBet decimal.Decimal, seconds int64) int64 {
	pts := Theo(p, averageBet, seconds).Mul(p.PointConversion).Floor().IntPart()
	if pts < 0 {
		return 0
	}
	return pts
}
