// Package compliance classifies cash movement against federal reporting
// thresholds and resolves gaming days. Pure functions only; nothing here
// touches storage or the clock except through explicit arguments.
package compliance

import "github.com/shopspring/decimal"

// Thresholds holds the dollar boundaries for badge classification.
type Thresholds struct {
	// WatchlistFloor is the amount at which a patron enters the
	// multiple-transaction watchlist. Default $3,000.
	WatchlistFloor decimal.Decimal
	// CTRAmount is the Currency Transaction Report threshold. A CTR
	// obligation attaches strictly above this amount. Default $10,000.
	CTRAmount decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WatchlistFloor: decimal.NewFromInt(3000),
		CTRAmount:      decimal.NewFromInt(10000),
	}
}

// nearFloor is the lower bound of ctr_near: 80% of the CTR amount.
func (t Thresholds) nearFloor() decimal.Decimal {
	return t.CTRAmount.Mul(decimal.NewFromInt(8)).Div(decimal.NewFromInt(10))
}

// ClassifyEntry maps a single transaction amount to an advisory badge.
func (t Thresholds) ClassifyEntry(amount decimal.Decimal) Badge {
	return t.classify(amount)
}

// ClassifyAggregate maps a cumulative per-direction gaming-day total to
// the authoritative badge. ctr_met requires the total to strictly exceed
// the CTR amount; a total of exactly $10,000 is ctr_near. The strict
// inequality is a regulatory boundary and must not be relaxed to >=.
func (t Thresholds) ClassifyAggregate(total decimal.Decimal) Badge {
	return t.classify(total)
}

// Classify is the generic entry point: amount is the transaction under
// consideration, runningTotal the patron's prior per-direction total for
// the gaming day. Entry tier ignores the running total; aggregate tier
// classifies the new cumulative total. Directions are never combined;
// the direction argument exists so callers state which total they passed.
func (t Thresholds) Classify(amount decimal.Decimal, _ Direction, runningTotal decimal.Decimal, tier Tier) Badge {
	if tier == TierAggregate {
		return t.ClassifyAggregate(runningTotal.Add(amount))
	}
	return t.ClassifyEntry(amount)
}

func (t Thresholds) classify(amount decimal.Decimal) Badge {
	switch {
	case amount.GreaterThan(t.CTRAmount):
		return BadgeCTRMet
	case amount.GreaterThanOrEqual(t.nearFloor()):
		return BadgeCTRNear
	case amount.GreaterThanOrEqual(t.WatchlistFloor):
		return BadgeWatchlistNear
	default:
		return BadgeNone
	}
}
