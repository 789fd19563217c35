package compliance

// Badge is a compliance severity level for a cash amount or a cumulative
// gaming-day total. Levels are ordered; Severity gives the ordering.
type Badge string

const (
	BadgeNone          Badge = "none"
	BadgeWatchlistNear Badge = "watchlist_near"
	BadgeCTRNear       Badge = "ctr_near"
	BadgeCTRMet        Badge = "ctr_met"
)

func (b Badge) Valid() bool {
	switch b {
	case BadgeNone, BadgeWatchlistNear, BadgeCTRNear, BadgeCTRMet:
		return true
	}
	return false
}

// Severity orders badges from none (0) to ctr_met (3). Unknown badges
// rank below none.
func (b Badge) Severity() int {
	switch b {
	case BadgeNone:
		return 0
	case BadgeWatchlistNear:
		return 1
	case BadgeCTRNear:
		return 2
	case BadgeCTRMet:
		return 3
	}
	return -1
}

// Direction of a cash movement relative to the casino cage.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Tier selects which classification applies: per-transaction (entry) or
// cumulative per patron per gaming day (aggregate, the authoritative one).
type Tier string

const (
	TierEntry     Tier = "entry"
	TierAggregate Tier = "aggregate"
)

func (t Tier) Valid() bool {
	return t == TierEntry || t == TierAggregate
}
