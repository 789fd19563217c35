package mtl

import (
	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

type RecordCashParams struct {
	PlayerID  string
	Direction compliance.Direction
	Amount    decimal.Decimal
	TxCode    string
}

// RecordCashResult reports both classification tiers for the event just
// recorded. The aggregate badge is the authoritative one.
type RecordCashResult struct {
	EntryID        string
	GamingDay      string
	EntryBadge     compliance.Badge
	AggregateBadge compliance.Badge
	Summary        *store.GamingDaySummary
}

type EntriesFilter struct {
	PlayerID  string
	GamingDay string
	Direction string
}
