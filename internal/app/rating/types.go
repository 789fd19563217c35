package rating

import (
	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

type OpenParams struct {
	VisitID    string
	TableID    string
	Seat       *string
	AverageBet decimal.Decimal
}

type MoveParams struct {
	SlipID          string
	DestTableID     string
	DestSeat        string
	FinalAverageBet *decimal.Decimal
}

// CloseResult reports the settled slip plus any badges produced by the
// settlement's cash observation. Warnings carry best-effort failures
// that did not block the close.
type CloseResult struct {
	Slip           *store.RatingSlip
	EntryBadge     compliance.Badge
	AggregateBadge compliance.Badge
	Warnings       []string
}

type MoveResult struct {
	ClosedSlipID string
	NewSlip      *store.RatingSlip
	MoveGroupID  string
	Warnings     []string
}
