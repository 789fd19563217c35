package store

import (
	"time"

	"pitboss/internal/compliance"

	"github.com/shopspring/decimal"
)

type SlipStatus string

const (
	SlipOpen   SlipStatus = "open"
	SlipClosed SlipStatus = "closed"
)

type CloseReason string

const (
	CloseSettled CloseReason = "settled"
	CloseMoved   CloseReason = "moved"
)

type Player struct {
	ID        string
	CasinoID  string
	Name      string
	CreatedAt time.Time
}

// Visit groups one patron's floor presence across possibly many slips.
// PlayerID is nil for ghost visits (unidentified patrons).
type Visit struct {
	ID        string
	CasinoID  string
	PlayerID  *string
	StartedAt time.Time
	EndedAt   *time.Time
}

type GamingTable struct {
	ID        string
	CasinoID  string
	Name      string
	GameCode  string
	CreatedAt time.Time
}

type GameSetting struct {
	CasinoID         string
	GameCode         string
	HouseEdge        decimal.Decimal
	DecisionsPerHour int
	PointConversion  decimal.Decimal
	UpdatedAt        time.Time
}

// PolicySnapshot is the game policy frozen onto a slip at open time.
// Later setting changes never alter sessions already open.
type PolicySnapshot struct {
	HouseEdge        decimal.Decimal
	DecisionsPerHour int
	PointConversion  decimal.Decimal
}

// RatingSlip is a timed record of a patron occupying a seat at a table.
// Move never mutates table or seat in place; it closes the slip and
// inserts a successor row linked through PreviousSlipID and MoveGroupID.
type RatingSlip struct {
	ID                 string
	CasinoID           string
	VisitID            string
	TableID            string
	Seat               *string
	Status             SlipStatus
	ClosedReason       *CloseReason
	AverageBet         decimal.Decimal
	StartedAt          time.Time
	EndedAt            *time.Time
	PreviousSlipID     *string
	MoveGroupID        *string
	AccumulatedSeconds int64
	Policy             PolicySnapshot
}

const AccrualReason = "base_accrual"

// LoyaltyLedgerEntry is an immutable points change for a (player, casino)
// pair. At most one AccrualReason entry may exist per (casino, slip).
type LoyaltyLedgerEntry struct {
	ID           string
	CasinoID     string
	PlayerID     string
	RatingSlipID *string
	Points       int64
	Reason       string
	CreatedAt    time.Time
}

// ComplianceEntry is one cash-in or cash-out event on the multiple
// transaction log. Append-only; never mutated, never deleted.
type ComplianceEntry struct {
	ID        string
	CasinoID  string
	PlayerID  string
	Direction compliance.Direction
	Amount    decimal.Decimal
	TxCode    string
	GamingDay string
	CreatedAt time.Time
}

// GamingDaySummary is the derived per-(patron, gaming day) aggregate.
// It must always be reproducible by summing compliance entries; it
// exists for query efficiency, not as a source of truth.
type GamingDaySummary struct {
	CasinoID     string
	PlayerID     string
	GamingDay    string
	CashInTotal  decimal.Decimal
	CashOutTotal decimal.Decimal
	InCount      int
	OutCount     int
	BadgeIn      compliance.Badge
	BadgeOut     compliance.Badge
	UpdatedAt    time.Time
}
