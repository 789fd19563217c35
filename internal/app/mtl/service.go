// Package mtl maintains the multiple transaction log: every cash-in and
// cash-out is recorded as an immutable compliance entry and folded into
// the per-(patron, gaming day) summary the moment it happens. The
// regulatory obligation attaches at the crossing, so recording is
// synchronous with the cash event, never deferred.
package mtl

import (
	"context"
	"errors"
	"time"

	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

// Store is the persistence slice the log needs. *store.Store satisfies it.
type Store interface {
	GetPlayer(ctx context.Context, id string) (*store.Player, error)
	RecordComplianceEntry(ctx context.Context, e store.ComplianceEntry, badgeFor store.BadgeFunc) (*store.GamingDaySummary, error)
	GetGamingDaySummary(ctx context.Context, casinoID, playerID, gamingDay string) (*store.GamingDaySummary, error)
	ListComplianceEntries(ctx context.Context, casinoID string, f store.ComplianceFilter, limit, offset int) ([]store.ComplianceEntry, error)
}

type Service struct {
	store      Store
	casinoID   string
	thresholds compliance.Thresholds
	days       *compliance.Resolver
}

func NewService(st Store, casinoID string, thresholds compliance.Thresholds, days *compliance.Resolver) *Service {
	return &Service{store: st, casinoID: casinoID, thresholds: thresholds, days: days}
}

// Thresholds exposes the configured classifier for the pure classify
// surface.
func (s *Service) Thresholds() compliance.Thresholds {
	return s.thresholds
}

// RecordCashObservation appends a cash event to the log and returns both
// badge tiers. The gaming day is resolved from `at` exactly once here.
func (s *Service) RecordCashObservation(ctx context.Context, p RecordCashParams, at time.Time) (*RecordCashResult, error) {
	if p.PlayerID == "" || !p.Direction.Valid() || p.Amount.Sign() <= 0 {
		return nil, ErrInvalidRequest
	}
	if _, err := s.store.GetPlayer(ctx, p.PlayerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	txCode := p.TxCode
	if txCode == "" {
		if p.Direction == compliance.DirectionIn {
			txCode = "buy_in"
		} else {
			txCode = "chip_redemption"
		}
	}
	entry := store.ComplianceEntry{
		ID:        store.NewID(),
		CasinoID:  s.casinoID,
		PlayerID:  p.PlayerID,
		Direction: p.Direction,
		Amount:    p.Amount,
		TxCode:    txCode,
		GamingDay: s.days.Resolve(at),
	}
	summary, err := s.store.RecordComplianceEntry(ctx, entry, s.thresholds.ClassifyAggregate)
	if err != nil {
		return nil, err
	}
	aggregate := summary.BadgeIn
	if p.Direction == compliance.DirectionOut {
		aggregate = summary.BadgeOut
	}
	return &RecordCashResult{
		EntryID:        entry.ID,
		GamingDay:      entry.GamingDay,
		EntryBadge:     s.thresholds.ClassifyEntry(p.Amount),
		AggregateBadge: aggregate,
		Summary:        summary,
	}, nil
}

// RecordCashOut is the settlement hook the rating orchestrator calls.
func (s *Service) RecordCashOut(ctx context.Context, playerID string, amount decimal.Decimal, at time.Time) (compliance.Badge, compliance.Badge, error) {
	res, err := s.RecordCashObservation(ctx, RecordCashParams{
		PlayerID:  playerID,
		Direction: compliance.DirectionOut,
		Amount:    amount,
	}, at)
	if err != nil {
		return "", "", err
	}
	return res.EntryBadge, res.AggregateBadge, nil
}

// Summary returns the patron's gaming-day aggregate. An empty gamingDay
// means the day containing `at`.
func (s *Service) Summary(ctx context.Context, playerID, gamingDay string, at time.Time) (*store.GamingDaySummary, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	if gamingDay == "" {
		gamingDay = s.days.Resolve(at)
	}
	sum, err := s.store.GetGamingDaySummary(ctx, s.casinoID, playerID, gamingDay)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActivity
		}
		return nil, err
	}
	return sum, nil
}

func (s *Service) Entries(ctx context.Context, f EntriesFilter, limit, offset int) ([]store.ComplianceEntry, error) {
	return s.store.ListComplianceEntries(ctx, s.casinoID, store.ComplianceFilter{
		PlayerID:  f.PlayerID,
		GamingDay: f.GamingDay,
		Direction: f.Direction,
	}, limit, offset)
}
