// Package rating owns the rating-slip lifecycle: open, close, and the
// move operation that closes one slip and opens a linked successor. It
// is the entry point the floor-operations surface calls; it sequences
// cash recording, the state transition, and accrual dispatch.
package rating

import (
	"context"
	"errors"
	"time"

	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Store is the persistence the lifecycle needs. *store.Store satisfies it.
type Store interface {
	GetVisit(ctx context.Context, id string) (*store.Visit, error)
	GetRatingSlip(ctx context.Context, id string) (*store.RatingSlip, error)
	GetTablePolicy(ctx context.Context, casinoID, tableID string) (*store.PolicySnapshot, error)
	CreateRatingSlip(ctx context.Context, slip store.RatingSlip) error
	CloseRatingSlip(ctx context.Context, id string, finalAverageBet *decimal.Decimal, reason store.CloseReason) (*store.RatingSlip, error)
	SetRatingSlipAverageBet(ctx context.Context, id string, averageBet decimal.Decimal) error
	ListOpenSlipsByTable(ctx context.Context, casinoID, tableID string) ([]store.RatingSlip, error)
	SeatAvailable(ctx context.Context, casinoID, tableID, seat string) (bool, error)
}

// CashRecorder records a settlement cash-out on the multiple transaction
// log and returns the entry- and aggregate-tier badges it produced.
type CashRecorder interface {
	RecordCashOut(ctx context.Context, playerID string, amount decimal.Decimal, at time.Time) (entry, aggregate compliance.Badge, err error)
}

// AccrualDispatcher schedules loyalty accrual for a closed slip.
// Implementations must be safe to call repeatedly for the same slip.
type AccrualDispatcher interface {
	Dispatch(casinoID, slipID string) bool
}

type Service struct {
	store      Store
	cash       CashRecorder
	dispatcher AccrualDispatcher
	casinoID   string
}

func NewService(st Store, cash CashRecorder, dispatcher AccrualDispatcher, casinoID string) *Service {
	return &Service{store: st, cash: cash, dispatcher: dispatcher, casinoID: casinoID}
}

// Open starts a rated session. Seat exclusivity is enforced by the
// store's partial unique index, not by this pre-flight validation.
func (s *Service) Open(ctx context.Context, p OpenParams) (*store.RatingSlip, error) {
	if p.VisitID == "" || p.TableID == "" || p.AverageBet.Sign() < 0 {
		return nil, ErrInvalidRequest
	}
	if _, err := s.store.GetVisit(ctx, p.VisitID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	policy, err := s.store.GetTablePolicy(ctx, s.casinoID, p.TableID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	slip := store.RatingSlip{
		ID:         store.NewID(),
		CasinoID:   s.casinoID,
		VisitID:    p.VisitID,
		TableID:    p.TableID,
		Seat:       p.Seat,
		Status:     store.SlipOpen,
		AverageBet: p.AverageBet,
		StartedAt:  time.Now(),
		Policy:     *policy,
	}
	if err := s.store.CreateRatingSlip(ctx, slip); err != nil {
		if errors.Is(err, store.ErrOpenSeatConflict) {
			return nil, ErrSeatOccupied
		}
		return nil, err
	}
	return &slip, nil
}

// SetAverageBet is the only mutation allowed on an open slip.
func (s *Service) SetAverageBet(ctx context.Context, slipID string, averageBet decimal.Decimal) error {
	if slipID == "" || averageBet.Sign() < 0 {
		return ErrInvalidRequest
	}
	return s.mapSlipErr(s.store.SetRatingSlipAverageBet(ctx, slipID, averageBet))
}

// Close ends a session with no settlement cash. Accrual still fires.
func (s *Service) Close(ctx context.Context, slipID string, finalAverageBet *decimal.Decimal) (*CloseResult, error) {
	return s.CloseWithSettlement(ctx, slipID, decimal.Zero, finalAverageBet)
}

// CloseWithSettlement settles and closes a slip. The cash-out recording
// is best-effort: its failure is surfaced as a warning, never as a
// rollback of the close. The close itself is the critical path. Accrual
// dispatch is fire-and-forget and idempotent per slip id.
func (s *Service) CloseWithSettlement(ctx context.Context, slipID string, cashOut decimal.Decimal, finalAverageBet *decimal.Decimal) (*CloseResult, error) {
	if slipID == "" || cashOut.Sign() < 0 {
		return nil, ErrInvalidRequest
	}
	slip, err := s.store.GetRatingSlip(ctx, slipID)
	if err != nil {
		return nil, s.mapSlipErr(err)
	}
	// Cash recording is a side effect outside the close transaction, so
	// a retried close of an already-closed slip must bail out here or it
	// would append a duplicate observation before the close guard fires.
	if slip.Status != store.SlipOpen {
		return nil, ErrAlreadyClosed
	}
	visit, err := s.store.GetVisit(ctx, slip.VisitID)
	if err != nil {
		return nil, err
	}

	res := &CloseResult{}
	if cashOut.Sign() > 0 && visit.PlayerID != nil {
		entry, aggregate, err := s.cash.RecordCashOut(ctx, *visit.PlayerID, cashOut, time.Now())
		if err != nil {
			log.Warn().Err(err).Str("slip_id", slipID).Msg("settlement cash-out recording failed")
			res.Warnings = append(res.Warnings, "cash_observation_failed")
		} else {
			res.EntryBadge = entry
			res.AggregateBadge = aggregate
		}
	}

	closed, err := s.store.CloseRatingSlip(ctx, slipID, finalAverageBet, store.CloseSettled)
	if err != nil {
		return nil, s.mapSlipErr(err)
	}
	res.Slip = closed

	if visit.PlayerID != nil {
		if !s.dispatcher.Dispatch(s.casinoID, closed.ID) {
			res.Warnings = append(res.Warnings, "accrual_not_queued")
		}
	}
	return res, nil
}

// MovePlayer closes the source slip (reason: moved) and opens a linked
// successor at the destination. The two writes are not one transaction:
// if the destination open fails after the source close committed, the
// source stays closed and the caller recovers with a fresh Open. Accrual
// for the source fires as soon as its close commits, so a failed
// destination never forfeits the points of the segment just ended.
func (s *Service) MovePlayer(ctx context.Context, p MoveParams) (*MoveResult, error) {
	if p.SlipID == "" || p.DestTableID == "" || p.DestSeat == "" {
		return nil, ErrInvalidRequest
	}
	source, err := s.store.GetRatingSlip(ctx, p.SlipID)
	if err != nil {
		return nil, s.mapSlipErr(err)
	}
	if source.Status != store.SlipOpen {
		return nil, ErrAlreadyClosed
	}

	// A slip may move onto its own seat; the source closes before the
	// successor inserts, so the seat index permits it. Any other
	// occupied destination is rejected before touching the source.
	sameSeat := source.TableID == p.DestTableID && source.Seat != nil && *source.Seat == p.DestSeat
	if !sameSeat {
		free, err := s.store.SeatAvailable(ctx, s.casinoID, p.DestTableID, p.DestSeat)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, ErrSeatOccupied
		}
	}

	// The successor is a fresh open, so it snapshots the destination
	// table's current policy; the source keeps the snapshot it opened
	// with.
	policy, err := s.store.GetTablePolicy(ctx, s.casinoID, p.DestTableID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	closed, err := s.store.CloseRatingSlip(ctx, p.SlipID, p.FinalAverageBet, store.CloseMoved)
	if err != nil {
		return nil, s.mapSlipErr(err)
	}

	res := &MoveResult{ClosedSlipID: closed.ID}
	visit, visitErr := s.store.GetVisit(ctx, closed.VisitID)
	identified := visitErr == nil && visit.PlayerID != nil
	dispatchAccrual := func() {
		if identified && !s.dispatcher.Dispatch(s.casinoID, closed.ID) {
			res.Warnings = append(res.Warnings, "accrual_not_queued")
		}
	}

	moveGroup := store.NewID()
	if closed.MoveGroupID != nil {
		moveGroup = *closed.MoveGroupID
	}
	successor := store.RatingSlip{
		ID:                 store.NewID(),
		CasinoID:           s.casinoID,
		VisitID:            closed.VisitID,
		TableID:            p.DestTableID,
		Seat:               &p.DestSeat,
		Status:             store.SlipOpen,
		AverageBet:         closed.AverageBet,
		StartedAt:          time.Now(),
		PreviousSlipID:     &closed.ID,
		MoveGroupID:        &moveGroup,
		AccumulatedSeconds: closed.AccumulatedSeconds,
		Policy:             *policy,
	}
	if err := s.store.CreateRatingSlip(ctx, successor); err != nil {
		dispatchAccrual()
		if errors.Is(err, store.ErrOpenSeatConflict) {
			log.Warn().Str("slip_id", closed.ID).Str("dest_table", p.DestTableID).Str("dest_seat", p.DestSeat).
				Msg("move destination occupied after source close; patron left unseated")
			return nil, ErrSeatOccupied
		}
		return nil, err
	}
	dispatchAccrual()

	res.NewSlip = &successor
	res.MoveGroupID = moveGroup
	return res, nil
}

func (s *Service) OpenSlipsByTable(ctx context.Context, tableID string) ([]store.RatingSlip, error) {
	if tableID == "" {
		return nil, ErrInvalidRequest
	}
	return s.store.ListOpenSlipsByTable(ctx, s.casinoID, tableID)
}

func (s *Service) Slip(ctx context.Context, slipID string) (*store.RatingSlip, error) {
	if slipID == "" {
		return nil, ErrInvalidRequest
	}
	slip, err := s.store.GetRatingSlip(ctx, slipID)
	if err != nil {
		return nil, s.mapSlipErr(err)
	}
	return slip, nil
}

func (s *Service) mapSlipErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrSlipNotFound
	case errors.Is(err, store.ErrSlipNotOpen):
		return ErrAlreadyClosed
	default:
		return err
	}
}
