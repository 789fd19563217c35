package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const ratingSlipColumns = `id, casino_id, visit_id, table_id, seat, status, closed_reason,
	average_bet, started_at, ended_at, previous_slip_id, move_group_id,
	accumulated_seconds, house_edge, decisions_per_hour, point_conversion`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRatingSlip(row rowScanner) (*RatingSlip, error) {
	var (
		slip       RatingSlip
		seat       pgtype.Text
		status     string
		reason     pgtype.Text
		avgBet     pgtype.Numeric
		endedAt    pgtype.Timestamptz
		prevSlip   pgtype.Text
		moveGroup  pgtype.Text
		houseEdge  pgtype.Numeric
		decisions  int32
		conversion pgtype.Numeric
	)
	err := row.Scan(
		&slip.ID, &slip.CasinoID, &slip.VisitID, &slip.TableID, &seat, &status, &reason,
		&avgBet, &slip.StartedAt, &endedAt, &prevSlip, &moveGroup,
		&slip.AccumulatedSeconds, &houseEdge, &decisions, &conversion,
	)
	if err != nil {
		return nil, err
	}
	slip.Seat = textPtrVal(seat)
	slip.Status = SlipStatus(status)
	if r := textPtrVal(reason); r != nil {
		cr := CloseReason(*r)
		slip.ClosedReason = &cr
	}
	slip.AverageBet = numericVal(avgBet)
	slip.EndedAt = timePtrVal(endedAt)
	slip.PreviousSlipID = textPtrVal(prevSlip)
	slip.MoveGroupID = textPtrVal(moveGroup)
	slip.Policy = PolicySnapshot{
		HouseEdge:        numericVal(houseEdge),
		DecisionsPerHour: int(decisions),
		PointConversion:  numericVal(conversion),
	}
	return &slip, nil
}

// CreateRatingSlip inserts a new open slip. The one-open-slip-per-seat
// partial unique index is the arbiter of seat exclusivity; a violation
// maps to ErrOpenSeatConflict.
func (s *Store) CreateRatingSlip(ctx context.Context, slip RatingSlip) error {
	startedAt := slip.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO rating_slips (
			id, casino_id, visit_id, table_id, seat, status, average_bet,
			started_at, previous_slip_id, move_group_id, accumulated_seconds,
			house_edge, decisions_per_hour, point_conversion
		) VALUES ($1,$2,$3,$4,$5,'open',$6,$7,$8,$9,$10,$11,$12,$13)`,
		slip.ID, slip.CasinoID, slip.VisitID, slip.TableID, textPtrParam(slip.Seat),
		numericParam(slip.AverageBet), startedAt,
		textPtrParam(slip.PreviousSlipID), textPtrParam(slip.MoveGroupID),
		slip.AccumulatedSeconds,
		numericParam(slip.Policy.HouseEdge), int32(slip.Policy.DecisionsPerHour),
		numericParam(slip.Policy.PointConversion),
	)
	if err != nil {
		if isUniqueViolation(err, "rating_slips_one_open_per_seat") {
			return ErrOpenSeatConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetRatingSlip(ctx context.Context, id string) (*RatingSlip, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ratingSlipColumns+` FROM rating_slips WHERE id = $1`, id)
	slip, err := scanRatingSlip(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return slip, nil
}

// CloseRatingSlip transitions a slip to closed. The status='open' guard
// in the WHERE clause is the commit-time re-check: of two racers exactly
// one sees a row, the other gets ErrSlipNotOpen.
func (s *Store) CloseRatingSlip(ctx context.Context, id string, finalAverageBet *decimal.Decimal, reason CloseReason) (*RatingSlip, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE rating_slips
		SET status = 'closed',
		    closed_reason = $2,
		    ended_at = now(),
		    average_bet = COALESCE($3, average_bet),
		    accumulated_seconds = accumulated_seconds
		        + GREATEST(0, EXTRACT(EPOCH FROM (now() - started_at))::bigint)
		WHERE id = $1 AND status = 'open'
		RETURNING `+ratingSlipColumns,
		id, string(reason), numericPtrParam(finalAverageBet),
	)
	slip, err := scanRatingSlip(row)
	if err == nil {
		return slip, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, getErr := s.GetRatingSlip(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrSlipNotOpen
}

func (s *Store) SetRatingSlipAverageBet(ctx context.Context, id string, averageBet decimal.Decimal) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE rating_slips SET average_bet = $2 WHERE id = $1 AND status = 'open'`,
		id, numericParam(averageBet),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetRatingSlip(ctx, id); getErr != nil {
			return getErr
		}
		return ErrSlipNotOpen
	}
	return nil
}

func (s *Store) ListOpenSlipsByTable(ctx context.Context, casinoID, tableID string) ([]RatingSlip, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ratingSlipColumns+`
		FROM rating_slips
		WHERE casino_id = $1 AND table_id = $2 AND status = 'open'
		ORDER BY seat ASC NULLS LAST, started_at ASC`,
		casinoID, tableID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RatingSlip{}
	for rows.Next() {
		slip, err := scanRatingSlip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *slip)
	}
	return out, rows.Err()
}

// SeatAvailable is an advisory pre-check; CreateRatingSlip's constraint
// is the real arbiter.
func (s *Store) SeatAvailable(ctx context.Context, casinoID, tableID, seat string) (bool, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT NOT EXISTS (
			SELECT 1 FROM rating_slips
			WHERE casino_id = $1 AND table_id = $2 AND seat = $3 AND status = 'open'
		)`, casinoID, tableID, seat)
	var free bool
	if err := row.Scan(&free); err != nil {
		return false, err
	}
	return free, nil
}
