package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// InsertAccrualIfAbsent appends a base-accrual ledger entry unless one
// already exists for the (casino, slip) pair. The partial unique index is
// the sole arbiter of "first writer wins"; a duplicate insert is a clean
// no-op. Returns whether this call inserted the entry.
func (s *Store) InsertAccrualIfAbsent(ctx context.Context, e LoyaltyLedgerEntry) (bool, error) {
	if e.ID == "" {
		e.ID = NewID()
	}
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO loyalty_ledger (id, casino_id, player_id, rating_slip_id, points, reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (casino_id, rating_slip_id) WHERE reason = 'base_accrual' DO NOTHING`,
		e.ID, e.CasinoID, e.PlayerID, textPtrParam(e.RatingSlipID), e.Points, AccrualReason,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type LoyaltyFilter struct {
	PlayerID     string
	RatingSlipID string
	Reason       string
}

func (s *Store) ListLoyaltyEntries(ctx context.Context, casinoID string, f LoyaltyFilter, limit, offset int) ([]LoyaltyLedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, casino_id, player_id, rating_slip_id, points, reason, created_at
		FROM loyalty_ledger
		WHERE casino_id = $1
		  AND ($2 = '' OR player_id = $2)
		  AND ($3 = '' OR rating_slip_id = $3)
		  AND ($4 = '' OR reason = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		casinoID, f.PlayerID, f.RatingSlipID, f.Reason, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LoyaltyLedgerEntry{}
	for rows.Next() {
		var (
			e      LoyaltyLedgerEntry
			slipID pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.CasinoID, &e.PlayerID, &slipID, &e.Points, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RatingSlipID = textPtrVal(slipID)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CountAccrualsBySlip(ctx context.Context, casinoID, slipID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM loyalty_ledger
		WHERE casino_id = $1 AND rating_slip_id = $2 AND reason = 'base_accrual'`,
		casinoID, slipID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (s *Store) PlayerPointsBalance(ctx context.Context, casinoID, playerID string) (int64, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger
		WHERE casino_id = $1 AND player_id = $2`,
		casinoID, playerID)
	var bal int64
	if err := row.Scan(&bal); err != nil {
		return 0, err
	}
	return bal, nil
}
