package store

import (
	"context"
	"time"

	"pitboss/internal/compliance"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BadgeFunc classifies a cumulative per-direction total. The store stays
// ignorant of threshold configuration; callers pass the classifier.
type BadgeFunc func(total decimal.Decimal) compliance.Badge

// RecordComplianceEntry appends the entry and folds it into the gaming
// day summary in one transaction. The summary upsert locks the row, so
// concurrent recorders for the same (patron, day) serialize and each
// badge is computed from a consistent total.
func (s *Store) RecordComplianceEntry(ctx context.Context, e ComplianceEntry, badgeFor BadgeFunc) (*GamingDaySummary, error) {
	if e.ID == "" {
		e.ID = NewID()
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO compliance_entries (id, casino_id, player_id, direction, amount, tx_code, gaming_day)
		VALUES ($1,$2,$3,$4,$5,$6,$7::date)`,
		e.ID, e.CasinoID, e.PlayerID, string(e.Direction), numericParam(e.Amount), e.TxCode, e.GamingDay,
	); err != nil {
		return nil, err
	}

	inAmount, outAmount := decimal.Zero, decimal.Zero
	inCount, outCount := 0, 0
	if e.Direction == compliance.DirectionIn {
		inAmount, inCount = e.Amount, 1
	} else {
		outAmount, outCount = e.Amount, 1
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO gaming_day_summaries (casino_id, player_id, gaming_day, cash_in_total, cash_out_total, in_count, out_count)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7)
		ON CONFLICT (casino_id, player_id, gaming_day) DO UPDATE SET
			cash_in_total = gaming_day_summaries.cash_in_total + EXCLUDED.cash_in_total,
			cash_out_total = gaming_day_summaries.cash_out_total + EXCLUDED.cash_out_total,
			in_count = gaming_day_summaries.in_count + EXCLUDED.in_count,
			out_count = gaming_day_summaries.out_count + EXCLUDED.out_count,
			updated_at = now()
		RETURNING cash_in_total, cash_out_total, in_count, out_count`,
		e.CasinoID, e.PlayerID, e.GamingDay, numericParam(inAmount), numericParam(outAmount), inCount, outCount,
	)
	var (
		inTotal, outTotal pgtype.Numeric
	)
	summary := GamingDaySummary{CasinoID: e.CasinoID, PlayerID: e.PlayerID, GamingDay: e.GamingDay}
	if err := row.Scan(&inTotal, &outTotal, &summary.InCount, &summary.OutCount); err != nil {
		return nil, err
	}
	summary.CashInTotal = numericVal(inTotal)
	summary.CashOutTotal = numericVal(outTotal)
	summary.BadgeIn = badgeFor(summary.CashInTotal)
	summary.BadgeOut = badgeFor(summary.CashOutTotal)

	if _, err := tx.Exec(ctx, `
		UPDATE gaming_day_summaries
		SET badge_in = $4, badge_out = $5
		WHERE casino_id = $1 AND player_id = $2 AND gaming_day = $3::date`,
		e.CasinoID, e.PlayerID, e.GamingDay, string(summary.BadgeIn), string(summary.BadgeOut),
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	summary.UpdatedAt = time.Now()
	return &summary, nil
}

func (s *Store) GetGamingDaySummary(ctx context.Context, casinoID, playerID, gamingDay string) (*GamingDaySummary, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT casino_id, player_id, gaming_day::text, cash_in_total, cash_out_total,
		       in_count, out_count, badge_in, badge_out, updated_at
		FROM gaming_day_summaries
		WHERE casino_id = $1 AND player_id = $2 AND gaming_day = $3::date`,
		casinoID, playerID, gamingDay,
	)
	return scanGamingDaySummary(row)
}

func scanGamingDaySummary(row rowScanner) (*GamingDaySummary, error) {
	var (
		sum               GamingDaySummary
		inTotal, outTotal pgtype.Numeric
		badgeIn, badgeOut string
	)
	err := row.Scan(&sum.CasinoID, &sum.PlayerID, &sum.GamingDay, &inTotal, &outTotal,
		&sum.InCount, &sum.OutCount, &badgeIn, &badgeOut, &sum.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	sum.CashInTotal = numericVal(inTotal)
	sum.CashOutTotal = numericVal(outTotal)
	sum.BadgeIn = compliance.Badge(badgeIn)
	sum.BadgeOut = compliance.Badge(badgeOut)
	return &sum, nil
}

type ComplianceFilter struct {
	PlayerID  string
	GamingDay string
	Direction string
}

func (s *Store) ListComplianceEntries(ctx context.Context, casinoID string, f ComplianceFilter, limit, offset int) ([]ComplianceEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, casino_id, player_id, direction, amount, tx_code, gaming_day::text, created_at
		FROM compliance_entries
		WHERE casino_id = $1
		  AND ($2 = '' OR player_id = $2)
		  AND ($3 = '' OR gaming_day = $3::date)
		  AND ($4 = '' OR direction = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		casinoID, f.PlayerID, f.GamingDay, f.Direction, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ComplianceEntry{}
	for rows.Next() {
		var (
			e         ComplianceEntry
			direction string
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.CasinoID, &e.PlayerID, &direction, &amount, &e.TxCode, &e.GamingDay, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Direction = compliance.Direction(direction)
		e.Amount = numericVal(amount)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecomputeGamingDaySummaries rebuilds the derived summaries for one
// gaming day from the compliance entries, replacing whatever is stored.
// Summaries are not authoritative; this is the proof.
func (s *Store) RecomputeGamingDaySummaries(ctx context.Context, casinoID, gamingDay string, badgeFor BadgeFunc) (int, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT player_id,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'in'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'out'), 0),
		       COUNT(*) FILTER (WHERE direction = 'in'),
		       COUNT(*) FILTER (WHERE direction = 'out')
		FROM compliance_entries
		WHERE casino_id = $1 AND gaming_day = $2::date
		GROUP BY player_id`,
		casinoID, gamingDay,
	)
	if err != nil {
		return 0, err
	}
	type rebuilt struct {
		playerID          string
		inTotal, outTotal decimal.Decimal
		inCount, outCount int
	}
	var all []rebuilt
	for rows.Next() {
		var (
			r                 rebuilt
			inTotal, outTotal pgtype.Numeric
		)
		if err := rows.Scan(&r.playerID, &inTotal, &outTotal, &r.inCount, &r.outCount); err != nil {
			rows.Close()
			return 0, err
		}
		r.inTotal = numericVal(inTotal)
		r.outTotal = numericVal(outTotal)
		all = append(all, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, r := range all {
		_, err := s.Pool.Exec(ctx, `
			INSERT INTO gaming_day_summaries (casino_id, player_id, gaming_day, cash_in_total, cash_out_total, in_count, out_count, badge_in, badge_out)
			VALUES ($1,$2,$3::date,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (casino_id, player_id, gaming_day) DO UPDATE SET
				cash_in_total = EXCLUDED.cash_in_total,
				cash_out_total = EXCLUDED.cash_out_total,
				in_count = EXCLUDED.in_count,
				out_count = EXCLUDED.out_count,
				badge_in = EXCLUDED.badge_in,
				badge_out = EXCLUDED.badge_out,
				updated_at = now()`,
			casinoID, r.playerID, gamingDay,
			numericParam(r.inTotal), numericParam(r.outTotal), r.inCount, r.outCount,
			string(badgeFor(r.inTotal)), string(badgeFor(r.outTotal)),
		)
		if err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
