package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateGamingTable(ctx context.Context, t GamingTable) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO gaming_tables (id, casino_id, name, game_code) VALUES ($1,$2,$3,$4)`,
		t.ID, t.CasinoID, t.Name, t.GameCode,
	)
	return err
}

func (s *Store) ListGamingTables(ctx context.Context, casinoID string) ([]GamingTable, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, casino_id, name, game_code, created_at
		FROM gaming_tables WHERE casino_id = $1 ORDER BY name ASC`, casinoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GamingTable{}
	for rows.Next() {
		var t GamingTable
		if err := rows.Scan(&t.ID, &t.CasinoID, &t.Name, &t.GameCode, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpsertGameSetting(ctx context.Context, gs GameSetting) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO game_settings (casino_id, game_code, house_edge, decisions_per_hour, point_conversion)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (casino_id, game_code) DO UPDATE SET
			house_edge = EXCLUDED.house_edge,
			decisions_per_hour = EXCLUDED.decisions_per_hour,
			point_conversion = EXCLUDED.point_conversion,
			updated_at = now()`,
		gs.CasinoID, gs.GameCode, numericParam(gs.HouseEdge), gs.DecisionsPerHour, numericParam(gs.PointConversion),
	)
	return err
}

// GetTablePolicy reads the current game policy for a table. Callers
// snapshot the result onto the slip at open time; nothing re-reads it for
// an open session.
func (s *Store) GetTablePolicy(ctx context.Context, casinoID, tableID string) (*PolicySnapshot, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT gs.house_edge, gs.decisions_per_hour, gs.point_conversion
		FROM gaming_tables t
		JOIN game_settings gs ON gs.casino_id = t.casino_id AND gs.game_code = t.game_code
		WHERE t.casino_id = $1 AND t.id = $2`,
		casinoID, tableID,
	)
	var (
		edge, conv pgtype.Numeric
		decisions  int32
	)
	if err := row.Scan(&edge, &decisions, &conv); err != nil {
		return nil, mapNotFound(err)
	}
	return &PolicySnapshot{
		HouseEdge:        numericVal(edge),
		DecisionsPerHour: int(decisions),
		PointConversion:  numericVal(conv),
	}, nil
}

func (s *Store) CountGamingTables(ctx context.Context, casinoID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM gaming_tables WHERE casino_id = $1`, casinoID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// EnsureDefaults seeds a small pit so a fresh install can rate play
// immediately.
func (s *Store) EnsureDefaults(ctx context.Context, casinoID string) error {
	defaults := []GameSetting{
		{CasinoID: casinoID, GameCode: "blackjack", HouseEdge: decimal.RequireFromString("0.0125"), DecisionsPerHour: 70, PointConversion: decimal.RequireFromString("10")},
		{CasinoID: casinoID, GameCode: "baccarat", HouseEdge: decimal.RequireFromString("0.0106"), DecisionsPerHour: 40, PointConversion: decimal.RequireFromString("10")},
		{CasinoID: casinoID, GameCode: "roulette", HouseEdge: decimal.RequireFromString("0.0526"), DecisionsPerHour: 35, PointConversion: decimal.RequireFromString("10")},
	}
	for _, gs := range defaults {
		if err := s.UpsertGameSetting(ctx, gs); err != nil {
			return err
		}
	}
	c, err := s.CountGamingTables(ctx, casinoID)
	if err != nil {
		return err
	}
	if c > 0 {
		return nil
	}
	tables := []GamingTable{
		{ID: NewID(), CasinoID: casinoID, Name: "BJ-01", GameCode: "blackjack"},
		{ID: NewID(), CasinoID: casinoID, Name: "BJ-02", GameCode: "blackjack"},
		{ID: NewID(), CasinoID: casinoID, Name: "BAC-01", GameCode: "baccarat"},
		{ID: NewID(), CasinoID: casinoID, Name: "ROU-01", GameCode: "roulette"},
	}
	for _, t := range tables {
		if err := s.CreateGamingTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
