package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CreatePlayer(ctx context.Context, p Player) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO players (id, casino_id, name) VALUES ($1,$2,$3)`,
		p.ID, p.CasinoID, p.Name,
	)
	return err
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*Player, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, casino_id, name, created_at FROM players WHERE id = $1`, id)
	var p Player
	if err := row.Scan(&p.ID, &p.CasinoID, &p.Name, &p.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// CreateVisit opens a floor presence. PlayerID nil makes a ghost visit.
func (s *Store) CreateVisit(ctx context.Context, v Visit) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO visits (id, casino_id, player_id) VALUES ($1,$2,$3)`,
		v.ID, v.CasinoID, textPtrParam(v.PlayerID),
	)
	return err
}

func (s *Store) GetVisit(ctx context.Context, id string) (*Visit, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, casino_id, player_id, started_at, ended_at FROM visits WHERE id = $1`, id)
	var (
		v        Visit
		playerID pgtype.Text
		endedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&v.ID, &v.CasinoID, &playerID, &v.StartedAt, &endedAt); err != nil {
		return nil, mapNotFound(err)
	}
	v.PlayerID = textPtrVal(playerID)
	v.EndedAt = timePtrVal(endedAt)
	return &v, nil
}

func (s *Store) EndVisit(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE visits SET ended_at = now() WHERE id = $1 AND ended_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
