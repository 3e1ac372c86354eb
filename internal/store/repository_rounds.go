package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const roundColumns = `id, table_id, dealer, wall_seed, status, outcome, outcome_seat, detail, started_at, ended_at`

func (s *Store) CreateRound(ctx context.Context, tableID string, dealer int, wallSeed int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO rounds (id, table_id, dealer, wall_seed, status) VALUES ($1, $2, $3, $4, $5)`,
		id, tableID, int16(dealer), wallSeed, RoundStatusRunning,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AppendRoundEvent(ctx context.Context, roundID string, seq int64, kind string, seat int, payload json.RawMessage) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO round_events (id, round_id, seq, kind, seat, payload) VALUES ($1, $2, $3, $4, $5, $6)`,
		NewID(), roundID, seq, kind, int16(seat), payload,
	)
	return err
}

// FinishRound records the single outcome of a round. A round finishes once.
func (s *Store) FinishRound(ctx context.Context, roundID, status, outcome string, seat *int, detail json.RawMessage) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE rounds
		    SET status = $2, outcome = $3, outcome_seat = $4, detail = $5, ended_at = now()
		  WHERE id = $1 AND ended_at IS NULL`,
		roundID, status, textParam(outcome), int2PtrParam(seat), detail,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, roundID string) (*Round, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, roundID)
	r, err := scanRound(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &r, nil
}

func (s *Store) ListTableRounds(ctx context.Context, tableID string, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE table_id = $1 ORDER BY started_at DESC, id DESC LIMIT $2`,
		tableID, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Round, error) { return scanRound(row) })
}

func (s *Store) ListRoundEvents(ctx context.Context, roundID string, fromSeq int64, limit int) ([]RoundEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, round_id, seq, kind, seat, payload, created_at
		   FROM round_events
		  WHERE round_id = $1 AND seq >= $2
		  ORDER BY seq ASC
		  LIMIT $3`,
		roundID, fromSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RoundEvent, error) {
		var (
			ev   RoundEvent
			seat int16
			at   pgtype.Timestamptz
		)
		if err := row.Scan(&ev.ID, &ev.RoundID, &ev.Seq, &ev.Kind, &seat, &ev.Payload, &at); err != nil {
			return RoundEvent{}, err
		}
		ev.Seat = int(seat)
		ev.CreatedAt = at.Time
		return ev, nil
	})
}

func scanRound(row pgx.Row) (Round, error) {
	var (
		r       Round
		dealer  int16
		outcome pgtype.Text
		seat    pgtype.Int2
		started pgtype.Timestamptz
		ended   pgtype.Timestamptz
	)
	if err := row.Scan(&r.ID, &r.TableID, &dealer, &r.WallSeed, &r.Status, &outcome, &seat, &r.Detail, &started, &ended); err != nil {
		return Round{}, err
	}
	r.Dealer = int(dealer)
	r.Outcome = textVal(outcome)
	r.OutcomeSeat = intPtrVal(seat)
	r.StartedAt = started.Time
	r.EndedAt = timePtrVal(ended)
	return r, nil
}
