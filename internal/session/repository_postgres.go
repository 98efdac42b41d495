package session

import (
	"context"
	"database/sql"
	"encoding/json"
)

// pgRepo stores sessions as JSON documents in a single table, with the
// status column indexed for open-session scans. Update takes a row lock so
// concurrent transitions on one session serialize at the database.
type pgRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) Repository {
	return &pgRepo{db: db}
}

// Migrate creates the sessions table when absent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS game_sessions (
			id      TEXT PRIMARY KEY,
			status  TEXT NOT NULL,
			payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS game_sessions_status ON game_sessions (status);
	`)
	return err
}

func (r *pgRepo) Save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, status, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET status = $2, payload = $3
	`, s.ID, string(s.Status), payload)
	return err
}

func (r *pgRepo) Get(ctx context.Context, id string) (*Session, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM game_sessions WHERE id = $1`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgRepo) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM game_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	out, err := json.Marshal(&s)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE game_sessions SET status = $2, payload = $3 WHERE id = $1`,
		id, string(s.Status), out); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = $1`, id)
	return err
}

func (r *pgRepo) ListOpen(ctx context.Context) ([]*Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM game_sessions
		WHERE status IN ('waiting', 'matched', 'active')
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *pgRepo) FindByPlayer(ctx context.Context, playerID string) ([]*Session, error) {
	doc, err := json.Marshal([]map[string]string{{"id": playerID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM game_sessions
		WHERE status IN ('waiting', 'matched', 'active')
		  AND payload->'participants' @> $1
	`, string(doc))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var s Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
