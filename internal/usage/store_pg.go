package usage

import (
	"context"
	"database/sql"
	"errors"
)

// PGLedger stores usage counts in the usage_ledger table.
type PGLedger struct {
	DB *sql.DB
}

// NewPGLedger constructs a Postgres-backed ledger.
func NewPGLedger(db *sql.DB) *PGLedger {
	return &PGLedger{DB: db}
}

func (l *PGLedger) Used(ctx context.Context, token string) (int, error) {
	var used int
	err := l.DB.QueryRowContext(ctx, `
SELECT used FROM usage_ledger WHERE token = $1`, token).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}

// Increment upserts in a single statement so concurrent increments are never lost.
func (l *PGLedger) Increment(ctx context.Context, token string, by int) (int, error) {
	if by < 0 {
		return 0, ErrInvalidIncrement
	}
	var used int
	err := l.DB.QueryRowContext(ctx, `
INSERT INTO usage_ledger (token, used, updated_at) VALUES ($1, $2, now())
ON CONFLICT (token) DO UPDATE SET used = usage_ledger.used + EXCLUDED.used, updated_at = now()
RETURNING used`, token, by).Scan(&used)
	if err != nil {
		return 0, err
	}
	return used, nil
}

// Ping reports whether the database is reachable.
func (l *PGLedger) Ping(ctx context.Context) error {
	return l.DB.PingContext(ctx)
}

var _ Ledger = (*PGLedger)(nil)
