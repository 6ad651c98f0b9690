package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// WatchlistRepository stores one ordered symbol list per user, mirroring a
// per-user document. Mutations are independent read-then-write sequences:
// there is deliberately no optimistic locking, so concurrent sessions of the
// same user can race (an accepted limitation of the capacity check).
type WatchlistRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewWatchlistRepository(pool PgxPool, tracer trace.Tracer) *WatchlistRepository {
	return &WatchlistRepository{pool: pool, tracer: tracer}
}

// Get returns the stored symbol list in insertion order. exists reports
// whether the user has a record at all; a missing record reads as an empty
// list, not an error.
func (r *WatchlistRepository) Get(ctx context.Context, userID int64) (symbols []string, exists bool, err error) {
	_, span := r.tracer.Start(ctx, "watchlist-repo.get")
	defer span.End()

	err = r.pool.QueryRow(ctx,
		`SELECT symbols FROM watchlists WHERE user_id = $1`,
		userID,
	).Scan(&symbols)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return symbols, true, nil
}

// Create inserts a fresh record for a user's first-ever add.
func (r *WatchlistRepository) Create(ctx context.Context, userID int64, symbols []string) error {
	_, span := r.tracer.Start(ctx, "watchlist-repo.create")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO watchlists (user_id, symbols) VALUES ($1, $2)`,
		userID, symbols,
	)
	return err
}

// SetSymbols replaces the stored list wholesale.
func (r *WatchlistRepository) SetSymbols(ctx context.Context, userID int64, symbols []string) error {
	_, span := r.tracer.Start(ctx, "watchlist-repo.set-symbols")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE watchlists SET symbols = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, symbols,
	)
	return err
}

// AllSymbols returns the distinct set of symbols watched by any user,
// for the quote refresh job.
func (r *WatchlistRepository) AllSymbols(ctx context.Context) ([]string, error) {
	_, span := r.tracer.Start(ctx, "watchlist-repo.all-symbols")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT unnest(symbols) FROM watchlists ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
