package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations creates the analytics tables. Every statement is idempotent so
// the list can be replayed on each start.
var Migrations = []Migration{
	{
		Name: "search_history",
		SQL: `CREATE TABLE IF NOT EXISTS search_history (
			id text PRIMARY KEY,
			user_id text NOT NULL,
			query text NOT NULL,
			category text NOT NULL,
			location text NOT NULL,
			result_count integer NOT NULL DEFAULT 0,
			data_source text NOT NULL DEFAULT 'live',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "search_history_user_idx",
		SQL:  `CREATE INDEX IF NOT EXISTS search_history_user_idx ON search_history (user_id, created_at DESC)`,
	},
	{
		Name: "price_comparisons",
		SQL: `CREATE TABLE IF NOT EXISTS price_comparisons (
			id text PRIMARY KEY,
			user_id text NOT NULL,
			query text NOT NULL,
			category text NOT NULL,
			location text NOT NULL,
			results jsonb NOT NULL DEFAULT '[]'::jsonb,
			cheapest_platform text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "price_comparisons_created_idx",
		SQL:  `CREATE INDEX IF NOT EXISTS price_comparisons_created_idx ON price_comparisons (created_at)`,
	},
	{
		Name: "user_locations",
		SQL: `CREATE TABLE IF NOT EXISTS user_locations (
			user_id text PRIMARY KEY,
			city text NOT NULL,
			pincode text NOT NULL,
			area text,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "carts",
		SQL: `CREATE TABLE IF NOT EXISTS carts (
			user_id text PRIMARY KEY,
			items jsonb NOT NULL DEFAULT '[]'::jsonb,
			optimization jsonb,
			optimized_at timestamptz,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
}

// Execer runs one schema statement.
type Execer interface {
	ExecContext(ctx context.Context, sql string) error
}

// ExecFunc adapts a function to Execer.
type ExecFunc func(ctx context.Context, sql string) error

// ExecContext implements Execer.
func (f ExecFunc) ExecContext(ctx context.Context, sql string) error { return f(ctx, sql) }

// PoolExec runs statements on a pgx pool.
func PoolExec(p *pgxpool.Pool) Execer {
	return ExecFunc(func(ctx context.Context, stmt string) error {
		_, err := p.Exec(ctx, stmt)
		return err
	})
}

// SQLExec runs statements on a database/sql handle, such as one opened with lib/pq.
func SQLExec(db *sql.DB) Execer {
	return ExecFunc(func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// Migrate applies every migration in order, stopping at the first failure.
func Migrate(ctx context.Context, db Execer) error {
	for _, m := range Migrations {
		if err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return nil
}
