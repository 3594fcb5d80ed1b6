package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20131013120000_create_feed_entries_table",
		UpSQL: `
		CREATE TABLE feed_entries(
		id BIGSERIAL PRIMARY KEY,
		feed_url TEXT NOT NULL,
		title TEXT,
		link TEXT UNIQUE NOT NULL,
		published_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		rank INTEGER,
		fetched_at TIMESTAMPTZ NOT NULL
		);`,
	},
	{
		ID:    "20131013120100_index_feed_entries_recency",
		UpSQL: `CREATE INDEX feed_entries_recency_idx ON feed_entries ((COALESCE(updated_at, published_at, fetched_at)) DESC);`,
	},
}

// DB - методы пула соединений, нужные для применения миграций.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Apply применяет к базе еще не примененные миграции в порядке их ID.
// Все новые миграции выполняются одной транзакцией.
func Apply(ctx context.Context, log *slog.Logger, db DB) error {
	return apply(ctx, log, db, allMigrations)
}

func apply(ctx context.Context, log *slog.Logger, db DB, migrations []Migration) error {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")
	_, err := db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
	id TEXT PRIMARY KEY
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	rows, err := db.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan migration id: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}
	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !done[m.ID] {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		log.Info("Database is up to date, no new migrations found.")
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID < pending[j].ID
	})
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, m := range pending {
		log.Info("Applying migration", slog.String("id", m.ID))
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	log.Info("Database migrations applied successfully", slog.Int("count", len(pending)))
	return nil
}
