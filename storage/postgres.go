package storage

import (
	"context"
	"fmt"
	"log/slog"
	"rssreader/internal/domain"
	"time"

	"github.com/jackc/pgx/v5"
)

const upsertEntryQuery = `
	INSERT INTO feed_entries (feed_url, title, link, published_at, updated_at, rank, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (link) DO UPDATE SET
		title = EXCLUDED.title,
		published_at = EXCLUDED.published_at,
		updated_at = EXCLUDED.updated_at,
		rank = EXCLUDED.rank,
		fetched_at = EXCLUDED.fetched_at;
	`

const selectEntriesQuery = `
	SELECT feed_url, title, link, published_at, updated_at, rank, fetched_at
	FROM feed_entries
	ORDER BY COALESCE(updated_at, published_at, fetched_at) DESC
	LIMIT $1;
	`

type PostgresEntriesDB struct {
	pool         DBPool
	log          *slog.Logger
	defaultLimit int
	now          func() time.Time
}

func NewPostgresEntriesDB(pool DBPool, defaultLimit int, log *slog.Logger) *PostgresEntriesDB {
	log.Info("Initializing Postgres entries storage")
	return &PostgresEntriesDB{
		pool:         pool,
		log:          log.With(slog.String("component", "storage")),
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

func (db *PostgresEntriesDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveFeed сохраняет записи ленты одной транзакцией. Записи без ссылки
// пропускаются: ссылка служит ключом записи.
func (db *PostgresEntriesDB) SaveFeed(ctx context.Context, feedURL string, feed *domain.Feed) (int, error) {
	const op = "storage.postgres.SaveFeed"
	log := db.log.With(slog.String("op", op), slog.String("url", feedURL))
	entries := make([]domain.FeedEntry, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.Link == nil {
			continue
		}
		entries = append(entries, entry)
	}
	if skipped := len(feed.Entries) - len(entries); skipped > 0 {
		log.Warn("Skipping entries without link", slog.Int("count", skipped))
	}
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	fetchedAt := db.now().UTC()
	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(
			upsertEntryQuery,
			feedURL,
			entry.Title,
			entry.Link,
			entry.PublishedDate,
			entry.UpdatedDate,
			entry.Rank,
			fetchedAt,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for _, entry := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			log.Error("Failed to upsert entry", slog.String("link", *entry.Link), slog.Any("error", err))
			db.rollback(tx, log)
			return 0, fmt.Errorf("%s: failed to upsert entry %s: %w", op, *entry.Link, err)
		}
	}
	if err := results.Close(); err != nil {
		log.Error("Failed to execute batch", slog.Any("error", err))
		db.rollback(tx, log)
		return 0, fmt.Errorf("%s: failed to execute batch: %w", op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		db.rollback(tx, log)
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Debug("Feed entries saved", slog.Int("count", len(entries)))
	return len(entries), nil
}

func (db *PostgresEntriesDB) rollback(tx pgx.Tx, log *slog.Logger) {
	if err := tx.Rollback(context.Background()); err != nil {
		log.Error("Failed to rollback transaction", slog.Any("error", err))
	}
}

// GetEntries возвращает последние записи, сначала самые свежие.
// Неположительный limit заменяется лимитом по умолчанию.
func (db *PostgresEntriesDB) GetEntries(ctx context.Context, limit int) ([]domain.StoredEntry, error) {
	const op = "storage.postgres.GetEntries"
	if limit <= 0 {
		limit = db.defaultLimit
	}
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	rows, err := db.pool.Query(ctx, selectEntriesQuery, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoredEntry, error) {
		var e domain.StoredEntry
		err := row.Scan(
			&e.FeedURL,
			&e.Title,
			&e.Link,
			&e.PublishedDate,
			&e.UpdatedDate,
			&e.Rank,
			&e.FetchedAt,
		)
		return e, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Retrieved feed entries", slog.Int("count", len(entries)))
	return entries, nil
}
