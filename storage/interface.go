package storage

import (
	"context"
	"rssreader/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage объединяет сохранение и чтение записей лент.
type Storage interface {
	SaveFeed(ctx context.Context, feedURL string, feed *domain.Feed) (int, error)
	GetEntries(ctx context.Context, limit int) ([]domain.StoredEntry, error)
	Close()
}

// DBPool - подмножество методов *pgxpool.Pool, которое использует хранилище.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}
