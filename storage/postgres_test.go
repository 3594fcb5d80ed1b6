package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"rssreader/internal/domain"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*PostgresEntriesDB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresEntriesDB(mock, 30, logger), mock
}

func strPtr(s string) *string { return &s }

func TestSaveFeed_NoLinkedEntries(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	feed := &domain.Feed{Entries: []domain.FeedEntry{{Title: strPtr("no link")}}}

	saved, err := db.SaveFeed(context.Background(), "http://feed", feed)

	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFeed_BeginFails(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	feed := &domain.Feed{Entries: []domain.FeedEntry{{Title: strPtr("t"), Link: strPtr("http://e/1")}}}

	saved, err := db.SaveFeed(context.Background(), "http://feed", feed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.postgres.SaveFeed")
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFeed_UpsertsLinkedEntries(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	fetched := time.Date(2013, 10, 14, 8, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return fetched }
	rank := 7
	feed := &domain.Feed{Entries: []domain.FeedEntry{
		{Title: strPtr("first"), Link: strPtr("http://e/1"), Rank: &rank},
		{Title: strPtr("no link")},
		{Title: strPtr("second"), Link: strPtr("http://e/2")},
	}}
	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO feed_entries").
		WithArgs("http://feed", strPtr("first"), strPtr("http://e/1"), pgxmock.AnyArg(), pgxmock.AnyArg(), &rank, fetched).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec("INSERT INTO feed_entries").
		WithArgs("http://feed", strPtr("second"), strPtr("http://e/2"), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), fetched).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	saved, err := db.SaveFeed(context.Background(), "http://feed", feed)

	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFeed_UpsertFailsRollsBack(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	feed := &domain.Feed{Entries: []domain.FeedEntry{{Title: strPtr("t"), Link: strPtr("http://e/1")}}}
	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO feed_entries").
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	saved, err := db.SaveFeed(context.Background(), "http://feed", feed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert entry http://e/1")
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFeed_CommitFails(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	feed := &domain.Feed{Entries: []domain.FeedEntry{{Title: strPtr("t"), Link: strPtr("http://e/1")}}}
	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec("INSERT INTO feed_entries").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	saved, err := db.SaveFeed(context.Background(), "http://feed", feed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntries_Success(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	published := time.Date(2013, 10, 13, 0, 0, 0, 0, time.UTC)
	fetched := time.Date(2013, 10, 14, 0, 0, 0, 0, time.UTC)
	rank := 3
	mock.ExpectQuery("SELECT (.+) FROM feed_entries").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"feed_url", "title", "link", "published_at", "updated_at", "rank", "fetched_at"}).
			AddRow("http://feed", strPtr("T"), strPtr("http://e/1"), &published, &published, &rank, fetched).
			AddRow("http://feed", strPtr("U"), strPtr("http://e/2"), &published, (*time.Time)(nil), (*int)(nil), fetched))

	entries, err := db.GetEntries(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "T", *entries[0].Title)
	assert.Equal(t, 3, *entries[0].Rank)
	assert.Equal(t, "http://feed", entries[0].FeedURL)
	assert.Equal(t, fetched, entries[0].FetchedAt)
	assert.Nil(t, entries[1].Rank)
	assert.Nil(t, entries[1].UpdatedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntries_DefaultLimit(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	mock.ExpectQuery("SELECT (.+) FROM feed_entries").
		WithArgs(30).
		WillReturnRows(pgxmock.NewRows([]string{"feed_url", "title", "link", "published_at", "updated_at", "rank", "fetched_at"}))

	entries, err := db.GetEntries(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntries_QueryFails(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()
	mock.ExpectQuery("SELECT (.+) FROM feed_entries").
		WithArgs(5).
		WillReturnError(errors.New("relation does not exist"))

	entries, err := db.GetEntries(context.Background(), 5)

	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "failed to execute query")
	assert.NoError(t, mock.ExpectationsWereMet())
}
