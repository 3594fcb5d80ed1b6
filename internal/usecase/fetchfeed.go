package usecase

import (
	"context"
	"io"
	"rssreader/internal/domain"
)

// FeedFetcher загружает сырые данные ленты из внешнего источника.
// Возвращаемый io.ReadCloser должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FeedParser преобразует сырые данные ленты в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error)
}

// FeedStorage сохраняет записи ленты и возвращает количество сохраненных записей.
type FeedStorage interface {
	SaveFeed(ctx context.Context, feedURL string, feed *domain.Feed) (int, error)
}
