package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"rssreader/internal/domain"
	"rssreader/internal/metrics"
	"strings"
	"time"
)

// FeedProcessingUseCase координирует загрузку, разбор и сохранение лент.
type FeedProcessingUseCase struct {
	fetcher   FeedFetcher
	parser    FeedParser
	storage   FeedStorage
	log       *slog.Logger
	feedNames map[string]string
}

// NewFeedProcessingUseCase создает UseCase обработки лент.
// storage может быть nil, если нужен только разбор (FetchFeed).
func NewFeedProcessingUseCase(
	fetcher FeedFetcher,
	parser FeedParser,
	storage FeedStorage,
	log *slog.Logger,
	feedNames map[string]string,
) *FeedProcessingUseCase {
	return &FeedProcessingUseCase{
		fetcher:   fetcher,
		parser:    parser,
		storage:   storage,
		log:       log,
		feedNames: feedNames,
	}
}

// FetchFeed загружает и разбирает ленту, не сохраняя ее.
func (uc *FeedProcessingUseCase) FetchFeed(ctx context.Context, feedURL string) (*domain.Feed, error) {
	feed, _, err := uc.fetchAndParse(ctx, feedURL, uc.logFor(feedURL))
	return feed, err
}

// ProcessFeed выполняет полный цикл обработки ленты: загрузку, разбор и сохранение.
// Ошибка любого этапа прерывает обработку и возвращается вызывающему.
func (uc *FeedProcessingUseCase) ProcessFeed(ctx context.Context, feedURL string) error {
	start := time.Now()
	feedName := uc.extractFeedName(feedURL)
	log := uc.logFor(feedURL)
	log.Info("Processing feed started")

	feed, status, err := uc.fetchAndParse(ctx, feedURL, log)
	if err != nil {
		metrics.RecordFeed(feedName, status, time.Since(start).Seconds())
		return err
	}
	if uc.storage == nil {
		return fmt.Errorf("save failed for %s: storage is not configured", feedName)
	}
	savedCount, err := uc.storage.SaveFeed(ctx, feedURL, feed)
	if err != nil {
		log.Error("Feed save failed",
			slog.String("stage", "save"),
			slog.Any("error", err),
		)
		metrics.RecordFeed(feedName, "save_error", time.Since(start).Seconds())
		return fmt.Errorf("save failed for %s: %w", feedName, err)
	}

	duration := time.Since(start)
	metrics.RecordFeed(feedName, "ok", duration.Seconds())
	log.Info("Feed processing completed successfully",
		slog.Int("items_found", len(feed.Entries)),
		slog.Int("items_saved", savedCount),
		slog.Duration("duration", duration),
	)
	return nil
}

func (uc *FeedProcessingUseCase) fetchAndParse(ctx context.Context, feedURL string, log *slog.Logger) (*domain.Feed, string, error) {
	feedName := uc.extractFeedName(feedURL)
	reader, err := uc.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		log.Error("Feed fetch failed",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		return nil, "fetch_error", fmt.Errorf("fetch failed for %s: %w", feedName, err)
	}
	defer reader.Close()

	feed, err := uc.parser.Parse(ctx, reader)
	if err != nil {
		log.Error("Feed parsing failed",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		return nil, "parse_error", fmt.Errorf("parse failed for %s: %w", feedName, err)
	}
	metrics.RecordEntries(feedName, len(feed.Entries))
	log.Debug("Feed parsed successfully",
		slog.String("stage", "parse"),
		slog.Int("items_parsed", len(feed.Entries)),
	)
	return feed, "", nil
}

func (uc *FeedProcessingUseCase) logFor(feedURL string) *slog.Logger {
	return uc.log.With(
		slog.String("component", "feed-processor"),
		slog.String("feed", uc.extractFeedName(feedURL)),
		slog.String("url", feedURL),
	)
}

// extractFeedName возвращает имя ленты из конфигурации или хост URL без "www.".
func (uc *FeedProcessingUseCase) extractFeedName(feedURL string) string {
	if name, ok := uc.feedNames[feedURL]; ok {
		return name
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return "unknown"
}
