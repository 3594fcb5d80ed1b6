package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"rssreader/internal/config"
	"time"
)

const defaultTimeout = 30 * time.Second

const acceptHeader = "application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1"

// HTTPFetcher реализует интерфейс FeedFetcher для загрузки Atom-лент по HTTP.
// Редиректы и таймауты обрабатывает http.Client, частоту запросов к одному
// хосту ограничивает HostRateLimiter.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *HostRateLimiter
	userAgent string
	log       *slog.Logger
}

// NewHTTPFetcher создает HTTPFetcher по настройкам cfg. Пустой Timeout
// означает таймаут по умолчанию, пустой HostInterval отключает ограничение
// частоты; нераспознанная длительность возвращает ошибку.
func NewHTTPFetcher(cfg config.FetcherConfig, log *slog.Logger) (*HTTPFetcher, error) {
	timeout, err := parseDuration(cfg.Timeout, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid fetcher timeout %q: %w", cfg.Timeout, err)
	}
	hostInterval, err := parseDuration(cfg.HostInterval, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid fetcher host interval %q: %w", cfg.HostInterval, err)
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   NewHostRateLimiter(hostInterval),
		userAgent: cfg.UserAgent,
		log:       log,
	}, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

// Fetch выполняет HTTP-запрос для получения ленты по указанному URL.
// Возвращает тело ответа как io.ReadCloser, которое должно быть закрыто после использования.
// Любой статус, кроме 200, считается ошибкой.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("url", url))
	if err := f.limiter.Wait(ctx, url); err != nil {
		log.Error("Rate limiter wait failed", slog.Any("error", err))
		return nil, fmt.Errorf("rate limit wait for url %s: %w", url, err)
	}
	log.Info("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	req.Header.Set("Accept", acceptHeader)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error(
			"HTTP request failed",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		log.Error(
			"Unexpected status code",
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode, url)
	}
	log.Debug("Successfully fetched URL", slog.String("content_type", resp.Header.Get("Content-Type")))
	return resp.Body, nil
}
