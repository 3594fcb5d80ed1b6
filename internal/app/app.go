package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"rssreader/internal/adapter/fetcher"
	"rssreader/internal/adapter/parser"
	"rssreader/internal/config"
	"rssreader/internal/migrations"
	server "rssreader/internal/transport/http"
	"rssreader/internal/usecase"
	"rssreader/internal/worker"
	"rssreader/storage"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App связывает воркер обработки лент, HTTP API и хранилище.
type App struct {
	config  *config.Config
	logger  *slog.Logger
	server  *http.Server
	worker  *worker.Worker
	storage storage.Storage
	wg      sync.WaitGroup
}

// New подключается к базе, применяет миграции и собирает зависимости.
func New(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*App, error) {
	dbPool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := migrations.Apply(ctx, appLogger, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	feedNames, urls := cfg.App.FeedNames()
	entriesDB := storage.NewPostgresEntriesDB(dbPool, cfg.App.DefaultEntriesLimit, appLogger)
	feedProcessor, err := NewFeedProcessor(cfg, appLogger, entriesDB, feedNames)
	if err != nil {
		entriesDB.Close()
		return nil, err
	}
	entriesGetter := usecase.NewEntriesGetterUseCase(entriesDB)
	handler := server.NewHandler(appLogger, entriesGetter, cfg.App.DefaultEntriesLimit)

	interval, err := time.ParseDuration(cfg.App.ProcessingInterval)
	if err != nil {
		entriesDB.Close()
		return nil, fmt.Errorf("bad processing interval: %w", err)
	}
	feedTimeout, err := time.ParseDuration(cfg.App.FeedTimeout)
	if err != nil {
		entriesDB.Close()
		return nil, fmt.Errorf("bad feed timeout: %w", err)
	}
	w := worker.New(feedProcessor, urls, worker.Options{
		Interval:    interval,
		FeedTimeout: feedTimeout,
		Concurrency: cfg.App.Concurrency,
	}, appLogger)

	return &App{
		config:  cfg,
		logger:  appLogger,
		worker:  w,
		storage: entriesDB,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           server.NewServer(appLogger, handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewFeedProcessor собирает цепочку загрузки и разбора лент по конфигурации.
// storage может быть nil, если результат не сохраняется.
func NewFeedProcessor(cfg *config.Config, log *slog.Logger, store usecase.FeedStorage, feedNames map[string]string) (*usecase.FeedProcessingUseCase, error) {
	httpFetcher, err := fetcher.NewHTTPFetcher(cfg.Fetcher, log)
	if err != nil {
		return nil, err
	}
	atomParser := parser.NewAtomParser(log, cfg.Parser.Encoding)
	return usecase.NewFeedProcessingUseCase(httpFetcher, atomParser, store, log, feedNames), nil
}

// Run запускает воркер и HTTP-сервер и блокируется до отмены ctx
// или отказа сервера.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting rssreader",
		slog.String("component", "app"),
		slog.Int("feed_count", len(a.worker.URLs())),
		slog.String("processing_interval", a.worker.Interval().String()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	a.worker.Start(ctx)

	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received", slog.String("component", "app"))
	case runErr = <-serveErr:
		a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", runErr))
	}
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown останавливает воркер, сервер (с таймаутом 10 секунд) и хранилище.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	a.worker.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	a.wg.Wait()
	a.storage.Close()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
