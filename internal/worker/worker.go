package worker

import (
	"context"
	"log/slog"
	"rssreader/internal/metrics"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// FeedProcessor обрабатывает одну ленту.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, url string) error
}

// Options задает расписание и параллелизм воркера.
type Options struct {
	Interval    time.Duration
	FeedTimeout time.Duration
	Concurrency int
}

// Worker периодически обрабатывает набор лент.
// Ошибка одной ленты не прерывает обработку остальных.
type Worker struct {
	processor FeedProcessor
	urls      []string
	opts      Options
	log       *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.Mutex
}

// New создает воркер. Неположительные значения опций заменяются
// значениями по умолчанию.
func New(processor FeedProcessor, urls []string, opts Options, log *slog.Logger) *Worker {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Worker{
		processor: processor,
		urls:      urls,
		opts:      opts,
		log:       log.With(slog.String("component", "worker")),
	}
}

// Start запускает цикл обработки в отдельной горутине.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop отменяет текущий цикл и ждет завершения горутины воркера.
// После Stop воркер можно снова запустить через Start.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	w.mu.Lock()
	if w.done == done {
		w.cancel = nil
		w.done = nil
	}
	w.mu.Unlock()
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.log.Info("Feed processing worker started",
		slog.String("interval", w.opts.Interval.String()),
		slog.Int("feed_count", len(w.urls)),
		slog.Int("concurrency", w.opts.Concurrency),
	)
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// RunOnce обрабатывает все ленты один раз, не более opts.Concurrency
// одновременно, и возвращает количество успешных и неудачных обработок.
func (w *Worker) RunOnce(ctx context.Context) (succeeded, failed int) {
	start := time.Now()
	w.log.Info("Feed processing cycle started", slog.Int("feeds_to_process", len(w.urls)))
	var successCount, errorCount atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for _, url := range w.urls {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			opCtx, opCancel := context.WithTimeout(gctx, w.opts.FeedTimeout)
			defer opCancel()
			if err := w.processor.ProcessFeed(opCtx, url); err != nil {
				errorCount.Add(1)
				w.log.Error("Feed processing failed",
					slog.String("url", url),
					slog.Any("error", err),
				)
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(start)
	metrics.CycleDuration.Observe(duration.Seconds())
	w.log.Info("Feed processing cycle completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("errors", errorCount.Load()),
		slog.Int("total", len(w.urls)),
		slog.Duration("duration", duration),
	)
	return int(successCount.Load()), int(errorCount.Load())
}

// URLs возвращает список лент, которые обрабатывает воркер.
func (w *Worker) URLs() []string { return w.urls }

// Interval возвращает интервал между циклами обработки.
func (w *Worker) Interval() time.Duration { return w.opts.Interval }
