package fetcher

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostRateLimiter ограничивает частоту запросов к одному хосту.
// Для каждого хоста создается отдельный rate.Limiter с burst = 1.
type HostRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewHostRateLimiter создает ограничитель с минимальным интервалом interval
// между запросами к одному хосту. Нулевой интервал отключает ограничение.
func NewHostRateLimiter(interval time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait блокируется, пока запрос к хосту из rawURL не будет разрешен,
// или пока не отменен ctx.
func (h *HostRateLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil || h.interval <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}
	return h.limiter(parsed.Host).Wait(ctx)
}

func (h *HostRateLimiter) limiter(host string) *rate.Limiter {
	h.mu.RLock()
	l, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return l
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = l
	return l
}
