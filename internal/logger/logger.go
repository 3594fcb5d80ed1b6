package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"rssreader/internal/config"
	"strings"
	"sync"
	"time"
)

// New создает логгер приложения по конфигурации.
// При output = "file" обычные записи пишутся в cfg.LogFile, ошибки - в
// cfg.ErrorLogFile; при output = "stdout" - в stdout и stderr соответственно.
func New(cfg config.LoggerConfig) (*slog.Logger, error) {
	defaultOut, errorOut, err := openOutputs(cfg)
	if err != nil {
		return nil, err
	}
	handler := NewLevelDispatcherHandler(defaultOut, errorOut, &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(cfg.Level),
	})
	return slog.New(handler), nil
}

func openOutputs(cfg config.LoggerConfig) (io.Writer, io.Writer, error) {
	if strings.EqualFold(cfg.Output, "stdout") {
		return os.Stdout, os.Stderr, nil
	}
	logWriter, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
	}
	errorWriter, err := os.OpenFile(cfg.ErrorLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logWriter.Close()
		return nil, nil, fmt.Errorf("failed to open error log file %s: %w", cfg.ErrorLogFile, err)
	}
	return logWriter, errorWriter, nil
}

// ParseLevel преобразует строковое представление уровня в slog.Level.
// Неизвестные значения дают уровень info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelDispatcherHandler направляет записи уровня ERROR и выше в errorHandler,
// остальные - в defaultHandler.
type LevelDispatcherHandler struct {
	defaultHandler slog.Handler
	errorHandler   slog.Handler
}

// NewLevelDispatcherHandler создает обработчик, который пишет ошибки в errorOut,
// а остальные записи в defaultOut. Оба вывода форматируются ReadableHandler.
func NewLevelDispatcherHandler(defaultOut, errorOut io.Writer, opts *slog.HandlerOptions) *LevelDispatcherHandler {
	return &LevelDispatcherHandler{
		defaultHandler: NewReadableHandler(defaultOut, opts),
		errorHandler:   NewReadableHandler(errorOut, opts),
	}
}

// Enabled сообщает, включен ли уровень level. Оба обработчика используют
// одинаковые настройки, поэтому решение принимает defaultHandler.
func (h *LevelDispatcherHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.defaultHandler.Enabled(ctx, level)
}

// Handle передает запись уровня ERROR и выше в errorHandler, остальные - в defaultHandler.
func (h *LevelDispatcherHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errorHandler.Handle(ctx, r)
	}
	return h.defaultHandler.Handle(ctx, r)
}

// WithAttrs возвращает новый диспетчер, оба обработчика которого дополнены attrs.
func (h *LevelDispatcherHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithAttrs(attrs),
		errorHandler:   h.errorHandler.WithAttrs(attrs),
	}
}

// WithGroup возвращает новый диспетчер с группой name в обоих обработчиках.
func (h *LevelDispatcherHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithGroup(name),
		errorHandler:   h.errorHandler.WithGroup(name),
	}
}

// ReadableHandler форматирует записи в одну строку вида
// "[15:04:05.000] INFO [component] (op) <file:line>: message | key=value, ...".
type ReadableHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	prefix string
}

// NewReadableHandler создает ReadableHandler, пишущий в w.
// opts может быть nil, тогда используется уровень info без источника.
func NewReadableHandler(w io.Writer, opts *slog.HandlerOptions) *ReadableHandler {
	h := &ReadableHandler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled сравнивает level с минимальным уровнем из opts.Level.
func (h *ReadableHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle форматирует запись в одну строку и пишет ее в w под мьютексом.
// Атрибуты component и op выводятся в заголовке строки, остальные - после "|".
func (h *ReadableHandler) Handle(_ context.Context, r slog.Record) error {
	var component, operation string
	var parts []string
	collect := func(a slog.Attr, prefix string) {
		switch {
		case prefix == "" && a.Key == "component":
			component = a.Value.String()
		case prefix == "" && a.Key == "op":
			operation = a.Value.String()
		default:
			parts = append(parts, formatAttr(prefix+a.Key, a.Value))
		}
	}
	for _, a := range h.attrs {
		collect(a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, h.prefix)
		return true
	})

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", r.Time.Format("15:04:05.000"), formatLevel(r.Level))
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if operation != "" {
		fmt.Fprintf(&b, " (%s)", operation)
	}
	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " <%s:%d>", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteString(": ")
	b.WriteString(r.Message)
	if len(parts) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs возвращает копию обработчика с добавленными attrs.
// Ключи получают префикс текущей группы.
func (h *ReadableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup возвращает копию обработчика, в которой ключи следующих
// атрибутов получают префикс "name.".
func (h *ReadableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func formatLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// formatAttr форматирует атрибут: ошибки в кавычках, длинные URL сокращаются,
// длительности округляются до миллисекунд.
func formatAttr(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case key == "error":
		return fmt.Sprintf("error=%q", v.String())
	case key == "url":
		return "url=" + shortenURL(v.String())
	case v.Kind() == slog.KindDuration:
		return fmt.Sprintf("%s=%s", key, v.Duration().Round(time.Millisecond))
	default:
		return fmt.Sprintf("%s=%s", key, v.String())
	}
}

// shortenURL оставляет от URL длиннее 50 символов только схему и хост.
func shortenURL(url string) string {
	if len(url) > 50 {
		parts := strings.Split(url, "/")
		if len(parts) >= 3 {
			return fmt.Sprintf("%s//%s/...", parts[0], parts[2])
		}
	}
	return url
}
