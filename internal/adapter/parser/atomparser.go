package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"rssreader/internal/domain"
	"rssreader/internal/metrics"
)

// AtomParser реализует интерфейс FeedParser для Atom-лент.
type AtomParser struct {
	log      *slog.Logger
	encoding string
}

func NewAtomParser(log *slog.Logger, encoding string) *AtomParser {
	return &AtomParser{
		log:      log,
		encoding: encoding,
	}
}

// Parse реализует метод интерфейса FeedParser.
func (p *AtomParser) Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := NewXMLEventSource(reader, p.encoding)
	if err != nil {
		p.log.Error("Error creating XML event source",
			slog.String("encoding", p.encoding),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to init XML reader: %w", err)
	}
	feed, err := ParseFeed(src)
	if err != nil {
		kind := ErrorKind(err)
		metrics.RecordParseError(kind)
		p.log.Error(
			"Error parsing Atom feed",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to parse Atom feed: %w", err)
	}
	p.log.Debug("Atom feed parsed", slog.Int("count", len(feed.Entries)))
	return feed, nil
}

// ErrorKind возвращает короткое имя категории ошибки разбора для логов и метрик.
func ErrorKind(err error) string {
	var structErr *StructuralError
	var valueErr *ValueFormatError
	switch {
	case errors.As(err, &valueErr):
		return "value_format"
	case errors.As(err, &structErr):
		return "structural"
	default:
		return "io"
	}
}
