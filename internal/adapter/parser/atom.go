package parser

import (
	"rssreader/internal/domain"
	"strconv"
	"strings"
	"time"
)

const (
	feedTag      = "feed"
	entryTag     = "entry"
	titleTag     = "title"
	linkTag      = "link"
	linkAttr     = "href"
	publishedTag = "published"
	updatedTag   = "updated"
	rankTag      = "re:rank"
)

// dateLayout - формат дат ленты, время в UTC.
const dateLayout = "2006-01-02T15:04:05Z"

// ParseFeed разбирает Atom-ленту из src. Текущим событием src должно быть
// StartDocument; корнем документа - элемент feed, после которого поток
// обязан закончиться. Любое нарушение структуры возвращает *StructuralError,
// некорректная дата или ранг - *ValueFormatError. Частичный результат
// при ошибке не возвращается.
func ParseFeed(src EventSource) (*domain.Feed, error) {
	if src.Kind() != StartDocument {
		return nil, unexpected(src, StartDocument.String())
	}
	if _, err := src.Next(); err != nil {
		return nil, err
	}
	feed, err := parseFeedElement(src)
	if err != nil {
		return nil, err
	}
	kind, err := src.Next()
	if err != nil {
		return nil, err
	}
	if kind != EndDocument {
		return nil, unexpected(src, EndDocument.String())
	}
	return feed, nil
}

func parseFeedElement(src EventSource) (*domain.Feed, error) {
	feed := &domain.Feed{Entries: []domain.FeedEntry{}}
	err := walk(src, envelope{
		tag: feedTag,
		start: func(src EventSource) error {
			if src.Name() != entryTag {
				return nil
			}
			entry, err := parseEntry(src)
			if err != nil {
				return err
			}
			feed.Entries = append(feed.Entries, *entry)
			return nil
		},
		text: map[string]func(string) error{
			updatedTag: dateField("feed.updated", &feed.UpdatedDate),
		},
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func parseEntry(src EventSource) (*domain.FeedEntry, error) {
	entry := &domain.FeedEntry{}
	err := walk(src, envelope{
		tag: entryTag,
		start: func(src EventSource) error {
			if src.Name() != linkTag {
				return nil
			}
			if href, ok := src.Attr(linkAttr); ok {
				entry.Link = &href
			}
			return nil
		},
		text: map[string]func(string) error{
			titleTag: func(text string) error {
				entry.Title = &text
				return nil
			},
			publishedTag: dateField("entry.published", &entry.PublishedDate),
			updatedTag:   dateField("entry.updated", &entry.UpdatedDate),
			rankTag: func(text string) error {
				rank, err := parseRank(text)
				if err != nil {
					return err
				}
				entry.Rank = &rank
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func dateField(field string, dst **time.Time) func(string) error {
	return func(text string) error {
		t, err := parseDate(field, text)
		if err != nil {
			return err
		}
		*dst = &t
		return nil
	}
}

// parseDate разбирает дату в формате ленты; RFC 3339 со смещением
// принимается как запасной вариант. Результат приводится к UTC.
func parseDate(field, text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		fallback, fallbackErr := time.Parse(time.RFC3339, s)
		if fallbackErr != nil {
			return time.Time{}, &ValueFormatError{Field: field, Text: text, Err: err}
		}
		t = fallback
	}
	return t.UTC(), nil
}

func parseRank(text string) (int, error) {
	rank, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValueFormatError{Field: "entry.rank", Text: text, Err: err}
	}
	return rank, nil
}
