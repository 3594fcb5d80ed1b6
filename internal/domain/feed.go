package domain

import "time"

// FeedEntry представляет отдельную запись Atom-ленты.
// Все поля необязательны: nil означает, что соответствующий элемент
// в документе отсутствовал.
type FeedEntry struct {
	Title         *string    `json:"title,omitempty"`
	Link          *string    `json:"link,omitempty"`
	PublishedDate *time.Time `json:"published,omitempty"`
	UpdatedDate   *time.Time `json:"updated,omitempty"`
	Rank          *int       `json:"rank,omitempty"`
}

// Feed представляет разобранную Atom-ленту.
// Entries хранятся в порядке появления в документе.
type Feed struct {
	UpdatedDate *time.Time  `json:"updated,omitempty"`
	Entries     []FeedEntry `json:"entries"`
}

// StoredEntry - запись ленты, сохраненная в хранилище.
type StoredEntry struct {
	FeedEntry
	FeedURL   string    `json:"feed_url"`
	FetchedAt time.Time `json:"fetched_at"`
}
