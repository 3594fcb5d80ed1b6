package usecase

import (
	"context"
	"rssreader/internal/domain"
)

// EntriesStorage предоставляет сохраненные записи лент для API.
type EntriesStorage interface {
	GetEntries(ctx context.Context, limit int) ([]domain.StoredEntry, error)
}

// EntriesGetterUseCase отдает сохраненные записи лент.
type EntriesGetterUseCase struct {
	storage EntriesStorage
}

func NewEntriesGetterUseCase(s EntriesStorage) *EntriesGetterUseCase {
	return &EntriesGetterUseCase{storage: s}
}

// GetEntries возвращает не более limit последних записей.
func (us *EntriesGetterUseCase) GetEntries(ctx context.Context, limit int) ([]domain.StoredEntry, error) {
	return us.storage.GetEntries(ctx, limit)
}
