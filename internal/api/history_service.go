package api

import (
	"context"

	"regift/internal/history"
)

// HistoryReader abstracts history persistence needed for API queries.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (*history.Entry, error)
}

// HistoryService exposes read-only history operations returning API DTOs.
type HistoryService struct {
	store HistoryReader
}

// NewHistoryService constructs a HistoryService around the provided reader.
func NewHistoryService(store HistoryReader) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store}
}

// List returns the newest entries first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s == nil || s.store == nil {
		return []HistoryEntry{}, nil
	}
	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromHistoryEntries(entries), nil
}

// Describe returns one entry, or nil when it does not exist.
func (s *HistoryService) Describe(ctx context.Context, id string) (*HistoryEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.Get(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromHistoryEntry(*entry)
	return &dto, nil
}
