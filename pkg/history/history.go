// Package history manages the per-identity list of past generations.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
)

// ErrEntryNotFound is returned by Delete when the entry id is unknown.
var ErrEntryNotFound = errors.New("history entry not found")

// Service applies list operations on top of a HistoryStore.
// Add and Delete go through HistoryStore.Update so concurrent writers never drop entries.
type Service struct {
	store  storage.HistoryStore
	logger *slog.Logger
}

func NewService(store storage.HistoryStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger.With(slog.String("component", "history"))}
}

// List returns the entries of an identity, newest first.
// Records written before a field existed get its default filled in.
func (s *Service) List(ctx context.Context, identity string) ([]models.HistoryEntry, error) {
	entries, err := s.store.Load(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for i := range entries {
		for j := range entries[i].TestCases {
			entries[i].TestCases[j].ApplyDefaults()
		}
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// Add puts the entry at the front of the list and returns it as stored.
// Two entries created in the same millisecond get distinct ids.
func (s *Service) Add(ctx context.Context, identity string, entry models.HistoryEntry) (models.HistoryEntry, error) {
	err := s.store.Update(ctx, identity, func(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
		for _, e := range entries {
			if e.ID >= entry.ID {
				entry.ID = e.ID + 1
			}
		}
		return append([]models.HistoryEntry{entry}, entries...), nil
	})
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("save history: %w", err)
	}
	s.logger.Info("History entry added",
		slog.String("identity", identity),
		slog.Int64("entry_id", entry.ID),
		slog.Int("test_cases", len(entry.TestCases)))
	return entry, nil
}

// Delete removes one entry by id.
func (s *Service) Delete(ctx context.Context, identity string, id int64) error {
	err := s.store.Update(ctx, identity, func(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
		kept := entries[:0]
		found := false
		for _, e := range entries {
			if e.ID == id {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		if !found {
			return nil, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
		}
		return kept, nil
	})
	if errors.Is(err, ErrEntryNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	s.logger.Info("History entry deleted", slog.String("identity", identity), slog.Int64("entry_id", id))
	return nil
}

// Clear drops every entry of the identity.
func (s *Service) Clear(ctx context.Context, identity string) error {
	if err := s.store.Save(ctx, identity, []models.HistoryEntry{}); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	s.logger.Info("History cleared", slog.String("identity", identity))
	return nil
}
