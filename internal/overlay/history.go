package overlay

import (
	"context"
	"encoding/json"
	"time"

	"movie-roulette/internal/models"
	"movie-roulette/internal/store"

	"github.com/google/uuid"
)

// DefaultHistoryCapacity bounds each owner's log to the most recent entries.
const DefaultHistoryCapacity = 50

// History is an append-only, capped log of past draw results. Each owner key
// (one per panel instance) has its own log; there is no cross-owner merge.
type History struct {
	store    store.Store
	owner    string
	capacity int
}

func NewHistory(st store.Store, owner string, capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{store: st, owner: owner, capacity: capacity}
}

// Record prepends an entry for the winning title, evicting the oldest entry
// once the log is full.
func (h *History) Record(ctx context.Context, title string) (models.HistoryEntry, error) {
	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
	if err := h.store.HistoryAdd(ctx, h.owner, entry, h.capacity); err != nil {
		return models.HistoryEntry{}, err
	}
	return entry, nil
}

// List returns entries newest first.
func (h *History) List(ctx context.Context) ([]models.HistoryEntry, error) {
	return h.store.HistoryList(ctx, h.owner)
}

func (h *History) Remove(ctx context.Context, id string) error {
	return h.store.HistoryRemove(ctx, h.owner, id)
}

func (h *History) Clear(ctx context.Context) error {
	return h.store.HistoryClear(ctx, h.owner)
}

// ExportJSON renders the log as an indented JSON document for download.
func (h *History) ExportJSON(ctx context.Context) ([]byte, error) {
	entries, err := h.List(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(entries, "", "  ")
}
