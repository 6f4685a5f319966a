// Package store persists watch entries and price snapshot history.
package store

import (
	"context"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/watch"
)

// Store is the full persistence surface: the monitor's read/write
// needs plus entry lifecycle and history queries for the CLI and API.
type Store interface {
	watch.Store

	CreateEntry(ctx context.Context, entry *models.WatchEntry) error
	DeleteEntry(ctx context.Context, id string) error
	History(ctx context.Context, entryID string, limit int) ([]models.PriceSnapshot, error)
}
