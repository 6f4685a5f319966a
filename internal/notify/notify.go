// Package notify dispatches watch alerts to their destinations.
package notify

import (
	"context"
	"log/slog"

	"github.com/fyndra/outfitscout/internal/watch"
)

// LogNotifier writes alerts to the structured log. The default when no
// email provider is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, alert watch.Alert) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("price alert",
		"entry", alert.EntryID,
		"current", alert.CurrentCost.StringFixed(2),
		"target", alert.Target.StringFixed(2),
		"currency", alert.Currency,
		"restock", alert.Restock,
		"links", alert.ShopLinks,
	)
	return nil
}
