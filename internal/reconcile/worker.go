package reconcile

import (
	"context"
	"log/slog"
	"time"

	"storefront-settlement/internal/settlement/domain"
	"storefront-settlement/pkg/metrics"
)

type Store interface {
	ListOpenReconciliations(ctx context.Context, limit int) ([]domain.ReconciliationEntry, error)
}

// Worker periodically re-surfaces captured payments whose order commit
// failed. It is log-only: entries are resolved manually, and no refund
// or state transition happens here.
type Worker struct {
	log      *slog.Logger
	store    Store
	metrics  *metrics.Settlement
	interval time.Duration
}

func NewWorker(log *slog.Logger, store Store, m *metrics.Settlement, interval time.Duration) *Worker {
	return &Worker{log: log, store: store, metrics: m, interval: interval}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("reconciliation sweep started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.log.Error("reconciliation sweep failed", "err", err)
			}
		}
	}
}

func (w *Worker) sweep(ctx context.Context) error {
	entries, err := w.store.ListOpenReconciliations(ctx, 100)
	if err != nil {
		return err
	}

	if w.metrics != nil {
		w.metrics.OpenReconciliations.Set(float64(len(entries)))
	}
	for _, e := range entries {
		w.log.Warn("captured payment awaiting manual reconciliation",
			"entry_id", e.ID,
			"gateway_order_id", e.GatewayOrderID,
			"gateway_payment_id", e.GatewayPaymentID,
			"amount", e.Amount,
			"currency", e.Currency,
			"cart_lines", e.LineCount,
			"reason", e.Reason)
	}
	return nil
}
