package application

import (
	"context"

	"github.com/google/uuid"

	"storefront-settlement/internal/settlement/domain"
)

type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, idemKey uuid.UUID) (domain.PaymentIntent, error)
}

type CallbackVerifier interface {
	Verify(cb domain.PaymentCallback, expectedOrderID string) error
}

type OrderStore interface {
	// Commit writes the order, its items and the settled-order outbox
	// row in one transaction. A repeat commit for the same gateway
	// order id returns the existing order with created=false.
	Commit(ctx context.Context, order domain.Order, currency string) (domain.Order, bool, error)
	EnqueueReconciliation(ctx context.Context, e domain.ReconciliationEntry) error
}

// Notifier is fire-and-forget: implementations must never block the
// settlement result on email delivery.
type Notifier interface {
	NotifyConfirmed(ctx context.Context, order domain.Order, email, name string)
	NotifyPending(ctx context.Context, email, name, gatewayOrderID string)
	NotifyFailed(ctx context.Context, email, name, reason string)
}

type SeenStore interface {
	CallbackKey(gatewayOrderID string) string
	Seen(ctx context.Context, key string) (bool, error)
}
