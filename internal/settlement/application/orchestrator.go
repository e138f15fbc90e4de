package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"storefront-settlement/internal/settlement/domain"
	"storefront-settlement/pkg/metrics"
)

type State string

const (
	StateInitiated                 State = "initiated"
	StateIntentCreated             State = "intent_created"
	StateIntentFailed              State = "intent_failed"
	StateAwaitingCallback          State = "awaiting_callback"
	StateVerifying                 State = "verifying"
	StateConfirmed                 State = "confirmed"
	StateVerificationFailed        State = "verification_failed"
	StatePersistFailedAfterCapture State = "persist_failed_after_capture"
)

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CheckoutSession is the explicit per-attempt state handed to the
// orchestrator by the caller. Nothing is read ambiently; each attempt
// carries its own cart, address and intent snapshots.
type CheckoutSession struct {
	Cart            domain.Cart      `json:"cart"`
	Addresses       domain.Addresses `json:"addresses"`
	Customer        Customer         `json:"customer"`
	Currency        string           `json:"currency"`
	Discount        int64            `json:"discount"`
	ExpectedOrderID string           `json:"gatewayOrderId"`
}

type SettleResult struct {
	State   State
	Order   domain.Order
	Created bool
	Message string
}

const pendingMessage = "Payment received. Your order is pending manual confirmation and will be processed shortly."

// Orchestrator sequences one checkout settlement: intent creation,
// callback verification, atomic persistence, best-effort notification.
// Verification always completes before persistence begins; persistence
// success, not gateway success, is the commit point reported to the
// caller.
type Orchestrator struct {
	log      *slog.Logger
	gateway  IntentCreator
	verifier CallbackVerifier
	store    OrderStore
	notifier Notifier
	seen     SeenStore
	pricing  domain.Pricing
	metrics  *metrics.Settlement
}

func NewOrchestrator(
	log *slog.Logger,
	gateway IntentCreator,
	verifier CallbackVerifier,
	store OrderStore,
	notifier Notifier,
	seen SeenStore,
	pricing domain.Pricing,
	m *metrics.Settlement,
) *Orchestrator {
	return &Orchestrator{
		log:      log,
		gateway:  gateway,
		verifier: verifier,
		store:    store,
		notifier: notifier,
		seen:     seen,
		pricing:  pricing,
		metrics:  m,
	}
}

// Initiate prices the cart and opens a gateway order for it. Each call
// gets a fresh idempotency key: a retried attempt is a new intent,
// never a reuse of a failed one. After this returns the flow suspends
// until the client delivers the gateway callback; abandoning there
// leaves no persisted side effect.
func (o *Orchestrator) Initiate(ctx context.Context, cart domain.Cart, currency string, discount int64) (domain.PaymentIntent, error) {
	quote, err := domain.PriceCart(cart, o.pricing, discount)
	if err != nil {
		return domain.PaymentIntent{}, &domain.GatewayError{Op: "price-cart", Err: err}
	}

	intent, err := o.gateway.CreateIntent(ctx, quote.TotalAmount, currency, uuid.New())
	if err != nil {
		o.count(StateIntentFailed)
		o.log.Warn("intent creation failed", "amount", quote.TotalAmount, "err", err)
		return domain.PaymentIntent{}, err
	}

	o.count(StateIntentCreated)
	o.log.Info("intent created",
		"gateway_order_id", intent.GatewayOrderID,
		"amount", intent.Amount,
		"currency", intent.Currency)
	return intent, nil
}

// Settle drives a delivered callback to a terminal state. The error
// return carries the internal cause for logging; the result's Message
// is the only text fit for the shopper.
func (o *Orchestrator) Settle(ctx context.Context, session CheckoutSession, cb domain.PaymentCallback) (SettleResult, error) {
	if err := o.verifier.Verify(cb, session.ExpectedOrderID); err != nil {
		o.count(StateVerificationFailed)
		o.log.Warn("callback verification failed",
			"gateway_order_id", cb.GatewayOrderID,
			"expected_order_id", session.ExpectedOrderID,
			"err", err)
		o.notifier.NotifyFailed(ctx, session.Customer.Email, session.Customer.Name, "payment verification failed")
		return SettleResult{
			State:   StateVerificationFailed,
			Message: "payment verification failed",
		}, err
	}

	if o.seen != nil {
		dup, err := o.seen.Seen(ctx, o.seen.CallbackKey(cb.GatewayOrderID))
		if err != nil {
			o.log.Warn("callback seen-store unavailable", "err", err)
		} else if dup {
			o.log.Info("duplicate callback delivery", "gateway_order_id", cb.GatewayOrderID)
		}
	}

	// From here the payment is captured: any failure below must not be
	// reported to the shopper as a failed payment.
	quote, err := domain.PriceCart(session.Cart, o.pricing, session.Discount)
	if err != nil {
		return o.persistFailedAfterCapture(ctx, session, cb, 0, err)
	}

	payment := domain.CapturedPayment{
		GatewayOrderID:   cb.GatewayOrderID,
		GatewayPaymentID: cb.GatewayPaymentID,
		Amount:           quote.TotalAmount,
		Currency:         session.Currency,
	}
	order, err := domain.NewOrder(session.Cart, quote, payment, session.Addresses)
	if err != nil {
		return o.persistFailedAfterCapture(ctx, session, cb, quote.TotalAmount, err)
	}

	saved, created, err := o.store.Commit(ctx, order, session.Currency)
	if err != nil {
		return o.persistFailedAfterCapture(ctx, session, cb, quote.TotalAmount, err)
	}

	if created {
		o.count(StateConfirmed)
		o.log.Info("order settled",
			"order_id", saved.ID,
			"order_number", saved.OrderNumber,
			"gateway_order_id", saved.GatewayOrderID,
			"total", saved.TotalAmount)
		o.notifier.NotifyConfirmed(ctx, saved, session.Customer.Email, session.Customer.Name)
	} else {
		o.log.Info("duplicate settle, returning existing order",
			"order_id", saved.ID, "gateway_order_id", saved.GatewayOrderID)
	}

	return SettleResult{
		State:   StateConfirmed,
		Order:   saved,
		Created: created,
		Message: "order confirmed",
	}, nil
}

// ReportFailure handles the best-effort client failure notification.
// It never returns an error: a broken notification path must not
// cascade into the storefront UI.
func (o *Orchestrator) ReportFailure(ctx context.Context, email, name, reason string) {
	o.log.Info("client reported checkout failure", "reason", reason)
	o.notifier.NotifyFailed(ctx, email, name, "payment could not be completed")
}

func (o *Orchestrator) persistFailedAfterCapture(ctx context.Context, session CheckoutSession, cb domain.PaymentCallback, amount int64, cause error) (SettleResult, error) {
	perr := &domain.PersistenceError{AfterCapture: true, Err: cause}
	o.count(StatePersistFailedAfterCapture)
	o.log.Error("post-capture persistence failure",
		"gateway_order_id", cb.GatewayOrderID,
		"gateway_payment_id", cb.GatewayPaymentID,
		"amount", amount,
		"cart_lines", len(session.Cart.Lines),
		"err", cause)

	entry := domain.ReconciliationEntry{
		GatewayOrderID:   cb.GatewayOrderID,
		GatewayPaymentID: cb.GatewayPaymentID,
		Amount:           amount,
		Currency:         session.Currency,
		LineCount:        len(session.Cart.Lines),
		Reason:           cause.Error(),
	}
	if err := o.store.EnqueueReconciliation(ctx, entry); err != nil {
		// The log line above is then the only trace; keep it loud.
		o.log.Error("reconciliation enqueue failed",
			"gateway_order_id", cb.GatewayOrderID, "err", err)
	}

	o.notifier.NotifyPending(ctx, session.Customer.Email, session.Customer.Name, cb.GatewayOrderID)

	return SettleResult{
		State:   StatePersistFailedAfterCapture,
		Message: pendingMessage,
	}, perr
}

func (o *Orchestrator) count(outcome State) {
	if o.metrics != nil {
		o.metrics.Settlements.WithLabelValues(string(outcome)).Inc()
	}
}
