package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront-settlement/internal/settlement/domain"
	"storefront-settlement/pkg/metrics"
)

// Mailer is the email transport collaborator contract: one message in,
// success or failure out.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Dispatcher sends checkout emails best-effort. Delivery runs in its
// own goroutine with a detached context so an already-decided
// settlement result is never blocked or rolled back by email. Failures
// are logged and counted: that log line is the only place an operator
// can see "customer never got their receipt".
type Dispatcher struct {
	log     *slog.Logger
	mailer  Mailer
	metrics *metrics.Settlement
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log *slog.Logger, mailer Mailer, m *metrics.Settlement) *Dispatcher {
	return &Dispatcher{
		log:     log,
		mailer:  mailer,
		metrics: m,
		timeout: 15 * time.Second,
	}
}

func (d *Dispatcher) NotifyConfirmed(ctx context.Context, order domain.Order, email, name string) {
	if email == "" {
		return
	}
	subject := "Order confirmed: " + order.OrderNumber
	html, err := renderConfirmed(order, name)
	if err != nil {
		d.fail("render confirmation email", order.OrderNumber, err)
		return
	}
	d.send(email, subject, html, "confirmation", order.OrderNumber)
}

func (d *Dispatcher) NotifyPending(ctx context.Context, email, name, gatewayOrderID string) {
	if email == "" {
		return
	}
	html, err := renderPending(name, gatewayOrderID)
	if err != nil {
		d.fail("render pending email", gatewayOrderID, err)
		return
	}
	d.send(email, "Payment received, order pending confirmation", html, "pending", gatewayOrderID)
}

func (d *Dispatcher) NotifyFailed(ctx context.Context, email, name, reason string) {
	if email == "" {
		return
	}
	html, err := renderFailed(name, reason)
	if err != nil {
		d.fail("render failure email", reason, err)
		return
	}
	d.send(email, "There was a problem with your payment", html, "failure", reason)
}

func (d *Dispatcher) send(to, subject, html, kind, ref string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.mailer.Send(ctx, to, subject, html); err != nil {
			d.fail("send "+kind+" email", ref, err)
			return
		}
		d.log.Info("email sent", "kind", kind, "ref", ref)
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown and in
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) fail(op, ref string, err error) {
	d.log.Error("notification failed", "op", op, "ref", ref, "err", err)
	if d.metrics != nil {
		d.metrics.NotificationFailures.Inc()
	}
}
