package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-settlement/internal/settlement/domain"
	"storefront-settlement/pkg/tracing"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository is the order persistor. Commit is the pipeline's single
// write path: header, items and the settled-order outbox row go into
// one transaction, keyed idempotently on gateway_order_id.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Commit(ctx context.Context, o domain.Order, currency string) (domain.Order, bool, error) {
	billing, err := json.Marshal(o.Billing)
	if err != nil {
		return domain.Order{}, false, err
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return domain.Order{}, false, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `INSERT INTO orders
			(id, order_number, gateway_order_id, gateway_payment_id, status, payment_status,
			 subtotal, shipping_cost, tax_amount, discount_amount, total_amount, currency,
			 billing_address, shipping_address, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (gateway_order_id) DO NOTHING`,
		o.ID, o.OrderNumber, o.GatewayOrderID, o.GatewayPaymentID, o.Status, o.PaymentStatus,
		o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount, o.TotalAmount, currency,
		billing, shipping, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return domain.Order{}, false, err
	}

	if ct.RowsAffected() == 0 {
		// Duplicate delivery: the first commit won, hand back its order.
		_ = tx.Rollback(ctx)
		existing, err := r.GetByGatewayOrderID(ctx, o.GatewayOrderID)
		if err != nil {
			return domain.Order{}, false, err
		}
		return existing, false, nil
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, false, err
	}

	event := domain.OrderSettled{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		TotalAmount:      o.TotalAmount,
		Currency:         currency,
		LineCount:        len(o.Items),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Order{}, false, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID.String(), "order.settled", payload, tracing.Traceparent(ctx))
	if err != nil {
		return domain.Order{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (r *Repository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	var o domain.Order
	var billing, shipping []byte
	err := r.pool.QueryRow(ctx, `SELECT id, order_number, gateway_order_id, gateway_payment_id,
			status, payment_status, subtotal, shipping_cost, tax_amount, discount_amount,
			total_amount, billing_address, shipping_address, created_at, updated_at
			FROM orders WHERE gateway_order_id=$1`, gatewayOrderID).
		Scan(&o.ID, &o.OrderNumber, &o.GatewayOrderID, &o.GatewayPaymentID,
			&o.Status, &o.PaymentStatus, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount,
			&o.TotalAmount, &billing, &shipping, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(billing, &o.Billing); err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, product_name, unit_price, quantity, line_total
			FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *Repository) EnqueueReconciliation(ctx context.Context, e domain.ReconciliationEntry) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO reconciliation_queue
			(gateway_order_id, gateway_payment_id, amount, currency, line_count, reason)
			VALUES ($1,$2,$3,$4,$5,$6)`,
		e.GatewayOrderID, e.GatewayPaymentID, e.Amount, e.Currency, e.LineCount, e.Reason)
	return err
}

func (r *Repository) ListOpenReconciliations(ctx context.Context, limit int) ([]domain.ReconciliationEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, gateway_order_id, gateway_payment_id, amount, currency, line_count, reason, resolved
			FROM reconciliation_queue WHERE resolved = false ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ReconciliationEntry
	for rows.Next() {
		var e domain.ReconciliationEntry
		if err := rows.Scan(&e.ID, &e.GatewayOrderID, &e.GatewayPaymentID, &e.Amount, &e.Currency, &e.LineCount, &e.Reason, &e.Resolved); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
