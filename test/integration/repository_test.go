package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"storefront-settlement/internal/settlement/domain"
	settlementpg "storefront-settlement/internal/settlement/infrastructure/postgres"
)

func setupRepo(t *testing.T) (*settlementpg.Repository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, settlementpg.Migrate(ctx, pool))
	return settlementpg.NewRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), pool), pool
}

func buildOrder(t *testing.T, gatewayOrderID string) domain.Order {
	t.Helper()
	cart := domain.Cart{Lines: []domain.CartLine{
		{ProductID: "p-1", ProductName: "Steel Bottle", UnitPrice: 45000, Quantity: 2},
		{ProductID: "p-2", ProductName: "Cotton Tote", UnitPrice: 10000, Quantity: 1},
	}}
	quote, err := domain.PriceCart(cart, domain.Pricing{FreeShippingMin: 100000, ShippingFlat: 9900, TaxRateBps: 1800}, 0)
	require.NoError(t, err)

	order, err := domain.NewOrder(cart, quote, domain.CapturedPayment{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: "pay_1",
		Amount:           quote.TotalAmount,
		Currency:         "INR",
	}, domain.Addresses{
		Billing:  domain.Address{Name: "A Shopper", Line1: "1 Main St", City: "Pune", Country: "IN"},
		Shipping: domain.Address{Name: "A Shopper", Line1: "1 Main St", City: "Pune", Country: "IN"},
	})
	require.NoError(t, err)
	return order
}

func TestCommitPersistsOrderAtomically(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	order := buildOrder(t, "order_int_1")
	saved, created, err := repo.Commit(ctx, order, "INR")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, order.ID, saved.ID)

	got, err := repo.GetByGatewayOrderID(ctx, "order_int_1")
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, got.OrderNumber)
	require.Equal(t, int64(118000), got.TotalAmount)
	require.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Steel Bottle", got.Items[0].ProductName)
	require.Equal(t, "1 Main St", got.Billing.Line1)

	// The settled-order event was written in the same transaction.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM outbox WHERE aggregate_id=$1 AND type='order.settled' AND status='pending'`,
		order.ID.String()).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func TestCommitIsIdempotentPerGatewayOrder(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	first := buildOrder(t, "order_int_dup")
	_, created, err := repo.Commit(ctx, first, "INR")
	require.NoError(t, err)
	require.True(t, created)

	// A second delivery builds a fresh order value but must collapse
	// onto the first commit.
	second := buildOrder(t, "order_int_dup")
	existing, created, err := repo.Commit(ctx, second, "INR")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, existing.ID)

	var orderCount, itemCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE gateway_order_id='order_int_dup'`).Scan(&orderCount))
	require.Equal(t, 1, orderCount)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM order_items WHERE order_id=$1`, first.ID).Scan(&itemCount))
	require.Equal(t, 2, itemCount)
}

func TestReconciliationQueueRoundTrip(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	entry := domain.ReconciliationEntry{
		GatewayOrderID:   "order_int_recon",
		GatewayPaymentID: "pay_9",
		Amount:           118000,
		Currency:         "INR",
		LineCount:        2,
		Reason:           "db outage during commit",
	}
	require.NoError(t, repo.EnqueueReconciliation(ctx, entry))

	open, err := repo.ListOpenReconciliations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "order_int_recon", open[0].GatewayOrderID)
	require.Equal(t, int64(118000), open[0].Amount)
	require.False(t, open[0].Resolved)
}
