package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is the durable settlement record. Amounts are fixed at
// construction and never recomputed afterwards.
type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	GatewayOrderID   string
	GatewayPaymentID string
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	Subtotal         int64
	ShippingCost     int64
	TaxAmount        int64
	DiscountAmount   int64
	TotalAmount      int64
	Billing          Address
	Shipping         Address
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem snapshots product name and price at order time.
type OrderItem struct {
	ProductID   string
	ProductName string
	UnitPrice   int64
	Quantity    int
	LineTotal   int64
}

// NewOrder builds a confirmed, paid order from a priced cart and a
// verified captured payment. It is the only constructor; the total
// invariant total = subtotal + shipping + tax - discount is checked
// here and nowhere else.
func NewOrder(cart Cart, quote Quote, payment CapturedPayment, addrs Addresses) (Order, error) {
	if err := cart.Validate(); err != nil {
		return Order{}, err
	}
	if quote.TotalAmount != quote.Subtotal+quote.ShippingCost+quote.TaxAmount-quote.DiscountAmount {
		return Order{}, ErrInvalidTotal
	}

	items := make([]OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.UnitPrice * int64(l.Quantity),
		})
	}

	now := time.Now().UTC()
	id := uuid.New()
	return Order{
		ID:               id,
		OrderNumber:      newOrderNumber(now, id),
		GatewayOrderID:   payment.GatewayOrderID,
		GatewayPaymentID: payment.GatewayPaymentID,
		Status:           OrderConfirmed,
		PaymentStatus:    PaymentPaid,
		Subtotal:         quote.Subtotal,
		ShippingCost:     quote.ShippingCost,
		TaxAmount:        quote.TaxAmount,
		DiscountAmount:   quote.DiscountAmount,
		TotalAmount:      quote.TotalAmount,
		Billing:          addrs.Billing,
		Shipping:         addrs.Shipping,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func newOrderNumber(now time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
