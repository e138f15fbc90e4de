package domain

import "github.com/google/uuid"

// OrderSettled is published on the outbox once an order commits.
type OrderSettled struct {
	OrderID          uuid.UUID `json:"orderId"`
	OrderNumber      string    `json:"orderNumber"`
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	TotalAmount      int64     `json:"totalAmount"`
	Currency         string    `json:"currency"`
	LineCount        int       `json:"lineCount"`
}

// ReconciliationEntry records a captured payment whose order commit
// failed. Entries are log-and-sweep only: resolution is manual.
type ReconciliationEntry struct {
	ID               int64
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           int64
	Currency         string
	LineCount        int
	Reason           string
	Resolved         bool
}
