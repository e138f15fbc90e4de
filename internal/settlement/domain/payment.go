package domain

import "time"

// PaymentIntent is the gateway-side order created for one checkout
// attempt. A failed attempt gets a fresh intent, never a reused id.
type PaymentIntent struct {
	GatewayOrderID string    `json:"gatewayOrderId"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PaymentCallback is the client-delivered gateway callback. Untrusted:
// no field may be acted on before Verify succeeds.
type PaymentCallback struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// CapturedPayment is a callback that passed verification.
type CapturedPayment struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           int64
	Currency         string
}
